package draft

import (
	"reflect"
	"strings"
	"testing"

	"github.com/karnagebitcoin/share-to-nostr/internal/browser"
	"github.com/karnagebitcoin/share-to-nostr/internal/relay"
)

var testTab = browser.Tab{
	ID:    42,
	URL:   "https://example.com/article",
	Title: "An Article",
}

func TestNormalize(t *testing.T) {
	d := Normalize(Draft{})
	if d.ID == "" {
		t.Error("ID not assigned")
	}
	if d.Type != TypeManual {
		t.Errorf("Type = %q, want manual", d.Type)
	}
	if !reflect.DeepEqual(d.Relays, relay.DefaultRelays) {
		t.Errorf("Relays = %v, want defaults", d.Relays)
	}
	if d.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestNormalizeKeepsExistingFields(t *testing.T) {
	in := Draft{
		ID:     "keep-me",
		Type:   TypePage,
		Relays: []string{"wss://a.example", "bad-url", "wss://a.example"},
	}
	d := Normalize(in)
	if d.ID != "keep-me" {
		t.Errorf("ID = %q, want keep-me", d.ID)
	}
	if d.Type != TypePage {
		t.Errorf("Type = %q, want page", d.Type)
	}
	if want := []string{"wss://a.example"}; !reflect.DeepEqual(d.Relays, want) {
		t.Errorf("Relays = %v, want %v", d.Relays, want)
	}
}

func TestFromSelection(t *testing.T) {
	d, err := FromSelection(testTab, "  a quote  ", true)
	if err != nil {
		t.Fatalf("FromSelection() error = %v", err)
	}
	if d.Type != TypeSelection {
		t.Errorf("Type = %q", d.Type)
	}
	if d.SelectedText != "a quote" {
		t.Errorf("SelectedText = %q, want trimmed", d.SelectedText)
	}
	want := "\"a quote\"\n\nhttps://example.com/article"
	if d.Content != want {
		t.Errorf("Content = %q, want %q", d.Content, want)
	}
	if d.SourceURL != testTab.URL {
		t.Errorf("SourceURL = %q", d.SourceURL)
	}
}

func TestFromSelectionWithoutSourceURL(t *testing.T) {
	d, err := FromSelection(testTab, "a quote", false)
	if err != nil {
		t.Fatalf("FromSelection() error = %v", err)
	}
	if d.Content != "\"a quote\"" {
		t.Errorf("Content = %q", d.Content)
	}
	if d.SourceURL != "" {
		t.Errorf("SourceURL = %q, want empty", d.SourceURL)
	}
}

func TestFromSelectionEmbeddedQuotes(t *testing.T) {
	d, err := FromSelection(testTab, `she said "hi"`, false)
	if err != nil {
		t.Fatalf("FromSelection() error = %v", err)
	}

	// Embedded quotes stay as selected, no escaping.
	if want := `"she said "hi""`; d.Content != want {
		t.Errorf("Content = %q, want %q", d.Content, want)
	}
}

func TestFromSelectionEmpty(t *testing.T) {
	if _, err := FromSelection(testTab, "   ", true); err == nil {
		t.Error("FromSelection() with blank text did not error")
	}
}

func TestFromImage(t *testing.T) {
	d, err := FromImage(testTab, "https://cdn.example/pic.png", true)
	if err != nil {
		t.Fatalf("FromImage() error = %v", err)
	}
	want := "https://cdn.example/pic.png\n\nhttps://example.com/article"
	if d.Content != want {
		t.Errorf("Content = %q, want %q", d.Content, want)
	}
	if d.ImageURL != "https://cdn.example/pic.png" {
		t.Errorf("ImageURL = %q", d.ImageURL)
	}
}

func TestFromVideo(t *testing.T) {
	d, err := FromVideo(testTab, "https://cdn.example/clip.mp4", false)
	if err != nil {
		t.Fatalf("FromVideo() error = %v", err)
	}
	if d.Content != "https://cdn.example/clip.mp4" {
		t.Errorf("Content = %q", d.Content)
	}
}

func TestFromPage(t *testing.T) {
	d := FromPage(testTab)
	want := "An Article\nhttps://example.com/article"
	if d.Content != want {
		t.Errorf("Content = %q, want %q", d.Content, want)
	}

	untitled := FromPage(browser.Tab{ID: 1, URL: "https://example.com"})
	if !strings.HasPrefix(untitled.Content, "Untitled page\n") {
		t.Errorf("Content = %q, want untitled fallback", untitled.Content)
	}
}

func TestComposeContent(t *testing.T) {
	tests := []struct {
		name                      string
		content, source, media    string
		want                      string
	}{
		{
			name:    "appends media then source",
			content: "look at this",
			source:  "https://example.com/article",
			media:   "https://cdn.example/pic.png",
			want:    "look at this\n\nhttps://cdn.example/pic.png\n\nhttps://example.com/article",
		},
		{
			name:    "skips urls already in the text",
			content: "see https://cdn.example/pic.png here",
			source:  "https://example.com/article",
			media:   "https://cdn.example/pic.png",
			want:    "see https://cdn.example/pic.png here\n\nhttps://example.com/article",
		},
		{
			name:    "empty text with urls",
			content: "   ",
			source:  "https://example.com/article",
			media:   "",
			want:    "https://example.com/article",
		},
		{
			name:    "text only",
			content: "just words",
			want:    "just words",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeContent(tt.content, tt.source, tt.media)
			if got != tt.want {
				t.Errorf("ComposeContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMediaURL(t *testing.T) {
	d := Draft{ImageURL: "https://cdn.example/pic.png", VideoURL: "https://cdn.example/clip.mp4"}
	if d.MediaURL() != d.ImageURL {
		t.Errorf("MediaURL() = %q, want image first", d.MediaURL())
	}
	d.ImageURL = ""
	if d.MediaURL() != d.VideoURL {
		t.Errorf("MediaURL() = %q, want video", d.MediaURL())
	}
}
