// Package draft models the share-in-progress: a captured piece of page
// content together with the relay list it will be published to.
package draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karnagebitcoin/share-to-nostr/internal/browser"
	"github.com/karnagebitcoin/share-to-nostr/internal/relay"
)

// Type says what kind of capture produced the draft.
type Type string

const (
	TypeManual    Type = "manual"
	TypeSelection Type = "selection"
	TypeImage     Type = "image"
	TypeVideo     Type = "video"
	TypePage      Type = "page"
)

// Draft is one pending share. SourceTabID is zero when the draft was
// not captured from a tab.
type Draft struct {
	ID           string        `json:"id"`
	Type         Type          `json:"type"`
	SourceTabID  browser.TabID `json:"sourceTabId,omitempty"`
	SourceURL    string        `json:"sourceUrl"`
	PageTitle    string        `json:"pageTitle"`
	SelectedText string        `json:"selectedText"`
	ImageURL     string        `json:"imageUrl"`
	VideoURL     string        `json:"videoUrl"`
	Content      string        `json:"content"`
	Relays       []string      `json:"relays"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Normalize fills in missing fields so the draft is always usable:
// a fresh ID when absent, manual type when absent, a normalized relay
// list, and the current time. Callers get a copy; the input is not
// modified.
func Normalize(d Draft) Draft {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Type == "" {
		d.Type = TypeManual
	}
	d.Relays = relay.NormalizeOrDefault(d.Relays)
	d.CreatedAt = time.Now()
	return d
}

// Capture sources the draft content from a tab. includeSourceURL
// controls whether the page URL is attached to media and selection
// captures; page captures always carry it.

// FromSelection captures highlighted text.
func FromSelection(tab browser.Tab, selected string, includeSourceURL bool) (Draft, error) {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return Draft{}, fmt.Errorf("nothing selected")
	}

	// Plain quote framing; embedded quotes are left as the user
	// selected them.
	quoted := "\"" + selected + "\""

	d := Draft{
		Type:         TypeSelection,
		SourceTabID:  tab.ID,
		PageTitle:    pageTitle(tab),
		SelectedText: selected,
		Content:      quoted,
	}
	if includeSourceURL {
		d.SourceURL = tab.URL
		d.Content = quoted + "\n\n" + tab.URL
	}
	return Normalize(d), nil
}

// FromImage captures an image by URL.
func FromImage(tab browser.Tab, imageURL string, includeSourceURL bool) (Draft, error) {
	if imageURL == "" {
		return Draft{}, fmt.Errorf("no image URL")
	}

	d := Draft{
		Type:        TypeImage,
		SourceTabID: tab.ID,
		PageTitle:   pageTitle(tab),
		ImageURL:    imageURL,
		Content:     imageURL,
	}
	if includeSourceURL {
		d.SourceURL = tab.URL
		d.Content = imageURL + "\n\n" + tab.URL
	}
	return Normalize(d), nil
}

// FromVideo captures a video by URL.
func FromVideo(tab browser.Tab, videoURL string, includeSourceURL bool) (Draft, error) {
	if videoURL == "" {
		return Draft{}, fmt.Errorf("no video URL")
	}

	d := Draft{
		Type:        TypeVideo,
		SourceTabID: tab.ID,
		PageTitle:   pageTitle(tab),
		VideoURL:    videoURL,
		Content:     videoURL,
	}
	if includeSourceURL {
		d.SourceURL = tab.URL
		d.Content = videoURL + "\n\n" + tab.URL
	}
	return Normalize(d), nil
}

// FromPage captures the page itself as title plus URL.
func FromPage(tab browser.Tab) Draft {
	d := Draft{
		Type:        TypePage,
		SourceTabID: tab.ID,
		SourceURL:   tab.URL,
		PageTitle:   pageTitle(tab),
		Content:     pageTitle(tab) + "\n" + tab.URL,
	}
	return Normalize(d)
}

func pageTitle(tab browser.Tab) string {
	if tab.Title == "" {
		return "Untitled page"
	}
	return tab.Title
}

// ComposeContent assembles the final note body from the edited text and
// the draft's media and source URLs. URLs already present in the text
// are not appended again; parts are joined with blank lines.
func ComposeContent(content, sourceURL, mediaURL string) string {
	content = strings.TrimSpace(content)
	lines := []string{content}

	if mediaURL != "" && !strings.Contains(content, mediaURL) {
		lines = append(lines, mediaURL)
	}
	if sourceURL != "" && !strings.Contains(content, sourceURL) {
		lines = append(lines, sourceURL)
	}

	var parts []string
	for _, line := range lines {
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "\n\n")
}

// MediaURL returns whichever media URL the draft carries, image first.
func (d Draft) MediaURL() string {
	if d.ImageURL != "" {
		return d.ImageURL
	}
	return d.VideoURL
}
