package browser

import "testing"

func TestSignable(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/article", true},
		{"http://localhost:17807/", true},
		{"HTTPS://EXAMPLE.COM", true},
		{"chrome://extensions", false},
		{"about:blank", false},
		{"chrome-extension://abcdef/compose.html", false},
		{"file:///tmp/page.html", false},
		{"", false},
		{"wss://relay.damus.io", false},
	}

	for _, tt := range tests {
		if got := Signable(tt.url); got != tt.want {
			t.Errorf("Signable(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
