// Package relay speaks the relay side of the Nostr protocol: it
// normalizes relay lists, submits signed events over WebSocket, and
// classifies each relay's verdict.
package relay

import "strings"

// DefaultRelays is the fallback relay set applied when a stored or
// configured relay list comes out empty after normalization.
var DefaultRelays = []string{
	"wss://relay.damus.io",
	"wss://relay.primal.net",
	"wss://nos.lol",
}

// Normalize cleans a raw relay list: entries are trimmed, anything that
// is not a ws:// or wss:// URL is dropped, and duplicates are removed
// keeping the first occurrence. An empty result stays empty; callers
// that must end up with a usable list use NormalizeOrDefault.
// Normalizing an already-normalized list is a no-op.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var cleaned []string
	for _, url := range raw {
		url = strings.TrimSpace(url)
		if !strings.HasPrefix(url, "wss://") && !strings.HasPrefix(url, "ws://") {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		cleaned = append(cleaned, url)
	}
	return cleaned
}

// NormalizeOrDefault normalizes and falls back to DefaultRelays when
// nothing survives. Drafts and config use this; a publish attempt does
// not, so an explicitly empty relay list is a caller error there.
func NormalizeOrDefault(raw []string) []string {
	cleaned := Normalize(raw)
	if len(cleaned) == 0 {
		return append([]string(nil), DefaultRelays...)
	}
	return cleaned
}

// Split parses a comma-separated relay list, as found in environment
// variables, and normalizes it with the default fallback.
func Split(env string) []string {
	if env == "" {
		return NormalizeOrDefault(nil)
	}
	return NormalizeOrDefault(strings.Split(env, ","))
}
