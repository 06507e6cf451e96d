// Package browser models the browser tabs the daemon can reach through
// the bridge.
package browser

import (
	"context"
	"errors"
	"strings"
)

// TabID identifies a browser tab. IDs are assigned by the browser
// extension that attaches the tab to the bridge; tabs the daemon opens
// itself get hub-assigned negative IDs.
type TabID int64

// Tab is a snapshot of one attached browser tab.
type Tab struct {
	ID     TabID  `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// ErrTabNotFound is returned when a tab is not (or no longer) attached.
var ErrTabNotFound = errors.New("tab not found")

// Directory is the view of currently attached tabs used during signer
// resolution. The bridge hub implements it.
type Directory interface {
	// Tab returns the tab with the given ID, or ErrTabNotFound.
	Tab(ctx context.Context, id TabID) (Tab, error)

	// ActiveTab returns the active tab of the last-focused window, if any.
	ActiveTab(ctx context.Context) (Tab, bool)

	// Tabs returns all attached tabs, most recently attached first.
	Tabs(ctx context.Context) []Tab
}

// Signable reports whether a signer probe may be injected into a tab
// with this URL. Only regular http(s) pages qualify; browser-internal
// and extension pages are out of reach.
func Signable(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Signable reports whether the tab is eligible to host a signer.
func (t Tab) Signable() bool {
	return Signable(t.URL)
}
