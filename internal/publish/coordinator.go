// Package publish orchestrates one publish attempt end to end: resolve
// a signing tab, build and sign the event, fan out to the relays, and
// fold their verdicts into a single result.
package publish

import (
	"context"
	"errors"
	"strings"

	"github.com/nbd-wtf/go-nostr"

	"github.com/karnagebitcoin/share-to-nostr/internal/browser"
	"github.com/karnagebitcoin/share-to-nostr/internal/logging"
	"github.com/karnagebitcoin/share-to-nostr/internal/relay"
	"github.com/karnagebitcoin/share-to-nostr/internal/signer"
)

// Signer is the slice of the signer bridge the coordinator needs.
type Signer interface {
	Detect(ctx context.Context, tab browser.Tab, cachedPubkey string) (signer.Detection, error)
	Sign(ctx context.Context, tab browser.Tab, unsigned *nostr.Event, cachedPubkey string) (*nostr.Event, error)
}

// Broadcaster submits one event to many relays and reports per-relay
// verdicts.
type Broadcaster interface {
	Broadcast(ctx context.Context, urls []string, event *nostr.Event) []relay.Result
}

// Coordinator owns the publish pipeline. It is the only writer of the
// signer session.
type Coordinator struct {
	tabs    browser.Directory
	signer  Signer
	relays  Broadcaster
	session *signer.Session
	log     logging.Logger
}

// NewCoordinator wires a coordinator from its collaborators.
func NewCoordinator(tabs browser.Directory, sig Signer, relays Broadcaster, session *signer.Session, log logging.Logger) *Coordinator {
	return &Coordinator{
		tabs:    tabs,
		signer:  sig,
		relays:  relays,
		session: session,
		log:     log,
	}
}

// Result is the aggregate outcome of one publish attempt. OK is true
// iff at least one relay accepted the event. When the event was signed
// but nowhere accepted, OK is false and Error explains that the
// signature was not wasted.
type Result struct {
	OK          bool           `json:"ok"`
	EventID     string         `json:"eventId,omitempty"`
	SignerTabID browser.TabID  `json:"signerTabId,omitempty"`
	Relays      []relay.Result `json:"relays,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Publish runs one attempt. Validation, tab resolution, and signing
// failures come back as errors; a signed event that no relay accepted
// comes back as a Result with OK false, because the caller still gets
// the event ID and the per-relay breakdown.
func (c *Coordinator) Publish(ctx context.Context, content string, relays []string, preferredTab browser.TabID) (Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Result{}, &ValidationError{Message: "Post content is required."}
	}

	urls := relay.Normalize(relays)
	if len(urls) == 0 {
		return Result{}, &ValidationError{Message: "At least one relay is required."}
	}

	tab, err := c.resolveTab(ctx, preferredTab)
	if err != nil {
		return Result{}, err
	}

	unsigned := &nostr.Event{
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{},
		Content:   content,
	}

	cachedPubkey := c.cachedPubkey()
	signed, err := c.signer.Sign(ctx, tab, unsigned, cachedPubkey)
	if err != nil {
		return Result{}, err
	}

	pubkey := signed.PubKey
	if pubkey == "" {
		pubkey = cachedPubkey
	}
	c.session.Update(tab.ID, pubkey)

	c.log.Info(ctx, "broadcasting event", "event", signed.ID, "relays", len(urls))
	outcomes := c.relays.Broadcast(ctx, urls, signed)

	accepted := 0
	for _, outcome := range outcomes {
		if outcome.Accepted() {
			accepted++
		}
	}

	result := Result{
		OK:          accepted > 0,
		EventID:     signed.ID,
		SignerTabID: tab.ID,
		Relays:      outcomes,
	}
	if accepted == 0 {
		result.Error = "Event was signed, but no relay accepted it."
	}
	return result, nil
}

// CheckResult is the outcome of a signer probe.
type CheckResult struct {
	OK     bool          `json:"ok"`
	Pubkey string        `json:"pubkey,omitempty"`
	Cached bool          `json:"cached,omitempty"`
	TabID  browser.TabID `json:"tabId,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// CheckSigner probes for a usable signer without publishing anything.
// A successful probe refreshes the session; a failed probe on the
// session's own tab forgets it.
func (c *Coordinator) CheckSigner(ctx context.Context, preferredTab browser.TabID) (CheckResult, error) {
	tab, err := c.resolveTab(ctx, preferredTab)
	if err != nil {
		if errors.Is(err, ErrNoSignerTab) {
			return CheckResult{}, errors.New("No suitable browser tab found for signer check.")
		}
		return CheckResult{}, err
	}

	det, err := c.signer.Detect(ctx, tab, c.cachedPubkey())
	if err != nil {
		c.session.Invalidate(tab.ID)
		var serr *signer.Error
		if errors.As(err, &serr) {
			return CheckResult{TabID: tab.ID, Error: serr.Message}, nil
		}
		return CheckResult{}, err
	}

	pubkey := det.Pubkey
	if pubkey == "" {
		pubkey = c.cachedPubkey()
	}
	c.session.Update(tab.ID, pubkey)

	return CheckResult{OK: true, Pubkey: pubkey, Cached: det.Cached, TabID: tab.ID}, nil
}

// resolveTab finds the tab to sign in. Precedence: the remembered
// session tab, the caller's preferred tab, the active tab, then any
// other eligible tab. A remembered tab that is gone or no longer
// eligible invalidates the session before resolution continues.
func (c *Coordinator) resolveTab(ctx context.Context, preferred browser.TabID) (browser.Tab, error) {
	checked := make(map[browser.TabID]struct{})

	eligible := func(id browser.TabID) (browser.Tab, bool) {
		if id == 0 {
			return browser.Tab{}, false
		}
		if _, done := checked[id]; done {
			return browser.Tab{}, false
		}
		checked[id] = struct{}{}

		tab, err := c.tabs.Tab(ctx, id)
		if err != nil {
			return browser.Tab{}, false
		}
		return tab, tab.Signable()
	}

	if state, ok := c.session.Get(); ok {
		if tab, ok := eligible(state.Tab); ok {
			return tab, nil
		}
		c.session.Invalidate(state.Tab)
	}

	if tab, ok := eligible(preferred); ok {
		return tab, nil
	}

	if active, ok := c.tabs.ActiveTab(ctx); ok {
		if _, done := checked[active.ID]; !done && active.Signable() {
			return active, nil
		}
		checked[active.ID] = struct{}{}
	}

	for _, tab := range c.tabs.Tabs(ctx) {
		if _, done := checked[tab.ID]; !done && tab.Signable() {
			return tab, nil
		}
	}

	return browser.Tab{}, ErrNoSignerTab
}

func (c *Coordinator) cachedPubkey() string {
	if state, ok := c.session.Get(); ok {
		return state.Pubkey
	}
	return ""
}
