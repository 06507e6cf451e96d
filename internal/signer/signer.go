// Package signer talks to NIP-07 signing capabilities inside browser
// pages through the bridge. The capability is third-party code in a
// foreign execution realm: it may be absent, incomplete, or refuse, and
// every one of those is a classified failure rather than a crash.
package signer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/karnagebitcoin/share-to-nostr/internal/bridge"
	"github.com/karnagebitcoin/share-to-nostr/internal/browser"
	"github.com/karnagebitcoin/share-to-nostr/internal/logging"
)

// Caller dispatches one correlated request into a tab's page context.
// Implemented by *bridge.Hub.
type Caller interface {
	Call(ctx context.Context, tab browser.TabID, method string, params any) (json.RawMessage, error)
}

// Bridge exposes the two signer operations over a Caller.
type Bridge struct {
	caller Caller
	log    logging.Logger
}

// NewBridge creates a signer bridge on top of the given caller.
func NewBridge(caller Caller, log logging.Logger) *Bridge {
	return &Bridge{caller: caller, log: log}
}

// Detection is the result of a signer probe.
type Detection struct {
	Pubkey string `json:"pubkey"`
	Cached bool   `json:"cached"`
}

type detectParams struct {
	CachedPubkey string `json:"cachedPubkey"`
}

// Detect probes the tab for a usable NIP-07 capability. A cached public
// key short-circuits the live request so the user is not re-prompted.
func (b *Bridge) Detect(ctx context.Context, tab browser.Tab, cachedPubkey string) (Detection, error) {
	if !tab.Signable() {
		return Detection{}, ErrTabNotSignable
	}

	raw, err := b.caller.Call(ctx, tab.ID, "nostr.detect", detectParams{CachedPubkey: cachedPubkey})
	if err != nil {
		return Detection{}, mapCallError(err)
	}

	var det Detection
	if err := json.Unmarshal(raw, &det); err != nil || det.Pubkey == "" {
		return Detection{}, &Error{Kind: KindNotFound, Message: "Signer check returned no response."}
	}
	return det, nil
}

type signParams struct {
	Event        eventTemplate `json:"event"`
	CachedPubkey string        `json:"cachedPubkey"`
}

// eventTemplate is the serializable unsigned event handed to the page.
// The page attaches the pubkey before asking the capability to sign.
type eventTemplate struct {
	Kind      int        `json:"kind"`
	CreatedAt int64      `json:"created_at"`
	Tags      nostr.Tags `json:"tags"`
	Content   string     `json:"content"`
}

type signResult struct {
	Event  *nostr.Event `json:"event"`
	Pubkey string       `json:"pubkey"`
}

// Sign asks the tab's capability to sign the unsigned event. The
// returned event is verified (content-addressed ID and signature)
// before being accepted; an unusable result is always a hard failure.
func (b *Bridge) Sign(ctx context.Context, tab browser.Tab, unsigned *nostr.Event, cachedPubkey string) (*nostr.Event, error) {
	if !tab.Signable() {
		return nil, ErrTabNotSignable
	}

	params := signParams{
		Event: eventTemplate{
			Kind:      unsigned.Kind,
			CreatedAt: int64(unsigned.CreatedAt),
			Tags:      unsigned.Tags,
			Content:   unsigned.Content,
		},
		CachedPubkey: cachedPubkey,
	}

	raw, err := b.caller.Call(ctx, tab.ID, "nostr.signEvent", params)
	if err != nil {
		return nil, mapCallError(err)
	}

	var res signResult
	if err := json.Unmarshal(raw, &res); err != nil || res.Event == nil {
		return nil, &Error{Kind: KindRejected, Message: "Could not sign event with NIP-07 signer."}
	}

	signed := res.Event
	if err := verify(signed); err != nil {
		b.log.Warn(ctx, "signer returned unverifiable event", "tab", tab.ID, "err", err)
		return nil, &Error{Kind: KindIncompatible, Message: "Signer returned an invalid signed event."}
	}
	return signed, nil
}

// verify checks that the signed event is self-consistent: its ID is the
// content hash and the signature verifies against its pubkey.
func verify(ev *nostr.Event) error {
	if ev.PubKey == "" || ev.Sig == "" {
		return errors.New("missing pubkey or signature")
	}
	if ev.ID != ev.GetID() {
		return errors.New("event ID does not match content")
	}
	ok, err := ev.CheckSignature()
	if err != nil {
		return fmt.Errorf("check signature: %w", err)
	}
	if !ok {
		return errors.New("signature does not verify")
	}
	return nil
}

// mapCallError folds transport and page-reported errors into the signer
// taxonomy. Context and tab-gone errors pass through untouched.
func mapCallError(err error) error {
	var callErr *bridge.CallError
	if errors.As(err, &callErr) {
		kind := KindNotFound
		switch callErr.Code {
		case "signer_not_found":
			kind = KindNotFound
		case "signer_incompatible":
			kind = KindIncompatible
		case "signer_denied":
			kind = KindDenied
		case "signer_rejected":
			kind = KindRejected
		}
		return &Error{Kind: kind, Message: callErr.Message}
	}
	return err
}
