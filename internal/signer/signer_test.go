package signer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nbd-wtf/go-nostr"

	"github.com/karnagebitcoin/share-to-nostr/internal/bridge"
	"github.com/karnagebitcoin/share-to-nostr/internal/browser"
	"github.com/karnagebitcoin/share-to-nostr/internal/logging"
)

type fakeCaller struct {
	method string
	params any
	result json.RawMessage
	err    error
}

func (f *fakeCaller) Call(_ context.Context, _ browser.TabID, method string, params any) (json.RawMessage, error) {
	f.method = method
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func signableTab() browser.Tab {
	return browser.Tab{ID: 7, URL: "https://example.com/article", Title: "Example"}
}

func TestDetect(t *testing.T) {
	fake := &fakeCaller{result: json.RawMessage(`{"pubkey":"abc123","cached":false}`)}
	b := NewBridge(fake, logging.Nop())

	det, err := b.Detect(context.Background(), signableTab(), "")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if det.Pubkey != "abc123" {
		t.Errorf("Pubkey = %q, want %q", det.Pubkey, "abc123")
	}
	if det.Cached {
		t.Error("Cached = true, want false")
	}
	if fake.method != "nostr.detect" {
		t.Errorf("method = %q, want %q", fake.method, "nostr.detect")
	}
}

func TestDetectCachedPubkey(t *testing.T) {
	fake := &fakeCaller{result: json.RawMessage(`{"pubkey":"abc123","cached":true}`)}
	b := NewBridge(fake, logging.Nop())

	det, err := b.Detect(context.Background(), signableTab(), "abc123")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !det.Cached {
		t.Error("Cached = false, want true")
	}
	p, ok := fake.params.(detectParams)
	if !ok {
		t.Fatalf("params type = %T, want detectParams", fake.params)
	}
	if p.CachedPubkey != "abc123" {
		t.Errorf("CachedPubkey = %q, want %q", p.CachedPubkey, "abc123")
	}
}

func TestDetectIneligibleTab(t *testing.T) {
	b := NewBridge(&fakeCaller{}, logging.Nop())

	tab := browser.Tab{ID: 1, URL: "chrome://settings"}
	if _, err := b.Detect(context.Background(), tab, ""); !errors.Is(err, ErrTabNotSignable) {
		t.Errorf("Detect() error = %v, want ErrTabNotSignable", err)
	}
}

func TestDetectMapsPageErrors(t *testing.T) {
	cases := []struct {
		code string
		want Kind
	}{
		{"signer_not_found", KindNotFound},
		{"signer_incompatible", KindIncompatible},
		{"signer_denied", KindDenied},
		{"signer_rejected", KindRejected},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			fake := &fakeCaller{err: &bridge.CallError{Code: tc.code, Message: "nope"}}
			b := NewBridge(fake, logging.Nop())

			_, err := b.Detect(context.Background(), signableTab(), "")
			if !IsKind(err, tc.want) {
				t.Errorf("Detect() error = %v, want kind %v", err, tc.want)
			}
			var serr *Error
			if errors.As(err, &serr) && serr.Message != "nope" {
				t.Errorf("Message = %q, want page message preserved", serr.Message)
			}
		})
	}
}

func TestDetectEmptyResponse(t *testing.T) {
	fake := &fakeCaller{result: json.RawMessage(`{}`)}
	b := NewBridge(fake, logging.Nop())

	_, err := b.Detect(context.Background(), signableTab(), "")
	if !IsKind(err, KindNotFound) {
		t.Errorf("Detect() error = %v, want KindNotFound", err)
	}
}

func signedEvent(t *testing.T, content string) *nostr.Event {
	t.Helper()
	sk := nostr.GeneratePrivateKey()
	ev := &nostr.Event{
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{},
		Content:   content,
	}
	if err := ev.Sign(sk); err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	return ev
}

func TestSign(t *testing.T) {
	signed := signedEvent(t, "hello nostr")
	payload, err := json.Marshal(signResult{Event: signed, Pubkey: signed.PubKey})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	fake := &fakeCaller{result: payload}
	b := NewBridge(fake, logging.Nop())

	unsigned := &nostr.Event{
		CreatedAt: signed.CreatedAt,
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{},
		Content:   "hello nostr",
	}
	got, err := b.Sign(context.Background(), signableTab(), unsigned, "")
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if got.ID != signed.ID {
		t.Errorf("ID = %q, want %q", got.ID, signed.ID)
	}
	if fake.method != "nostr.signEvent" {
		t.Errorf("method = %q, want %q", fake.method, "nostr.signEvent")
	}
}

func TestSignRejectsTamperedEvent(t *testing.T) {
	signed := signedEvent(t, "hello nostr")
	signed.Content = "tampered"
	payload, err := json.Marshal(signResult{Event: signed, Pubkey: signed.PubKey})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b := NewBridge(&fakeCaller{result: payload}, logging.Nop())

	unsigned := &nostr.Event{Kind: nostr.KindTextNote, Tags: nostr.Tags{}, Content: "hello nostr"}
	_, err = b.Sign(context.Background(), signableTab(), unsigned, "")
	if !IsKind(err, KindIncompatible) {
		t.Errorf("Sign() error = %v, want KindIncompatible", err)
	}
}

func TestSignDenied(t *testing.T) {
	fake := &fakeCaller{err: &bridge.CallError{Code: "signer_denied", Message: "Signer extension denied the request."}}
	b := NewBridge(fake, logging.Nop())

	unsigned := &nostr.Event{Kind: nostr.KindTextNote, Tags: nostr.Tags{}, Content: "hi"}
	_, err := b.Sign(context.Background(), signableTab(), unsigned, "")
	if !IsKind(err, KindDenied) {
		t.Errorf("Sign() error = %v, want KindDenied", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	if _, ok := s.Get(); ok {
		t.Fatal("Get() on empty session reported state")
	}

	s.Update(7, "abc123")
	st, ok := s.Get()
	if !ok {
		t.Fatal("Get() after Update reported no state")
	}
	if st.Tab != 7 || st.Pubkey != "abc123" {
		t.Errorf("state = %+v, want tab 7 pubkey abc123", st)
	}
	if st.UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero")
	}

	s.Invalidate(9)
	if _, ok := s.Get(); !ok {
		t.Error("Invalidate of another tab cleared the session")
	}

	s.Invalidate(7)
	if _, ok := s.Get(); ok {
		t.Error("Invalidate of the session tab kept the session")
	}

	s.Update(3, "def456")
	s.Clear()
	if _, ok := s.Get(); ok {
		t.Error("Clear kept the session")
	}
}
