package signer

import (
	"sync"
	"time"

	"github.com/karnagebitcoin/share-to-nostr/internal/browser"
)

// Session remembers the most recent tab that successfully hosted a
// signer, together with the public key it produced. There is exactly
// one session per daemon; later successes overwrite earlier ones.
type Session struct {
	mu        sync.Mutex
	tab       browser.TabID
	pubkey    string
	updatedAt time.Time
	set       bool
}

// State is a snapshot of the remembered session.
type State struct {
	Tab       browser.TabID
	Pubkey    string
	UpdatedAt time.Time
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Get returns the current session state, if any.
func (s *Session) Get() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return State{}, false
	}
	return State{Tab: s.tab, Pubkey: s.pubkey, UpdatedAt: s.updatedAt}, true
}

// Update records a successful signer interaction on the given tab.
func (s *Session) Update(tab browser.TabID, pubkey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = tab
	s.pubkey = pubkey
	s.updatedAt = time.Now()
	s.set = true
}

// Invalidate forgets the session if it currently points at the given
// tab. Sessions for other tabs are left alone.
func (s *Session) Invalidate(tab browser.TabID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set && s.tab == tab {
		s.set = false
		s.tab = 0
		s.pubkey = ""
		s.updatedAt = time.Time{}
	}
}

// Clear forgets the session unconditionally.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = false
	s.tab = 0
	s.pubkey = ""
	s.updatedAt = time.Time{}
}
