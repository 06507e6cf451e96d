// Package bridge connects the daemon to signer capabilities living
// inside browser pages. Tabs attach over a local WebSocket endpoint and
// answer correlated request/response calls; the hub doubles as the tab
// directory used during signer resolution.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/karnagebitcoin/share-to-nostr/internal/browser"
	"github.com/karnagebitcoin/share-to-nostr/internal/logging"
)

// writeWait bounds a single frame write to a slow tab.
const writeWait = 10 * time.Second

// wireMessage is the frame format spoken on a bridge connection.
type wireMessage struct {
	Type   string          `json:"type"` // register, update, request, response
	Tab    *browser.Tab    `json:"tab,omitempty"`
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *CallError      `json:"error,omitempty"`
}

// CallError is an error reported by the page for one call. Code is a
// machine-readable token the signer layer maps onto its taxonomy;
// Message is whatever the page-side capability said.
type CallError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CallError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

type callResult struct {
	result json.RawMessage
	err    error
}

// pendingCall tracks one in-flight request so a detaching tab can fail
// it instead of leaving the caller blocked until its context expires.
type pendingCall struct {
	tab browser.TabID
	ch  chan callResult
}

// tabConn is one attached tab.
type tabConn struct {
	tab  browser.Tab
	send chan wireMessage
}

// Hub owns all attached tabs and routes calls to them.
type Hub struct {
	log      logging.Logger
	upgrader websocket.Upgrader

	mu        sync.Mutex
	tabs      map[browser.TabID]*tabConn
	order     []browser.TabID // most recently attached first
	pending   map[string]pendingCall
	nextLocal browser.TabID
}

// NewHub creates an empty hub.
func NewHub(log logging.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			// The endpoint binds to loopback only; pages served by the
			// daemon and extension contexts carry non-matching origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		tabs:    make(map[browser.TabID]*tabConn),
		pending: make(map[string]pendingCall),
	}
}

// ServeWS upgrades an HTTP request to a bridge connection. The first
// frame must be a register message carrying the tab snapshot; a zero
// tab ID means the page has no extension-assigned ID and gets a
// hub-local one.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "bridge upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	var reg wireMessage
	if err := conn.ReadJSON(&reg); err != nil || reg.Type != "register" || reg.Tab == nil {
		h.log.Warn(r.Context(), "bridge connection did not register", "err", err)
		return
	}

	tc := &tabConn{tab: *reg.Tab, send: make(chan wireMessage, 8)}
	id := h.attach(tc)
	defer h.detach(id, tc)

	h.log.Info(r.Context(), "tab attached", "tab", id, "url", tc.tab.URL)

	done := make(chan struct{})
	go h.writeLoop(conn, tc, done)
	h.readLoop(conn, id, tc)
	close(done)

	h.log.Info(r.Context(), "tab detached", "tab", id)
}

func (h *Hub) attach(tc *tabConn) browser.TabID {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := tc.tab.ID
	if id == 0 {
		h.nextLocal--
		id = h.nextLocal
		tc.tab.ID = id
	}
	h.tabs[id] = tc
	// A page reconnecting with the same extension-assigned ID must not
	// leave a second order entry behind.
	h.removeFromOrder(id)
	h.order = append([]browser.TabID{id}, h.order...)
	return id
}

// detach tears down a connection's registration. The owner check keeps
// a stale connection dying after a reconnect from removing the entry
// that now belongs to the newer one.
func (h *Hub) detach(id browser.TabID, tc *tabConn) {
	h.mu.Lock()
	if h.tabs[id] == tc {
		delete(h.tabs, id)
		h.removeFromOrder(id)
		// Fail the tab's in-flight calls so callers settle now rather
		// than on context expiry.
		for reqID, pc := range h.pending {
			if pc.tab != id {
				continue
			}
			delete(h.pending, reqID)
			pc.ch <- callResult{err: browser.ErrTabNotFound}
		}
	}
	h.mu.Unlock()
}

// removeFromOrder drops id from the recency order. Caller holds h.mu.
func (h *Hub) removeFromOrder(id browser.TabID) {
	for i, o := range h.order {
		if o == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, tc *tabConn, done <-chan struct{}) {
	for {
		select {
		case msg := <-tc.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) readLoop(conn *websocket.Conn, id browser.TabID, tc *tabConn) {
	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "update":
			if msg.Tab == nil {
				continue
			}
			h.mu.Lock()
			if h.tabs[id] == tc {
				snap := *msg.Tab
				snap.ID = id
				tc.tab = snap
			}
			h.mu.Unlock()

		case "response":
			h.mu.Lock()
			pc, ok := h.pending[msg.ID]
			if ok {
				delete(h.pending, msg.ID)
			}
			h.mu.Unlock()
			if !ok {
				continue // late or unknown response
			}
			if msg.Error != nil {
				pc.ch <- callResult{err: msg.Error}
			} else {
				pc.ch <- callResult{result: msg.Result}
			}
		}
	}
}

// Call sends one request into the page context of the given tab and
// waits for the correlated response. Page-reported failures come back
// as *CallError; a missing tab yields browser.ErrTabNotFound.
func (h *Hub) Call(ctx context.Context, tab browser.TabID, method string, params any) (json.RawMessage, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode call params: %w", err)
	}

	id := uuid.NewString()
	ch := make(chan callResult, 1)

	h.mu.Lock()
	tc, ok := h.tabs[tab]
	if !ok {
		h.mu.Unlock()
		return nil, browser.ErrTabNotFound
	}
	h.pending[id] = pendingCall{tab: tab, ch: ch}
	h.mu.Unlock()

	msg := wireMessage{Type: "request", ID: id, Method: method, Params: raw}
	select {
	case tc.send <- msg:
	case <-ctx.Done():
		h.abandon(id)
		return nil, ctx.Err()
	}

	select {
	case res := <-ch:
		return res.result, res.err
	case <-ctx.Done():
		h.abandon(id)
		return nil, ctx.Err()
	}
}

func (h *Hub) abandon(id string) {
	h.mu.Lock()
	delete(h.pending, id)
	h.mu.Unlock()
}

// Tab implements browser.Directory.
func (h *Hub) Tab(_ context.Context, id browser.TabID) (browser.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if tc, ok := h.tabs[id]; ok {
		return tc.tab, nil
	}
	return browser.Tab{}, browser.ErrTabNotFound
}

// ActiveTab implements browser.Directory.
func (h *Hub) ActiveTab(_ context.Context) (browser.Tab, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range h.order {
		if tc := h.tabs[id]; tc != nil && tc.tab.Active {
			return tc.tab, true
		}
	}
	return browser.Tab{}, false
}

// Tabs implements browser.Directory.
func (h *Hub) Tabs(_ context.Context) []browser.Tab {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]browser.Tab, 0, len(h.order))
	for _, id := range h.order {
		if tc := h.tabs[id]; tc != nil {
			out = append(out, tc.tab)
		}
	}
	return out
}

// WaitForTab blocks until a signable tab is attached, then returns it.
func (h *Hub) WaitForTab(ctx context.Context) (browser.Tab, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		for _, tab := range h.Tabs(ctx) {
			if tab.Signable() {
				return tab, nil
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return browser.Tab{}, ctx.Err()
		}
	}
}
