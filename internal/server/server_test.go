package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnagebitcoin/share-to-nostr/internal/bridge"
	"github.com/karnagebitcoin/share-to-nostr/internal/browser"
	"github.com/karnagebitcoin/share-to-nostr/internal/config"
	"github.com/karnagebitcoin/share-to-nostr/internal/draft"
	"github.com/karnagebitcoin/share-to-nostr/internal/logging"
	"github.com/karnagebitcoin/share-to-nostr/internal/publish"
	"github.com/karnagebitcoin/share-to-nostr/internal/relay"
	"github.com/karnagebitcoin/share-to-nostr/internal/signer"
	"github.com/karnagebitcoin/share-to-nostr/internal/store"
)

type acceptAllBroadcaster struct {
	urls []string
}

func (b *acceptAllBroadcaster) Broadcast(_ context.Context, urls []string, _ *nostr.Event) []relay.Result {
	b.urls = urls
	out := make([]relay.Result, len(urls))
	for i, url := range urls {
		out[i] = relay.Result{Relay: url, Status: relay.StatusAccepted, Message: "Accepted"}
	}
	return out
}

type testEnv struct {
	srv   *httptest.Server
	hub   *bridge.Hub
	store *store.Store
	bc    *acceptAllBroadcaster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	hub := bridge.NewHub(logging.Nop())
	session := signer.NewSession()
	sig := signer.NewBridge(hub, logging.Nop())
	bc := &acceptAllBroadcaster{}
	coord := publish.NewCoordinator(hub, sig, bc, session, logging.Nop())

	cfg := config.Default()
	s := New(cfg, hub, coord, st, logging.Nop())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, hub: hub, store: st, bc: bc}
}

// wireFrame mirrors the bridge's JSON frames from the page's side.
type wireFrame struct {
	Type   string          `json:"type"`
	Tab    *browser.Tab    `json:"tab,omitempty"`
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  any             `json:"error,omitempty"`
}

// attachSigningTab registers a tab on the bridge that answers signer
// calls with a real key pair.
func (env *testEnv) attachSigningTab(t *testing.T, tab browser.Tab) string {
	t.Helper()

	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/bridge"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(wireFrame{Type: "register", Tab: &tab}))

	go func() {
		for {
			var msg wireFrame
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != "request" {
				continue
			}

			resp := wireFrame{Type: "response", ID: msg.ID}
			switch msg.Method {
			case "nostr.detect":
				resp.Result = mustMarshal(map[string]any{"pubkey": pk, "cached": false})
			case "nostr.signEvent":
				var params struct {
					Event struct {
						Kind      int        `json:"kind"`
						CreatedAt int64      `json:"created_at"`
						Tags      nostr.Tags `json:"tags"`
						Content   string     `json:"content"`
					} `json:"event"`
				}
				if err := json.Unmarshal(msg.Params, &params); err != nil {
					return
				}
				ev := nostr.Event{
					CreatedAt: nostr.Timestamp(params.Event.CreatedAt),
					Kind:      params.Event.Kind,
					Tags:      params.Event.Tags,
					Content:   params.Event.Content,
				}
				if err := ev.Sign(sk); err != nil {
					return
				}
				resp.Result = mustMarshal(map[string]any{"event": ev, "pubkey": pk})
			default:
				continue
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}()

	waitForTabs(t, env.hub, 1)
	return pk
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func waitForTabs(t *testing.T, hub *bridge.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(hub.Tabs(context.Background())) == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d attached tabs", n)
}

func postJSON(t *testing.T, url string, body any) map[string]any {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestPublishEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	pk := env.attachSigningTab(t, browser.Tab{ID: 5, URL: "https://example.com", Title: "Example", Active: true})

	out := postJSON(t, env.srv.URL+"/api/publish", map[string]any{
		"content": "hello world",
		"relays":  []string{"wss://relay.damus.io"},
	})

	assert.Equal(t, true, out["ok"])
	assert.NotEmpty(t, out["eventId"])
	relays, _ := out["relays"].([]any)
	require.Len(t, relays, 1)

	// A follow-up check reuses the session's key.
	check := postJSON(t, env.srv.URL+"/api/check-signer", map[string]any{})
	assert.Equal(t, true, check["ok"])
	assert.Equal(t, pk, check["pubkey"])
}

func TestPublishValidation(t *testing.T) {
	env := newTestEnv(t)

	out := postJSON(t, env.srv.URL+"/api/publish", map[string]any{"content": "  "})
	assert.Equal(t, false, out["ok"])
	assert.Equal(t, "Post content is required.", out["error"])
	assert.Zero(t, len(env.bc.urls))
}

func TestPublishNoTab(t *testing.T) {
	env := newTestEnv(t)

	out := postJSON(t, env.srv.URL+"/api/publish", map[string]any{
		"content": "hi",
		"relays":  []string{"wss://relay.damus.io"},
	})
	assert.Equal(t, false, out["ok"])
	assert.Contains(t, out["error"], "signer extension")
}

func TestCheckSignerNoTab(t *testing.T) {
	env := newTestEnv(t)

	out := postJSON(t, env.srv.URL+"/api/check-signer", map[string]any{})
	assert.Equal(t, false, out["ok"])
	assert.Equal(t, "No suitable browser tab found for signer check.", out["error"])
}

func TestDraftLifecycle(t *testing.T) {
	env := newTestEnv(t)

	get, err := http.Get(env.srv.URL + "/api/draft")
	require.NoError(t, err)
	assert.Equal(t, 404, get.StatusCode)
	get.Body.Close()

	out := postJSON(t, env.srv.URL+"/api/draft", draft.Draft{Content: "a note"})
	assert.Equal(t, true, out["ok"])

	get, err = http.Get(env.srv.URL + "/api/draft")
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, 200, get.StatusCode)
	var loaded struct {
		Draft draft.Draft `json:"draft"`
	}
	require.NoError(t, json.NewDecoder(get.Body).Decode(&loaded))
	assert.Equal(t, "a note", loaded.Draft.Content)
	assert.NotEmpty(t, loaded.Draft.ID)
	assert.Equal(t, relay.DefaultRelays, loaded.Draft.Relays)

	req, err := http.NewRequest("DELETE", env.srv.URL+"/api/draft", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, 200, del.StatusCode)
}

func TestCapture(t *testing.T) {
	env := newTestEnv(t)
	env.attachSigningTab(t, browser.Tab{ID: 9, URL: "https://example.com/post", Title: "A Post", Active: true})

	out := postJSON(t, env.srv.URL+"/api/capture", map[string]any{
		"type":         "selection",
		"tabId":        9,
		"selectedText": "a quote",
	})
	require.Equal(t, true, out["ok"])

	d, ok := out["draft"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "\"a quote\"\n\nhttps://example.com/post", d["content"])
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	get, err := http.Get(env.srv.URL + "/api/settings")
	require.NoError(t, err)
	var loaded struct {
		Settings store.Settings `json:"settings"`
	}
	require.NoError(t, json.NewDecoder(get.Body).Decode(&loaded))
	get.Body.Close()
	assert.True(t, loaded.Settings.IncludeSourceURL)

	req, err := http.NewRequest("PATCH", env.srv.URL+"/api/settings",
		strings.NewReader(`{"includeSourceUrl":false}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var patched struct {
		Settings store.Settings `json:"settings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&patched))
	assert.False(t, patched.Settings.IncludeSourceURL)
}
