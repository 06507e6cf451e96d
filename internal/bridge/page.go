package bridge

import (
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
)

// ServePage serves the fallback bridge page. Opening it in a browser
// with a NIP-07 extension installed attaches the page itself as a
// signable tab, so publishing works without the companion extension.
func (h *Hub) ServePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(bridgeHTML))
}

// OpenBrowser opens the given URL in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

// bridgeHTML registers the page on the bridge and proxies window.nostr
// calls. Error codes must stay in sync with the signer package.
const bridgeHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>share-to-nostr - Signer Bridge</title>
  <style>
    * { box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      max-width: 640px;
      margin: 0 auto;
      padding: 24px;
      background: #12131a;
      color: #e4e6f0;
      line-height: 1.5;
    }
    h1 { color: #b18bf4; margin-bottom: 8px; }
    .subtitle { color: #8a8fa8; margin-bottom: 24px; }
    .status {
      padding: 16px;
      border-radius: 8px;
      margin-bottom: 16px;
      border: 1px solid #2c2e40;
      background: #1a1c28;
    }
    .status.good { border-color: #7c5cd6; color: #c9b4f6; }
    .status.bad { border-color: #99313c; color: #f3a0aa; }
    code { background: #0d0e14; padding: 2px 6px; border-radius: 4px; }
  </style>
</head>
<body>
  <h1>share-to-nostr</h1>
  <p class="subtitle">This page bridges your NIP-07 extension to the local daemon.</p>
  <div id="status" class="status">Connecting to daemon...</div>
  <p>Keep this tab open while publishing. Signing requests from the
  daemon will prompt through your extension here.</p>

  <script type="module">
    const statusEl = document.getElementById('status');
    const setStatus = (text, cls) => {
      statusEl.textContent = text;
      statusEl.className = 'status' + (cls ? ' ' + cls : '');
    };

    async function waitForNostr(timeout = 4000) {
      const start = Date.now();
      while (Date.now() - start < timeout) {
        if (window.nostr) return true;
        await new Promise(r => setTimeout(r, 100));
      }
      return !!window.nostr;
    }

    function hasMethods() {
      return typeof window.nostr.getPublicKey === 'function'
        && typeof window.nostr.signEvent === 'function';
    }

    async function handle(method, params) {
      if (!window.nostr) {
        return { error: { code: 'signer_not_found', message: 'NIP-07 signer was not detected in this tab.' } };
      }
      if (!hasMethods()) {
        return { error: { code: 'signer_incompatible', message: 'Signer is present but missing required NIP-07 methods.' } };
      }

      if (method === 'nostr.detect') {
        if (params.cachedPubkey) {
          return { result: { pubkey: params.cachedPubkey, cached: true } };
        }
        try {
          const pubkey = await window.nostr.getPublicKey();
          return { result: { pubkey: pubkey, cached: false } };
        } catch (e) {
          return { error: { code: 'signer_denied', message: e?.message || 'Signer did not grant public key access.' } };
        }
      }

      if (method === 'nostr.signEvent') {
        try {
          const pubkey = params.cachedPubkey || (await window.nostr.getPublicKey());
          const signed = await window.nostr.signEvent({ ...params.event, pubkey: pubkey });
          return { result: { event: signed, pubkey: pubkey } };
        } catch (e) {
          return { error: { code: 'signer_rejected', message: e?.message || 'Signer request was rejected.' } };
        }
      }

      return { error: { code: 'unknown_method', message: 'Unknown method: ' + method } };
    }

    await waitForNostr();

    const ws = new WebSocket('ws://' + location.host + '/bridge');
    ws.addEventListener('open', () => {
      ws.send(JSON.stringify({
        type: 'register',
        tab: { id: 0, url: location.href, title: document.title, active: true }
      }));
      setStatus(window.nostr
        ? 'Connected. Signer extension detected.'
        : 'Connected, but no NIP-07 extension was detected.', window.nostr ? 'good' : 'bad');
    });
    ws.addEventListener('close', () => setStatus('Daemon connection closed. You can close this tab.', 'bad'));
    ws.addEventListener('message', async (ev) => {
      let msg;
      try { msg = JSON.parse(ev.data); } catch { return; }
      if (msg.type !== 'request') return;
      const out = await handle(msg.method, msg.params || {});
      ws.send(JSON.stringify({ type: 'response', id: msg.id, ...out }));
    });
  </script>
</body>
</html>`
