package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nbd-wtf/go-nostr"

	"github.com/karnagebitcoin/share-to-nostr/internal/logging"
)

const (
	// AckTimeout bounds one relay's whole submission, connect included.
	AckTimeout = 9 * time.Second

	handshakeTimeout = 5 * time.Second
)

// Status is a relay's verdict on one event submission.
type Status string

const (
	// StatusAccepted means the relay acknowledged the event as stored.
	StatusAccepted Status = "accepted"
	// StatusRejected means the relay acknowledged but refused the event.
	StatusRejected Status = "rejected"
	// StatusFailed means no acknowledgement arrived at all.
	StatusFailed Status = "failed"
)

// Result is the outcome of submitting one event to one relay. Message
// carries the relay's own words for rejections and a fixed description
// for transport failures.
type Result struct {
	Relay   string `json:"relay"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Accepted reports whether the relay stored the event.
func (r Result) Accepted() bool { return r.Status == StatusAccepted }

// Publisher submits signed events to relays and collects their
// acknowledgements. Each submission gets its own connection; nothing is
// pooled or retried.
type Publisher struct {
	timeout time.Duration
	dialer  *websocket.Dialer
	log     logging.Logger
}

// NewPublisher creates a publisher with the default acknowledgement
// timeout.
func NewPublisher(log logging.Logger) *Publisher {
	return &Publisher{
		timeout: AckTimeout,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
		log: log,
	}
}

// Broadcast submits the event to every relay concurrently and returns
// one result per relay, in input order. It never fails as a whole; each
// relay's outcome stands on its own.
func (p *Publisher) Broadcast(ctx context.Context, urls []string, event *nostr.Event) []Result {
	results := make([]Result, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			results[i] = p.Publish(ctx, url, event)
		}(i, url)
	}
	wg.Wait()

	return results
}

// Publish submits the event to a single relay and waits for its OK
// acknowledgement. Unrelated frames and malformed frames are skipped;
// only an OK naming this event's ID terminates the wait.
func (p *Publisher) Publish(ctx context.Context, url string, event *nostr.Event) Result {
	result := Result{Relay: url}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, _, err := p.dialer.DialContext(ctx, url, nil)
	if err != nil {
		p.log.Debug(ctx, "relay dial failed", "relay", url, "err", err)
		result.Status = StatusFailed
		result.Message = "Relay connection failed."
		return result
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)

	frame, err := json.Marshal([]any{"EVENT", event})
	if err != nil {
		result.Status = StatusFailed
		result.Message = "Relay connection failed."
		return result
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		result.Status = StatusFailed
		result.Message = classify(err)
		return result
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			result.Status = StatusFailed
			result.Message = classify(err)
			return result
		}

		ok, accepted, message := parseOK(data, event.ID)
		if !ok {
			continue
		}
		if accepted {
			result.Status = StatusAccepted
			if message == "" {
				message = "Accepted"
			}
		} else {
			result.Status = StatusRejected
			if message == "" {
				message = "Rejected by relay"
			}
		}
		result.Message = message
		return result
	}
}

// parseOK extracts an OK acknowledgement for the given event ID.
// Anything else, including OKs for other events and frames that do not
// parse, reports ok=false.
func parseOK(data []byte, eventID string) (ok, accepted bool, message string) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil || len(frame) < 3 {
		return false, false, ""
	}

	var label string
	if err := json.Unmarshal(frame[0], &label); err != nil || label != "OK" {
		return false, false, ""
	}

	var id string
	if err := json.Unmarshal(frame[1], &id); err != nil || id != eventID {
		return false, false, ""
	}

	if err := json.Unmarshal(frame[2], &accepted); err != nil {
		return false, false, ""
	}

	if len(frame) > 3 {
		// A non-string message field is tolerated and ignored.
		_ = json.Unmarshal(frame[3], &message)
	}
	return true, accepted, message
}

// classify maps a transport error to the fixed failure description.
func classify(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Timed out waiting for relay response."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timed out waiting for relay response."
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "Relay closed before acknowledging event."
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return "Relay closed before acknowledging event."
	}
	return "Relay connection failed."
}
