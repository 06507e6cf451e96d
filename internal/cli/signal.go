package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalHandler manages graceful shutdown and signal handling.
type SignalHandler struct {
	ctx        context.Context
	cancel     context.CancelFunc
	sigCh      chan os.Signal
	shutdownCh chan struct{}
	once       sync.Once
}

// NewSignalHandler creates a new signal handler with a cancellable context.
func NewSignalHandler() *SignalHandler {
	ctx, cancel := context.WithCancel(context.Background())

	h := &SignalHandler{
		ctx:        ctx,
		cancel:     cancel,
		sigCh:      make(chan os.Signal, 1),
		shutdownCh: make(chan struct{}),
	}

	signal.Notify(h.sigCh, syscall.SIGINT, syscall.SIGTERM)

	go h.watch()

	return h
}

// Context returns the handler's context, which is cancelled on shutdown.
func (h *SignalHandler) Context() context.Context {
	return h.ctx
}

// ShutdownCh returns a channel that's closed when shutdown is triggered.
func (h *SignalHandler) ShutdownCh() <-chan struct{} {
	return h.shutdownCh
}

// Shutdown triggers a graceful shutdown.
func (h *SignalHandler) Shutdown() {
	h.once.Do(func() {
		close(h.shutdownCh)
		h.cancel()
	})
}

// watch monitors for signals and triggers shutdown.
func (h *SignalHandler) watch() {
	for {
		select {
		case <-h.sigCh:
			select {
			case <-h.shutdownCh:
				// Already shutting down, force exit on second signal
				fmt.Fprintln(os.Stderr, "\nForce quit")
				os.Exit(130)
			default:
				fmt.Fprintln(os.Stderr, "\nInterrupted")
				h.Shutdown()
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// Stop releases resources and stops watching for signals.
func (h *SignalHandler) Stop() {
	signal.Stop(h.sigCh)
	close(h.sigCh)
}
