package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Spinner displays a spinning animation during long operations.
type Spinner struct {
	message string
	frames  []string
	index   int
	done    chan struct{}
	wg      sync.WaitGroup
	writer  io.Writer
	active  bool
	mu      sync.Mutex
}

// DefaultFrames are the default spinner animation frames.
var DefaultFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SimpleFrames are simple ASCII spinner frames.
var SimpleFrames = []string{"|", "/", "-", "\\"}

// NewSpinner creates a new spinner with a message.
func NewSpinner(message string) *Spinner {
	frames := DefaultFrames
	if NoColor {
		frames = SimpleFrames
	}

	return &Spinner{
		message: message,
		frames:  frames,
		writer:  os.Stderr,
		done:    make(chan struct{}),
	}
}

// Start begins the spinner animation. No-op in quiet mode.
func (s *Spinner) Start() {
	if QuietMode {
		return
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				frame := s.frames[s.index]
				s.index = (s.index + 1) % len(s.frames)
				msg := s.message
				s.mu.Unlock()

				fmt.Fprintf(s.writer, "\r%s %s", frame, msg)
			}
		}
	}()
}

// Stop halts the animation and clears the spinner line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	fmt.Fprintf(s.writer, "\r%s\r", fmt.Sprintf("%*s", len(s.message)+2, ""))
}

// SetMessage updates the message shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}
