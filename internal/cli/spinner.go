package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const spinnerFrames = "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏"

// Spinner animates a progress indicator on stderr until stopped or the
// context is cancelled.
type Spinner struct {
	mu      sync.Mutex
	message string

	ctx     context.Context
	stop    context.CancelFunc
	drained chan struct{}
	once    sync.Once
}

// newSpinnerWithContext creates a spinner bound to ctx.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		ctx:     sctx,
		stop:    cancel,
		drained: make(chan struct{}),
	}
}

// SetMessage swaps the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Start begins the animation in a background goroutine.
func (s *Spinner) Start() {
	frames := []rune(spinnerFrames)
	go func() {
		defer close(s.drained)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.mu.Lock()
				msg := s.message
				s.mu.Unlock()
				frame := string(frames[i%len(frames)])
				fmt.Fprintf(os.Stderr, "\r%s %s",
					styleIconSpinner.Render(frame), StyleDim.Render(msg))
			}
		}
	}()
}

// Stop halts the animation and clears the line. Safe to call more than
// once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.stop()
		<-s.drained
	})
}

// StopWithError stops the spinner and prints an error line in its place.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	width := len(s.message) + 4
	s.mu.Unlock()
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", width))
}
