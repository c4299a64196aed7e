package ui

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// maxLine caps the redrawn message. Progress messages carry full listing URLs;
// a line wider than the terminal wraps and breaks the carriage-return redraw.
const maxLine = 120

// Spinner displays an animated progress indicator on stderr. It is restarted
// between crawl phases, so Start on a running spinner replaces the current
// animation instead of leaking it.
type Spinner struct {
	mu   sync.Mutex
	msg  string
	done chan struct{}
}

func NewSpinner() *Spinner {
	return &Spinner{}
}

// Start begins (or restarts) the animation with the given message.
func (s *Spinner) Start(msg string) {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
	}
	s.msg = msg
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.run(done)
}

// Update changes the spinner message while it's running.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop halts the spinner and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()

	fmt.Fprintf(os.Stderr, "\r\033[K")
}

func (s *Spinner) run(done <-chan struct{}) {
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	i := 0
	for {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			msg := s.msg
			s.mu.Unlock()
			fmt.Fprintf(os.Stderr, "\r\033[K%c %s", frames[i%len(frames)], truncate(msg))
			i++
		}
	}
}

func truncate(msg string) string {
	runes := []rune(msg)
	if len(runes) <= maxLine {
		return msg
	}
	return string(runes[:maxLine-3]) + "..."
}
