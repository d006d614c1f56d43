package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a status line on w until it is stopped or ctx ends.
type spinner struct {
	ctx     context.Context
	w       io.Writer
	message string

	quit     chan struct{}
	stopped  chan struct{}
	quitOnce sync.Once
}

// newSpinner creates a spinner on stderr.
func newSpinner(ctx context.Context, message string) *spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *spinner {
	return &spinner{
		ctx:     ctx,
		w:       w,
		message: message,
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start runs the animation in its own goroutine.
func (s *spinner) Start() {
	go s.run()
}

func (s *spinner) run() {
	defer close(s.stopped)
	defer s.clear()

	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.ctx.Done():
			return
		case <-s.quit:
			return
		case <-tick.C:
			glyph := spinnerFrames[frame%len(spinnerFrames)]
			fmt.Fprintf(s.w, "\r%s %s", theme[kindSpinner].Render(glyph), styleDim.Render(s.message))
		}
	}
}

// clear blanks the line the animation drew on.
func (s *spinner) clear() {
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

// Stop ends the animation and waits for the line to be cleared.
// Calling it again, or after ctx ended, is a no-op.
func (s *spinner) Stop() {
	s.quitOnce.Do(func() { close(s.quit) })
	<-s.stopped
}

// StopWithError stops the spinner and reports message as a failure.
func (s *spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's context ended.
func (s *spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
