// Package console renders reservation events as the one-line console
// records operators watch:
//
//	+ 5000                                  (stdout, port bound)
//	- 5000                                  (stdout, port released)
//	E 5001 : bind: address already in use   (stderr, failure)
//
// Colour is optional and never changes the text, only wraps it in ANSI
// escapes.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/shinji-kodama/portkeeper/internal/model"
	"github.com/shinji-kodama/portkeeper/internal/port"
)

// Sink writes events to an output and an error stream. It implements
// model.EventSink and is safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer

	bound   *color.Color
	unbound *color.Color
	failed  *color.Color
}

// New creates a Sink writing successes to out and failures to errOut.
// When colored is false the output is plain text regardless of the
// terminal.
func New(out, errOut io.Writer, colored bool) *Sink {
	s := &Sink{
		out:     out,
		errOut:  errOut,
		bound:   color.New(color.FgGreen),
		unbound: color.New(color.FgYellow),
		failed:  color.New(color.FgRed),
	}
	if colored {
		// color.NoColor is decided once from stdout; an explicit request
		// from the caller wins over that global guess.
		s.bound.EnableColor()
		s.unbound.EnableColor()
		s.failed.EnableColor()
	} else {
		s.bound.DisableColor()
		s.unbound.DisableColor()
		s.failed.DisableColor()
	}
	return s
}

// Notify renders one event.
func (s *Sink) Notify(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case model.EventBound:
		_, _ = s.bound.Fprintln(s.out, Format(e))
	case model.EventUnbound:
		_, _ = s.unbound.Fprintln(s.out, Format(e))
	default:
		_, _ = s.failed.Fprintln(s.errOut, Format(e))
	}
}

// Format renders an event as plain text. Failure reasons are shortened to
// the syscall description (see port.DescribeError).
func Format(e model.Event) string {
	if e.Kind.IsFailure() && e.Err != nil {
		return fmt.Sprintf("%s %d : %s", e.Kind.Symbol(), e.Port, port.DescribeError(e.Err))
	}
	return fmt.Sprintf("%s %d", e.Kind.Symbol(), e.Port)
}
