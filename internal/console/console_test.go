package console

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shinji-kodama/portkeeper/internal/model"
)

func bindError() error {
	return fmt.Errorf("%w: %w", model.ErrBindFailed, &net.OpError{
		Op:  "listen",
		Net: "tcp",
		Err: os.NewSyscallError("bind", syscall.EADDRINUSE),
	})
}

// TestFormat checks the plain-text rendering for every event kind.
func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		event model.Event
		want  string
	}{
		{"bound", model.Event{Kind: model.EventBound, Port: 5000}, "+ 5000"},
		{"unbound", model.Event{Kind: model.EventUnbound, Port: 5000}, "- 5000"},
		{
			"bind failed shows syscall reason",
			model.Event{Kind: model.EventBindFailed, Port: 5001, Err: bindError()},
			"E 5001 : bind: address already in use",
		},
		{
			"release failed",
			model.Event{Kind: model.EventReleaseFailed, Port: 5002, Err: errors.New("use of closed network connection")},
			"E 5002 : use of closed network connection",
		},
		{"failure without error", model.Event{Kind: model.EventReleaseFailed, Port: 5003}, "E 5003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.event))
		})
	}
}

// TestSink_Streams verifies successes go to the output stream and
// failures to the error stream, one line each.
func TestSink_Streams(t *testing.T) {
	var out, errOut bytes.Buffer
	sink := New(&out, &errOut, false)

	sink.Notify(model.Event{Kind: model.EventBound, Port: 5000})
	sink.Notify(model.Event{Kind: model.EventBindFailed, Port: 5001, Err: bindError()})
	sink.Notify(model.Event{Kind: model.EventUnbound, Port: 5000})

	assert.Equal(t, "+ 5000\n- 5000\n", out.String())
	assert.Equal(t, "E 5001 : bind: address already in use\n", errOut.String())
}

// TestSink_Colored verifies colour wraps the text in escapes without
// changing it.
func TestSink_Colored(t *testing.T) {
	var out, errOut bytes.Buffer
	sink := New(&out, &errOut, true)

	sink.Notify(model.Event{Kind: model.EventBound, Port: 5000})

	assert.Contains(t, out.String(), "+ 5000")
	assert.Contains(t, out.String(), "\x1b[")
}
