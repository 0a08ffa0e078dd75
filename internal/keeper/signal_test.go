package keeper

import (
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closed reports whether ch is closed without blocking.
func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// TestSignalHandler_ShutdownOrder verifies callbacks run once, in reverse
// registration order, and Done is closed.
func TestSignalHandler_ShutdownOrder(t *testing.T) {
	h := NewSignalHandler(syscall.SIGUSR1)
	defer h.Stop()

	var mu sync.Mutex
	var order []int
	for i := 1; i <= 3; i++ {
		h.OnShutdown(func() {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, i)
		})
	}

	h.Shutdown()
	h.Shutdown()

	assert.Equal(t, []int{3, 2, 1}, order)
	assert.True(t, closed(h.Done()))
}

// TestSignalHandler_Signal verifies a delivered signal triggers shutdown.
func TestSignalHandler_Signal(t *testing.T) {
	h := NewSignalHandler(syscall.SIGUSR1)
	defer h.Stop()

	called := make(chan struct{})
	h.OnShutdown(func() { close(called) })

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case <-called:
	case <-time.After(shortWait):
		t.Fatal("shutdown callback not called after signal")
	}
	<-h.Done()
}

// TestSignalHandler_StopDoesNotShutdown verifies Stop detaches the handler
// without running callbacks.
func TestSignalHandler_StopDoesNotShutdown(t *testing.T) {
	h := NewSignalHandler(syscall.SIGUSR2)

	called := false
	h.OnShutdown(func() { called = true })
	h.Stop()
	h.Stop()

	assert.False(t, called)
	assert.False(t, closed(h.Done()))
}

// TestSignalHandler_StopsController wires the handler to a controller the
// way the run command does.
func TestSignalHandler_StopsController(t *testing.T) {
	h := NewSignalHandler(syscall.SIGUSR1)
	defer h.Stop()

	f := &fakeReserver{}
	c := New(f)
	require.NoError(t, c.Start(portsSource(5000)))
	h.OnShutdown(c.Stop)

	h.Shutdown()

	assert.Equal(t, StateStopped, c.State())
	assert.Equal(t, 1, f.count("release"))
}
