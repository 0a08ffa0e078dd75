package keeper

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalHandler turns the first termination signal into an orderly
// shutdown: it closes its done channel and runs the registered callbacks.
type SignalHandler struct {
	done       chan struct{}
	signalChan chan os.Signal
	quit       chan struct{}
	stopOnce   sync.Once

	mu        sync.Mutex
	callbacks []func()
	once      sync.Once
}

// NewSignalHandler creates a SignalHandler listening for the given
// signals, or SIGINT and SIGTERM when none are given.
func NewSignalHandler(signals ...os.Signal) *SignalHandler {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	h := &SignalHandler{
		done:       make(chan struct{}),
		signalChan: make(chan os.Signal, 1),
		quit:       make(chan struct{}),
	}

	signal.Notify(h.signalChan, signals...)
	go h.listen()

	return h
}

// listen waits for a signal and triggers shutdown. It exits without
// shutting down when the handler is stopped first.
func (h *SignalHandler) listen() {
	select {
	case <-h.signalChan:
		h.Shutdown()
	case <-h.quit:
	}
}

// OnShutdown registers a callback to run on shutdown. Callbacks run in
// reverse registration order.
func (h *SignalHandler) OnShutdown(callback func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = append(h.callbacks, callback)
}

// Shutdown closes Done and runs every callback on the calling goroutine,
// once. Later calls return immediately.
func (h *SignalHandler) Shutdown() {
	h.once.Do(func() {
		close(h.done)

		h.mu.Lock()
		callbacks := append([]func(){}, h.callbacks...)
		h.mu.Unlock()

		for i := len(callbacks) - 1; i >= 0; i-- {
			callbacks[i]()
		}
	})
}

// Done returns a channel that is closed when shutdown is triggered.
func (h *SignalHandler) Done() <-chan struct{} {
	return h.done
}

// Stop stops listening for signals without running the callbacks.
func (h *SignalHandler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.signalChan)
		close(h.quit)
	})
}
