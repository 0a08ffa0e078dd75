package port

import (
	"sync"

	"github.com/shinji-kodama/portkeeper/internal/model"
)

// Manager owns every Reservation and the listening sockets behind them.
//
// Reservations live in exactly one of two partitions: bound (socket held)
// or pending (waiting for the next retry pass). Both partitions keep the
// order ports were first requested in.
//
// All methods are safe for concurrent use. RetryPending holds the lock for
// the whole pass, so a ClearPending issued from a shutdown path waits for
// an in-flight pass and no bind attempt starts after it returns.
type Manager struct {
	sink model.EventSink

	mu      sync.Mutex
	bound   []*Reservation
	pending []*Reservation
}

// NewManager creates an empty Manager that reports events to sink.
// A nil sink discards events.
func NewManager(sink model.EventSink) *Manager {
	if sink == nil {
		sink = model.DiscardEvents
	}
	return &Manager{sink: sink}
}

// ReserveAll makes one bind attempt for each port, in order. Successes
// become bound reservations and failures become pending ones. Initial
// failures are reported as EventBindFailed.
//
// Ports the manager already tracks are skipped.
func (m *Manager) ReserveAll(ports []int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tracked := make(map[int]struct{}, len(m.bound)+len(m.pending)+len(ports))
	for _, r := range m.bound {
		tracked[r.port] = struct{}{}
	}
	for _, r := range m.pending {
		tracked[r.port] = struct{}{}
	}

	for _, p := range ports {
		if _, ok := tracked[p]; ok {
			continue
		}
		tracked[p] = struct{}{}
		r := newReservation(p)
		if m.bind(r, true) {
			m.bound = append(m.bound, r)
		} else {
			m.pending = append(m.pending, r)
		}
	}
}

// RetryPending makes one bind attempt for each pending reservation in
// order. A success moves the reservation to the bound partition; a failure
// leaves it pending and is not reported, since repeated failure is the
// normal state while waiting for a port to be freed.
func (m *Manager) RetryPending() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		return
	}

	still := m.pending[:0]
	for _, r := range m.pending {
		if m.bind(r, false) {
			m.bound = append(m.bound, r)
			continue
		}
		still = append(still, r)
	}
	// Clear the tail so dropped reservations are not kept alive by the
	// backing array.
	for i := len(still); i < len(m.pending); i++ {
		m.pending[i] = nil
	}
	m.pending = still
}

// ReleaseAll closes every bound socket in bind order, reporting
// EventUnbound per port, and clears both partitions. A socket that fails
// to close is reported as EventReleaseFailed and the remaining sockets are
// still closed. Calling ReleaseAll on an empty manager does nothing.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.bound {
		if err := r.release(); err != nil {
			m.sink.Notify(model.Event{Kind: model.EventReleaseFailed, Port: r.port, Err: err})
			continue
		}
		m.sink.Notify(model.Event{Kind: model.EventUnbound, Port: r.port})
	}
	m.bound = nil
	m.pending = nil
}

// ClearPending drops every pending reservation without trying to bind it.
func (m *Manager) ClearPending() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = nil
}

// Bound returns the currently bound ports in bind order.
func (m *Manager) Bound() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return ports(m.bound)
}

// Pending returns the ports still waiting to be bound, in retry order.
func (m *Manager) Pending() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return ports(m.pending)
}

// bind runs the single-attempt bind for r and reports the outcome.
// report controls whether a failure is emitted: true for the initial
// pass, false for retries.
func (m *Manager) bind(r *Reservation, report bool) bool {
	if err := r.bind(); err != nil {
		if report {
			m.sink.Notify(model.Event{Kind: model.EventBindFailed, Port: r.port, Err: err})
		}
		return false
	}
	m.sink.Notify(model.Event{Kind: model.EventBound, Port: r.port})
	return true
}

func ports(rs []*Reservation) []int {
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.port)
	}
	return out
}
