package port

import (
	"fmt"
	"net"
	"strconv"

	"github.com/shinji-kodama/portkeeper/internal/model"
)

// Reservation is the attempt to hold one port open.
//
// A Reservation starts Pending. bind moves it to Bound and takes ownership
// of the listening socket; release closes that socket. The listener never
// leaves this type, so nothing outside the Manager can close it behind the
// retry loop's back.
//
// A bound socket that is closed externally (for example by the OS) is not
// detected: the reservation stays Bound and is not retried.
type Reservation struct {
	port     int
	state    model.ReservationState
	listener net.Listener
}

// newReservation creates a pending reservation for port.
func newReservation(port int) *Reservation {
	return &Reservation{port: port, state: model.StatePending}
}

// bind makes a single attempt to listen on the wildcard address at the
// reserved port. It never retries. On failure nothing is retained: a
// failed net.Listen leaves no open socket behind.
//
// The socket is never accepted on; the kernel completes handshakes into
// the backlog but no connection is ever served.
func (r *Reservation) bind() error {
	if r.state == model.StateBound {
		return nil
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(r.port)))
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrBindFailed, err)
	}

	r.listener = ln
	r.state = model.StateBound
	return nil
}

// release closes the held socket. The reservation no longer owns a
// listener afterwards, even when Close reports an error.
func (r *Reservation) release() error {
	if r.listener == nil {
		return nil
	}

	err := r.listener.Close()
	r.listener = nil
	r.state = model.StatePending
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrReleaseFailed, err)
	}
	return nil
}
