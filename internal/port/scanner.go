package port

import (
	"net"
	"strconv"
)

// Scanner checks whether ports are free on the host right now, without
// keeping them. It is what the "check" command uses to report on a
// configured set before (or instead of) running the keeper.
//
// It asks the operating system directly by binding and immediately closing
// a listener, rather than parsing /proc/net/* or shelling out to lsof/ss,
// which may require elevated permissions.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Probe attempts to bind port on all interfaces and closes the listener
// straight away. It returns nil when the port is free, or the bind error
// (address in use, permission denied) otherwise.
//
// We bind to ":port" rather than "127.0.0.1:port" because the keeper holds
// ports on the wildcard address; checking a narrower address could report
// a port as free that the keeper cannot take.
func (s *Scanner) Probe(port int) error {
	listener, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return err
	}
	return listener.Close()
}

// Availability is the result of probing a single port.
type Availability struct {
	Port int `json:"port"`

	// Free is true when the port could be bound.
	Free bool `json:"free"`

	// Reason is the bind error for ports that are not free.
	Reason string `json:"reason,omitempty"`

	// Owner names the container publishing the port, when known.
	Owner string `json:"owner,omitempty"`
}

// Scan probes every port in order and returns one Availability per port.
func (s *Scanner) Scan(ports []int) []Availability {
	result := make([]Availability, 0, len(ports))
	for _, p := range ports {
		a := Availability{Port: p, Free: true}
		if err := s.Probe(p); err != nil {
			a.Free = false
			a.Reason = DescribeError(err)
		}
		result = append(result, a)
	}
	return result
}
