// Package model defines the domain types for portkeeper.
//
// These types are shared between the port resolver, the reservation
// manager, the lifecycle controller and the CLI. Nothing here is persisted:
// the reserved set is rebuilt from configuration on every start.
package model

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MinPort is the lowest port number that can be reserved.
	MinPort = 1

	// MaxPort is the highest valid TCP port number (2^16 - 1).
	MaxPort = 65535
)

// Sentinel errors classify every failure portkeeper can report. Callers
// wrap them with fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrConfigurationUnavailable means the configuration source could not
	// be read or parsed, or is missing the required "ports" key. Fatal at
	// startup: no port is reserved.
	ErrConfigurationUnavailable = errors.New("configuration unavailable")

	// ErrInvalidSpecification means a port or range token failed to parse.
	// Fatal at startup, same outcome as ErrConfigurationUnavailable.
	ErrInvalidSpecification = errors.New("invalid port specification")

	// ErrBindFailed is a transient, per-port failure. Never fatal.
	ErrBindFailed = errors.New("bind failed")

	// ErrReleaseFailed means closing a held socket failed. Reported, but
	// release of the remaining sockets continues.
	ErrReleaseFailed = errors.New("release failed")
)

// PortSpec is the textual specification of the ports to reserve, exactly
// as it appears under the "ports" and "ports.exclude" configuration keys.
type PortSpec struct {
	// Include is a comma-separated list of ports and inclusive ranges,
	// e.g. "5000-5010,6000". Required.
	Include string `json:"ports" yaml:"ports"`

	// Exclude lists ports and ranges removed from Include. Optional.
	Exclude string `json:"ports.exclude,omitempty" yaml:"ports.exclude,omitempty"`
}

// IsEmpty reports whether no include specification was given.
func (s PortSpec) IsEmpty() bool {
	return strings.TrimSpace(s.Include) == ""
}

// ReservationState is the lifecycle state of a single port reservation.
//
//	[Pending] → Bound → (released)
type ReservationState string

const (
	// StatePending means the port could not be bound yet and is waiting
	// for the next retry pass.
	StatePending ReservationState = "pending"

	// StateBound means a listening socket is held open on the port.
	StateBound ReservationState = "bound"
)

// String returns the string representation of ReservationState.
func (s ReservationState) String() string {
	return string(s)
}

// EventKind identifies what happened to a reservation.
type EventKind int

const (
	// EventBound is emitted when a port is successfully bound.
	EventBound EventKind = iota

	// EventUnbound is emitted when a held socket is closed on release.
	EventUnbound

	// EventBindFailed is emitted when the initial bind attempt fails.
	// Retries never emit it.
	EventBindFailed

	// EventReleaseFailed is emitted when closing a held socket fails.
	EventReleaseFailed
)

// Symbol returns the console prefix for the event kind: "+", "-" or "E".
func (k EventKind) Symbol() string {
	switch k {
	case EventBound:
		return "+"
	case EventUnbound:
		return "-"
	default:
		return "E"
	}
}

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventBound:
		return "bound"
	case EventUnbound:
		return "unbound"
	case EventBindFailed:
		return "bind-failed"
	case EventReleaseFailed:
		return "release-failed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// IsFailure reports whether the event describes an error.
func (k EventKind) IsFailure() bool {
	return k == EventBindFailed || k == EventReleaseFailed
}

// Event is a notification about one port changing state. It is the only
// thing the reservation manager tells the outside world.
type Event struct {
	Kind EventKind
	Port int

	// Err is set for EventBindFailed and EventReleaseFailed.
	Err error
}

// EventSink receives reservation events. Implementations render them
// (console output) or record them (tests).
type EventSink interface {
	Notify(Event)
}

// EventSinkFunc adapts an ordinary function to the EventSink interface.
type EventSinkFunc func(Event)

// Notify calls f(e).
func (f EventSinkFunc) Notify(e Event) {
	f(e)
}

// DiscardEvents is an EventSink that drops every event.
var DiscardEvents EventSink = EventSinkFunc(func(Event) {})

// ExitCode defines the process exit codes returned by the portkeeper CLI.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigUnavailable indicates the configuration source could not
	// be loaded. No ports were reserved.
	ExitConfigUnavailable ExitCode = 2

	// ExitInvalidSpecification indicates the port specification could not
	// be parsed. No ports were reserved.
	ExitInvalidSpecification ExitCode = 3

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 4
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeFor maps an error to the exit code the CLI should return.
// CLIError codes win; otherwise the sentinel errors decide.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	switch {
	case errors.Is(err, ErrConfigurationUnavailable):
		return ExitConfigUnavailable
	case errors.Is(err, ErrInvalidSpecification):
		return ExitInvalidSpecification
	default:
		return ExitGeneralError
	}
}
