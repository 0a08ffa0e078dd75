// Package model defines the domain types and value objects for portkeeper.
//
// This package contains pure data structures with no external dependencies:
// the textual port specification (PortSpec), reservation states, and the
// events the reservation manager emits when a port is bound, released, or
// fails to bind.
//
// The package also defines exit codes (ExitCode), a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling,
// and the sentinel errors that classify every failure portkeeper reports.
package model
