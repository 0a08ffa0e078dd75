// Package keeper runs the reservation engine for the lifetime of the
// process.
//
// The Controller makes the initial reservation pass, retries pending ports
// once per interval on a background goroutine, and on Stop releases every
// held port before returning. The SignalHandler connects SIGINT/SIGTERM to
// Controller.Stop so the process never exits with sockets still held.
package keeper
