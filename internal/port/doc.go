// Package port implements port specification parsing and the reservation
// engine that holds TCP ports open for portkeeper.
//
// The flow is:
//
//	"5000-5010,6000" minus "5005" → Resolve → [5000 ... 5004 5006 ... 5010 6000]
//	                                        → Manager.ReserveAll
//	                                        → Manager.RetryPending (every tick)
//	                                        → Manager.ReleaseAll (shutdown)
//
// Each port is held by binding a listening socket on the wildcard address
// and never accepting on it. Ports that are busy when the manager starts
// stay pending and are retried until they are freed or the keeper stops.
//
// The Scanner probes availability without holding anything; it backs the
// read-only "check" command.
package port
