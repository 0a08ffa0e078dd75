package keeper

import (
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/shinji-kodama/portkeeper/internal/model"
	"github.com/shinji-kodama/portkeeper/internal/port"
)

// DefaultRetryInterval is how long the loop waits between retry passes.
const DefaultRetryInterval = time.Second

// State is the lifecycle state of a Controller.
//
//	Initializing → Running → Stopping → Stopped
//	Initializing → Stopped   (configuration or specification failure)
type State string

const (
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateStopping     State = "stopping"
	StateStopped      State = "stopped"
)

// String returns the string representation of State.
func (s State) String() string {
	return string(s)
}

// SpecSource supplies the port specification at startup. config.File,
// config.Static and config.Source implement it.
type SpecSource interface {
	PortSpec() (model.PortSpec, error)
}

// Reserver is the part of the reservation manager the controller drives.
// *port.Manager implements it.
type Reserver interface {
	ReserveAll(ports []int)
	RetryPending()
	ReleaseAll()
	ClearPending()
}

var _ Reserver = (*port.Manager)(nil)

// Option configures a Controller.
type Option func(*Controller)

// WithInterval sets the wait between retry passes.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithLogger sets the function used for diagnostic messages.
func WithLogger(logf func(format string, args ...interface{})) Option {
	return func(c *Controller) {
		if logf != nil {
			c.logf = logf
		}
	}
}

// Controller drives a Reserver on a background goroutine: one initial
// reservation pass, a retry pass every interval, and a final release when
// stopped.
//
// All binds, retries and the release run on the loop goroutine. Stop is
// the only thing called from elsewhere; it clears pending work, wakes the
// loop and waits for the release to finish.
type Controller struct {
	reserver Reserver
	clock    clock.Clock
	interval time.Duration
	logf     func(format string, args ...interface{})

	mu    sync.Mutex
	state State

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	doneOnce sync.Once
}

// New creates a Controller for reserver. It does nothing until Start.
func New(reserver Reserver, opts ...Option) *Controller {
	c := &Controller{
		reserver: reserver,
		clock:    clock.WallClock,
		interval: DefaultRetryInterval,
		logf:     func(string, ...interface{}) {},
		state:    StateInitializing,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start loads and resolves the specification from src, makes the initial
// reservation pass on the calling goroutine and starts the retry loop.
// Every bind after that first pass happens on the loop.
//
// If the specification cannot be loaded or resolved, Start returns the
// error (wrapping model.ErrConfigurationUnavailable or
// model.ErrInvalidSpecification), nothing is bound and the controller goes
// straight to Stopped.
//
// Start may only be called once.
func (c *Controller) Start(src SpecSource) error {
	c.mu.Lock()
	if c.state != StateInitializing {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("controller already %s", state)
	}
	c.mu.Unlock()

	ports, err := c.resolve(src)
	if err != nil {
		c.abort()
		return err
	}
	c.logf("reserving %d port(s): %s", len(ports), port.FormatRanges(ports))

	c.mu.Lock()
	defer c.mu.Unlock()
	// Stop may have been called while the specification was loading.
	if c.state != StateInitializing {
		return nil
	}

	c.reserver.ReserveAll(ports)
	c.state = StateRunning
	go c.loop()
	return nil
}

// resolve loads the specification and expands it into ports.
func (c *Controller) resolve(src SpecSource) ([]int, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no configuration source", model.ErrConfigurationUnavailable)
	}
	spec, err := src.PortSpec()
	if err != nil {
		return nil, err
	}
	return port.ResolveSpec(spec)
}

// abort moves an initializing controller straight to Stopped.
func (c *Controller) abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateStopped
	c.stopOnce.Do(func() { close(c.stop) })
	c.finish()
}

// finish closes the done channel.
func (c *Controller) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}

// loop retries pending reservations every interval until stopped, then
// releases everything exactly once.
func (c *Controller) loop() {
	defer c.finish()
	defer c.reserver.ReleaseAll()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		c.reserver.RetryPending()

		select {
		case <-c.stop:
			return
		case <-c.clock.After(c.interval):
		}
	}
}

// Stop ends the retry loop and blocks until every held port has been
// released. It is safe to call from another goroutine (a signal handler)
// and more than once; later calls wait for the first to complete.
//
// Pending reservations are dropped before the loop is woken, so no bind is
// attempted once Stop has been called.
func (c *Controller) Stop() {
	c.mu.Lock()
	switch c.state {
	case StateInitializing:
		// Start has not run the first pass yet: there is nothing to release.
		c.state = StateStopped
		c.stopOnce.Do(func() { close(c.stop) })
		c.finish()
		c.mu.Unlock()
		c.logf("stopped before the first reservation pass")
		return
	case StateStopped:
		c.mu.Unlock()
		<-c.done
		return
	case StateRunning:
		c.state = StateStopping
	}
	c.mu.Unlock()

	c.reserver.ClearPending()
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done

	c.mu.Lock()
	c.state = StateStopped
	c.mu.Unlock()
}

// Done returns a channel that is closed once the controller has stopped
// and every port is released, or when Start failed.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
