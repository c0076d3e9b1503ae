package contact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrDelivery wraps a transport failure. The form state is left as it was.
	ErrDelivery = errors.New("contact: delivery failed")
	// ErrClosed is returned once the controller has been torn down.
	ErrClosed = errors.New("contact: controller closed")
	// ErrSubmitting is returned by Submit while an earlier delivery is still
	// in flight.
	ErrSubmitting = errors.New("contact: submission in progress")
)

// Task is a scheduled callback that can be cancelled.
type Task interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// ClockScheduler schedules on the wall clock.
type ClockScheduler struct{}

func (ClockScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// Controller owns one visitor's form. All mutations happen under mu, so
// handlers and the success timer never interleave. mu is not held while the
// transport runs.
type Controller struct {
	mu        sync.Mutex
	state     State
	sched     Scheduler
	transport Transport
	log       zerolog.Logger

	nextTask   uint64
	pending    map[uint64]Task
	closed     bool
	delivering bool
}

// Options configures a Controller. Zero values fall back to the wall clock
// and a logging transport.
type Options struct {
	Scheduler Scheduler
	Transport Transport
	Logger    zerolog.Logger
}

// NewController creates an empty form.
func NewController(opts Options) *Controller {
	c := &Controller{
		state:     State{Errors: Errors{}},
		sched:     opts.Scheduler,
		transport: opts.Transport,
		log:       opts.Logger,
		pending:   map[uint64]Task{},
	}
	if c.sched == nil {
		c.sched = ClockScheduler{}
	}
	if c.transport == nil {
		c.transport = LogTransport{Log: opts.Logger}
	}
	return c
}

// State returns a snapshot of the form.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.state)
}

// UpdateField stores a new value and clears that field's error. It does not
// validate.
func (c *Controller) UpdateField(field Field, value string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return snapshot(c.state), ErrClosed
	}
	c.state, _ = Reduce(c.state, UpdateField{Field: field, Value: value})
	return snapshot(c.state), nil
}

// Replace overwrites the fields wholesale, clearing the error of every field
// whose value changed. A form post carries all three inputs at once; this
// keeps that path equivalent to a series of UpdateField calls.
func (c *Controller) Replace(fields Fields) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return snapshot(c.state), ErrClosed
	}
	for _, f := range AllFields {
		if v := fields.Get(f); v != c.state.Fields.Get(f) {
			c.state, _ = Reduce(c.state, UpdateField{Field: f, Value: v})
		}
	}
	return snapshot(c.state), nil
}

// Submit validates the current fields. Failing fields land in Errors and the
// values are kept. A valid form is handed to the transport, cleared, and the
// success flag is raised for SuccessWindow.
//
// The transport is called without holding the lock; field updates made while
// it runs are discarded along with the delivered values on success.
func (c *Controller) Submit(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return snapshot(c.state), ErrClosed
	}
	if c.delivering {
		defer c.mu.Unlock()
		return snapshot(c.state), ErrSubmitting
	}

	next, effect := Reduce(c.state, Submit{})
	if effect != EffectScheduleReset {
		defer c.mu.Unlock()
		c.state = next
		c.log.Debug().Int("errors", len(next.Errors)).Msg("contact form rejected")
		return snapshot(c.state), nil
	}

	fields := c.state.Fields
	c.delivering = true
	c.mu.Unlock()

	err := c.transport.Deliver(ctx, fields)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivering = false
	if c.closed {
		return snapshot(c.state), ErrClosed
	}
	if err != nil {
		c.log.Error().Err(err).Msg("contact delivery failed")
		return snapshot(c.state), fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	c.state = next
	c.schedule()
	return snapshot(c.state), nil
}

// Close cancels pending resets. Callbacks that already started become no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, t := range c.pending {
		t.Stop()
		delete(c.pending, id)
	}
}

func (c *Controller) schedule() {
	c.nextTask++
	id := c.nextTask
	c.pending[id] = c.sched.AfterFunc(SuccessWindow, func() { c.expire(id) })
}

func (c *Controller) expire(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	delete(c.pending, id)
	c.state, _ = Reduce(c.state, ResetSuccess{})
}

func snapshot(s State) State {
	s.Errors = copyErrors(s.Errors)
	return s
}
