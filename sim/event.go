// Package sim provides the discrete event engine that drives the control
// loop at a fixed sample rate.
package sim

// VTimeInSec is the time in the simulated world, in seconds.
type VTimeInSec float64

// An Event is something going to happen in the future.
type Event interface {
	// Time returns the time that the event should happen.
	Time() VTimeInSec

	// Handler returns the handler that should handle the event.
	Handler() Handler
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	ID      string
	time    VTimeInSec
	handler Handler
}

// NewEventBase creates a new EventBase.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler

	return e
}

// Time returns the time that the event is going to happen.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// EventID returns the process-unique ID assigned when the event was created.
func (e EventBase) EventID() string {
	return e.ID
}

// A Handler defines a domain for the events.
//
// An event can only be scheduled by its handler and can only modify that
// handler.
type Handler interface {
	Handle(e Event) error
}
