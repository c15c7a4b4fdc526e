package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that prints every event before it is handled, one
// line per event: time, event ID, event type and handler.
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a new EventLogger which will write into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	handler := reflect.TypeOf(evt.Handler()).String()
	if named, ok := evt.Handler().(Named); ok {
		handler = named.Name()
	}

	id := "-"
	if identified, ok := evt.(interface{ EventID() string }); ok {
		id = identified.EventID()
	}

	h.Printf("%.10f, %s, %s -> %s", evt.Time(), id, reflect.TypeOf(evt), handler)
}
