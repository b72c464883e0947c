package sim

import (
	"reflect"

	"github.com/sirupsen/logrus"
)

// EventLogger is an hook that prints the event information
type EventLogger struct {
	Logger *logrus.Entry
}

// NewEventLogger returns a new EventLogger which will write in to the logger
func NewEventLogger(logger *logrus.Entry) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	fields := logrus.Fields{
		"cycle": evt.Time(),
		"event": reflect.TypeOf(evt).String(),
	}

	if comp, ok := evt.Handler().(Named); ok {
		fields["handler"] = comp.Name()
	}

	h.Logger.WithFields(fields).Trace("event")
}
