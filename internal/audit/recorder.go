package audit

import (
	"context"
	"time"

	"github.com/fraim-ai/fraim-toolkit/internal/event"
	"github.com/fraim-ai/fraim-toolkit/internal/logging"
)

// SourceEngine is the source recorded for events published by the engine.
const SourceEngine = "dna"

// recordTimeout bounds a single insert so a locked database never stalls a command.
const recordTimeout = 2 * time.Second

// Recorder appends bus events to a Log. Lock events are too chatty for the
// trail and are skipped. Failures are logged and never propagate.
type Recorder struct {
	log    *Log
	bus    *event.Bus
	logger *logging.Logger
	subID  string
}

// NewRecorder subscribes to every event on bus.
func NewRecorder(l *Log, bus *event.Bus, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.NopLogger()
	}
	r := &Recorder{log: l, bus: bus, logger: logger}
	r.subID = bus.SubscribeAll(r.handle)
	return r
}

func (r *Recorder) handle(e event.Event) {
	if event.Category(e.EventType()) == "lock" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if _, err := r.log.Append(ctx, SourceEngine, e.EventType(), e.Detail()); err != nil {
		r.logger.Warn("audit record failed", "event", e.EventType(), "error", err)
	}
}

// Stop unsubscribes from the bus.
func (r *Recorder) Stop() {
	r.bus.Unsubscribe(r.subID)
}
