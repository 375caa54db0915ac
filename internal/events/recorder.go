package events

import (
	"github.com/rs/zerolog"
)

// Recorder receives engine notifications. Implementations must not block;
// the engine treats Record as fire-and-forget with no delivery guarantee.
type Recorder interface {
	Record(Event)
}

// NopRecorder drops every event.
type NopRecorder struct{}

func (NopRecorder) Record(Event) {}

// LogRecorder writes every event to a structured log.
type LogRecorder struct {
	logger zerolog.Logger
}

// NewLogRecorder creates a recorder that logs events at info level.
func NewLogRecorder(logger zerolog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ev Event) {
	r.logger.Info().
		Str("event", ev.Kind()).
		Uint64("pool_id", uint64(ev.Pool())).
		Interface("payload", ev).
		Msg("Engine event")
}

// MultiRecorder fans an event out to several recorders.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ev Event) {
	for _, r := range m {
		r.Record(ev)
	}
}
