package qmem

import (
	"time"

	"github.com/rs/zerolog"
)

// Tracer receives cell diagnostic events. Callers can capture or silence
// diagnostics without parsing log text. Implementations must be safe for
// concurrent use; read items run in parallel.
type Tracer interface {
	// ModeSelected fires once at construction with the chosen backend mode
	// and, in remote-queue mode, the target backend name.
	ModeSelected(mode Mode, backend string)

	// ItemFallback fires when one read item degrades to a random fallback
	// vector. reason is the execution error that was swallowed.
	ItemFallback(item, slot int, reason error)

	// JobTimeout fires when a remote job failed to reach a terminal state
	// within the poll timeout. ItemFallback follows for the same item.
	JobTimeout(item, slot int, elapsed time.Duration)
}

// NopTracer discards all events. It is the default.
type NopTracer struct{}

func (NopTracer) ModeSelected(Mode, string) {}

func (NopTracer) ItemFallback(int, int, error) {}

func (NopTracer) JobTimeout(int, int, time.Duration) {}

// LogTracer writes events to a zerolog logger.
type LogTracer struct {
	Log zerolog.Logger
}

func (t LogTracer) ModeSelected(mode Mode, backend string) {
	t.Log.Info().Str("mode", string(mode)).Str("backend", backend).Msg("backend mode selected")
}

func (t LogTracer) ItemFallback(item, slot int, reason error) {
	t.Log.Warn().Int("item", item).Int("slot", slot).Err(reason).Msg("read item degraded to fallback vector")
}

func (t LogTracer) JobTimeout(item, slot int, elapsed time.Duration) {
	t.Log.Warn().Int("item", item).Int("slot", slot).Dur("elapsed", elapsed).Msg("job polling timed out")
}
