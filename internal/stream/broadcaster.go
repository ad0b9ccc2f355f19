// Package stream delivers best-effort status events to live clients. Every
// pipeline stage notifies through a Broadcaster at its phase boundaries;
// delivery is ordered per job and failures are swallowed, never surfaced.
package stream

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event is a single status update for a research job.
type Event struct {
	JobID     string         `json:"job_id"`
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Result    map[string]any `json:"result,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Broadcaster accepts status events. Implementations must be safe for
// concurrent use and must not block the pipeline on slow consumers.
type Broadcaster interface {
	Notify(ctx context.Context, ev Event)
}

// Nop is the null broadcaster. Call sites stay unconditional; a pipeline
// without a live client uses Nop instead of nil checks.
type Nop struct{}

// Notify discards the event.
func (Nop) Notify(context.Context, Event) {}

// Logger broadcasts events to the global zap logger.
type Logger struct{}

// Notify logs the event at debug level.
func (Logger) Notify(_ context.Context, ev Event) {
	zap.L().Debug("status update",
		zap.String("job_id", ev.JobID),
		zap.String("status", ev.Status),
		zap.String("message", ev.Message),
	)
}

// Tee fans an event out to several broadcasters in order.
func Tee(bs ...Broadcaster) Broadcaster {
	return tee(bs)
}

type tee []Broadcaster

func (t tee) Notify(ctx context.Context, ev Event) {
	for _, b := range t {
		b.Notify(ctx, ev)
	}
}

// stamp fills the timestamp if the caller left it zero.
func stamp(ev Event) Event {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return ev
}
