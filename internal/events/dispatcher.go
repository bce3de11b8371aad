package events

import (
	"context"
	"time"

	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
)

// Dispatcher fans events out to every sink. Delivery is best-effort: a
// failing sink is logged and counted and the remaining sinks still run.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	logger  logger.Logger
}

func NewDispatcher(timeout time.Duration, log logger.Logger, sinks ...Sink) *Dispatcher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Dispatcher{
		sinks:   sinks,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "events"}),
	}
}

// Sinks returns the names of the configured sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Publish delivers event to all sinks and returns the number that failed.
// The caller's cancellation is ignored so a client disconnect does not
// drop an event for a change that was already applied.
func (d *Dispatcher) Publish(ctx context.Context, event Event) int {
	if d == nil || len(d.sinks) == 0 {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	failed := 0
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, event); err != nil {
			failed++
			metrics.EventDeliveryFailures.WithLabelValues(sink.Name()).Inc()
			d.logger.Error("event delivery failed", map[string]interface{}{
				"sink":     sink.Name(),
				"eventId":  event.ID,
				"type":     string(event.Type),
				"activity": event.Activity,
				"error":    err.Error(),
			})
			continue
		}
		d.logger.Debug("event delivered", map[string]interface{}{
			"sink":    sink.Name(),
			"eventId": event.ID,
		})
	}
	return failed
}
