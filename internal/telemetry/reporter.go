// Package telemetry provides structured event reporting for operational
// signals that should outlive a single request log line (rate-limit
// rejections, backend degradation, approaching-quota warnings).
//
// Payloads crossing this boundary must already be anonymized by the caller;
// the reporter never inspects or rewrites them.
package telemetry

import (
	"sync"

	"golang.org/x/time/rate"

	"wellness-tracker/internal/common/logging"
)

// Severity classifies a reported event
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Reporter is the boundary the rest of the application emits events through
type Reporter interface {
	Report(name string, payload map[string]interface{}, severity Severity)
}

// LogReporter emits events through the structured logger. Per-event-name
// token buckets cap emission so a saturated endpoint cannot flood the
// pipeline with identical events.
type LogReporter struct {
	logger logging.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
}

// NewLogReporter creates a reporter backed by the given logger. Each
// distinct event name is limited to roughly one emission per second with a
// small burst allowance.
func NewLogReporter(logger logging.Logger) *LogReporter {
	return &LogReporter{
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		perSec:   rate.Limit(1),
		burst:    5,
	}
}

// Report emits a structured event unless the per-name throttle is exhausted.
// Critical events bypass the throttle: they signal total degradation and
// must always be visible.
func (r *LogReporter) Report(name string, payload map[string]interface{}, severity Severity) {
	if severity != SeverityCritical && !r.allow(name) {
		return
	}

	fields := make([]logging.Field, 0, len(payload)+2)
	fields = append(fields,
		logging.Field{Key: "event", Value: name},
		logging.Field{Key: "severity", Value: string(severity)},
	)
	for k, v := range payload {
		fields = append(fields, logging.Field{Key: k, Value: v})
	}

	switch severity {
	case SeverityError, SeverityCritical:
		r.logger.Error("telemetry event", nil, fields...)
	case SeverityWarning:
		r.logger.Warn("telemetry event", fields...)
	default:
		r.logger.Info("telemetry event", fields...)
	}
}

func (r *LogReporter) allow(name string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters[name]
	if !ok {
		limiter = rate.NewLimiter(r.perSec, r.burst)
		r.limiters[name] = limiter
	}
	r.mu.Unlock()
	return limiter.Allow()
}

// NopReporter discards all events; used in tests and when telemetry is
// disabled by configuration.
type NopReporter struct{}

func (NopReporter) Report(string, map[string]interface{}, Severity) {}

var (
	_ Reporter = (*LogReporter)(nil)
	_ Reporter = NopReporter{}
)
