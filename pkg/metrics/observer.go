// Package metrics records call-lifecycle events for offline analysis.
package metrics

import "time"

// Event names emitted across the call pipeline.
const (
	EventCallStarted      = "call_started"
	EventCallEnded        = "call_ended"
	EventTurnCompleted    = "turn_completed"
	EventGuardrailTrigger = "guardrail_trigger"
	EventToolInvoked      = "tool_invoked"
	EventTransfer         = "transfer_to_human"
	EventRateLimit        = "llm_rate_limit"
	EventBreakerOpen      = "llm_breaker_open"
	EventBreakerClose     = "llm_breaker_close"
	EventBreakerDenied    = "llm_breaker_denied"
)

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}
