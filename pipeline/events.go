package pipeline

import "github.com/quoteflow-systems/engine/observability"

const (
	EventCaseReceived  observability.EventType = "case.received"
	EventCaseRejected  observability.EventType = "case.rejected"
	EventCaseCompleted observability.EventType = "case.completed"
	EventCaseFailed    observability.EventType = "case.failed"
	EventStatusChanged observability.EventType = "case.status_changed"
)
