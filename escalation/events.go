package escalation

import "github.com/quoteflow-systems/engine/observability"

const (
	EventGateEvaluate   observability.EventType = "gate.evaluate"
	EventReviewEnqueued observability.EventType = "review.enqueued"
	EventReviewDecision observability.EventType = "review.decision"
	EventReviewStalled  observability.EventType = "review.stalled"
	EventReviewReleased observability.EventType = "review.released"
)
