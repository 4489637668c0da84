package optimize

import "github.com/quoteflow-systems/engine/observability"

const (
	EventOptimizeStart    observability.EventType = "optimize.start"
	EventOptimizeComplete observability.EventType = "optimize.complete"
	EventInfeasible       observability.EventType = "optimize.infeasible"
)
