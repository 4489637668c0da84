package scoring

import "github.com/quoteflow-systems/engine/observability"

const (
	EventScoreStart     observability.EventType = "score.start"
	EventScoreComplete  observability.EventType = "score.complete"
	EventOutlierFlagged observability.EventType = "score.outlier_flagged"
)
