package collector

import "github.com/quoteflow-systems/engine/observability"

const (
	EventCollectStart    observability.EventType = "collect.start"
	EventCollectComplete observability.EventType = "collect.complete"
	EventSolicitStart    observability.EventType = "solicit.start"
	EventSolicitComplete observability.EventType = "solicit.complete"
	EventQuoteNegotiated observability.EventType = "quote.negotiated"
	EventQuoteEscalated  observability.EventType = "quote.escalated"
)
