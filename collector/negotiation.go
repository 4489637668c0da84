package collector

import (
	"context"

	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/supplier"
)

// Negotiator revises a supplier quote toward a target range. Implementations
// must be deterministic for a given input so re-running a case snapshot
// reproduces the same final quotes.
type Negotiator interface {
	Negotiate(ctx context.Context, profile supplier.Profile, quote domain.RawQuote, req domain.StructuredRequest) (domain.RawQuote, error)
}

// TargetRangeNegotiator is the default automated negotiation: it asks for a
// fixed price concession and, when the offered lead time misses the request
// window, pulls the lead time back to the window edge. Quotes it touches are
// accepted as final without further gating.
type TargetRangeNegotiator struct {
	// Discount is the price reduction fraction applied to the quoted unit
	// price.
	Discount float64
}

// NewTargetRangeNegotiator creates the default negotiator.
func NewTargetRangeNegotiator(discount float64) *TargetRangeNegotiator {
	return &TargetRangeNegotiator{Discount: discount}
}

func (n *TargetRangeNegotiator) Negotiate(ctx context.Context, profile supplier.Profile, quote domain.RawQuote, req domain.StructuredRequest) (domain.RawQuote, error) {
	if err := ctx.Err(); err != nil {
		return quote, err
	}

	negotiated := quote
	negotiated.UnitPrice = quote.UnitPrice * (1 - n.Discount)

	if window := req.Window(); window > 0 && negotiated.LeadTime > window {
		negotiated.LeadTime = window
	}

	return negotiated, nil
}
