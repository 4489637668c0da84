package domain

import "time"

// RawQuote is a single supplier response to an RFQ, final once negotiation
// (automated or human-reviewed) has settled it.
type RawQuote struct {
	SupplierID      string        `json:"supplier_id"`
	UnitPrice       float64       `json:"unit_price"`
	LeadTime        time.Duration `json:"lead_time"`
	QuantityOffered int           `json:"quantity_offered"`
	Terms           string        `json:"terms,omitempty"`
}

// Value returns the monetary value of the quote for the requested quantity.
func (q RawQuote) Value(quantity int) float64 {
	return q.UnitPrice * float64(quantity)
}

// Margin returns the implied margin against the reference unit price:
// (reference − cost) / reference. Returns 0 when the reference price is not
// positive.
func (q RawQuote) Margin(marketUnitPrice float64) float64 {
	if marketUnitPrice <= 0 {
		return 0
	}
	return (marketUnitPrice - q.UnitPrice) / marketUnitPrice
}

// ScoreBreakdown holds the normalized sub-scores behind a composite score.
type ScoreBreakdown struct {
	Cost        float64 `json:"cost"`
	Delivery    float64 `json:"delivery"`
	Reliability float64 `json:"reliability"`
}

// ScoredQuote is a RawQuote plus its composite score and outlier flag.
// Re-scoring produces a new ScoredQuote; existing values are never mutated.
// The outlier flag is advisory and never excludes a quote from later stages.
type ScoredQuote struct {
	Quote     RawQuote       `json:"quote"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	IsOutlier bool           `json:"is_outlier"`
}
