// Package pipeline orchestrates one quote case end to end: request
// validation, supplier collection, scoring, optimization and the escalation
// checkpoints. Each case runs as its own pipeline instance; a suspended case
// blocks only itself.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow-systems/engine/collector"
	"github.com/quoteflow-systems/engine/domain"
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusReceived   Status = "received"
	StatusCollecting Status = "collecting"
	StatusScoring    Status = "scoring"
	StatusOptimizing Status = "optimizing"
	StatusInReview   Status = "in_review"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
	StatusFailed     Status = "failed"
)

// Case is the auditable record of one quote request's journey through the
// pipeline. Stage outputs and escalation decisions are appended as the case
// progresses; nothing is overwritten.
type Case struct {
	ID      string                   `json:"id"`
	Request domain.StructuredRequest `json:"request"`
	Status  Status                   `json:"status"`

	// Outcome is set exactly once, when the case completes.
	Outcome domain.Outcome `json:"outcome,omitempty"`

	// Approved reports whether the final offer stands, either auto-approved
	// by policy or approved by a human reviewer.
	Approved bool `json:"approved"`

	Quotes    []domain.RawQuote           `json:"quotes,omitempty"`
	Failures  []*collector.SupplierError  `json:"-"`
	Scored    []domain.ScoredQuote        `json:"scored,omitempty"`
	Optimized *domain.OptimizedQuote      `json:"optimized,omitempty"`
	Decisions []domain.EscalationDecision `json:"decisions,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// NewCase opens a case for the given request.
func NewCase(req domain.StructuredRequest) *Case {
	return &Case{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Request:   req,
		Status:    StatusReceived,
		CreatedAt: time.Now(),
	}
}

// SupplierIDs returns the suppliers allocated in the final offer, in
// allocation order. Empty when the case carries no offer.
func (c *Case) SupplierIDs() []string {
	if c.Optimized == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Optimized.Allocations))
	for _, a := range c.Optimized.Allocations {
		ids = append(ids, a.SupplierID)
	}
	return ids
}
