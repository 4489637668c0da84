// Package escalation implements the human-in-the-loop policy of the quote
// pipeline: a stateless gate evaluated at named checkpoints, and the reviewer
// queue a case suspends on when a checkpoint escalates.
package escalation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quoteflow-systems/engine/config"
	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/observability"
)

// PolicyActor identifies decisions produced by the automated gate rather than
// a human reviewer.
const PolicyActor = "policy"

// Input is the case snapshot a checkpoint evaluation sees.
type Input struct {
	Checkpoint domain.Checkpoint

	// Value is the monetary value under consideration at this checkpoint.
	Value float64

	// Margin is the implied margin of the offer; HasMargin is false at
	// checkpoints where no margin exists yet.
	Margin    float64
	HasMargin bool

	// Infeasible marks an upstream stage that reported no feasible solution.
	Infeasible bool

	// Anomaly carries an unresolved upstream anomaly description, if any.
	Anomaly string
}

// Gate is the stateless escalation policy. Trigger conditions are evaluated
// in order with first match winning:
//
//  1. Monetary value exceeds the configured ceiling.
//  2. Margin falls outside the configured acceptable range.
//  3. An upstream stage reported infeasibility or an unresolved anomaly.
//
// If none match, the outcome is AUTO_APPROVED. The gate only decides; the
// pipeline owns enqueueing escalated cases and blocking for the human
// decision.
type Gate struct {
	cfg      config.EscalationConfig
	observer observability.Observer
}

// NewGate creates a Gate with the given policy configuration. A nil observer
// defaults to NoOpObserver.
func NewGate(cfg config.EscalationConfig, observer observability.Observer) *Gate {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Gate{cfg: cfg, observer: observer}
}

// Evaluate runs the policy for one checkpoint. The returned decision is meant
// to be appended to the case history, never to overwrite an earlier one.
func (g *Gate) Evaluate(ctx context.Context, in Input) domain.EscalationDecision {
	decision := domain.EscalationDecision{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Checkpoint: in.Checkpoint,
		Outcome:    domain.OutcomeAutoApproved,
		DecidedBy:  PolicyActor,
		DecidedAt:  time.Now(),
	}

	switch {
	case in.Value > g.cfg.ValueCeiling:
		decision.Outcome = domain.OutcomeEscalated
		decision.Reason = domain.ReasonValueExceedsCeiling
	case in.HasMargin && (in.Margin < g.cfg.MarginMin || in.Margin > g.cfg.MarginMax):
		decision.Outcome = domain.OutcomeEscalated
		decision.Reason = domain.ReasonMarginOutOfRange
	case in.Infeasible:
		decision.Outcome = domain.OutcomeEscalated
		decision.Reason = domain.ReasonNoFeasibleSolution
	case in.Anomaly != "":
		decision.Outcome = domain.OutcomeEscalated
		decision.Reason = domain.ReasonNoFeasibleSolution
		decision.Note = in.Anomaly
	}

	g.observer.OnEvent(ctx, observability.Event{
		Type:      EventGateEvaluate,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "escalation.Gate",
		Data: map[string]any{
			"checkpoint": string(in.Checkpoint),
			"value":      in.Value,
			"outcome":    string(decision.Outcome),
			"reason":     string(decision.Reason),
		},
	})

	return decision
}
