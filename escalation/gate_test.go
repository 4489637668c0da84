package escalation_test

import (
	"context"
	"testing"

	"github.com/quoteflow-systems/engine/config"
	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/escalation"
)

func testGate() *escalation.Gate {
	cfg := config.EscalationConfig{
		ValueCeiling:     10000,
		MarginMin:        0.15,
		MarginMax:        0.35,
		ReviewSLASeconds: 60,
	}
	return escalation.NewGate(cfg, nil)
}

func TestGate_AutoApprove(t *testing.T) {
	decision := testGate().Evaluate(context.Background(), escalation.Input{
		Checkpoint: domain.CheckpointFinalOffer,
		Value:      1000,
		Margin:     0.23,
		HasMargin:  true,
	})

	if decision.Outcome != domain.OutcomeAutoApproved {
		t.Errorf("outcome = %s, want AUTO_APPROVED", decision.Outcome)
	}
	if decision.Reason != "" {
		t.Errorf("auto-approved decision should carry no reason, got %s", decision.Reason)
	}
	if decision.DecidedBy != escalation.PolicyActor {
		t.Errorf("decided_by = %s, want policy", decision.DecidedBy)
	}
}

func TestGate_ValueCeilingMonotonic(t *testing.T) {
	// Value above ceiling escalates regardless of how healthy the margin is.
	margins := []float64{0.10, 0.20, 0.30, 0.50}

	for _, margin := range margins {
		decision := testGate().Evaluate(context.Background(), escalation.Input{
			Checkpoint: domain.CheckpointFinalOffer,
			Value:      15000,
			Margin:     margin,
			HasMargin:  true,
		})

		if decision.Outcome != domain.OutcomeEscalated {
			t.Errorf("margin %v: outcome = %s, want ESCALATED", margin, decision.Outcome)
		}
		if decision.Reason != domain.ReasonValueExceedsCeiling {
			t.Errorf("margin %v: reason = %s, want VALUE_EXCEEDS_CEILING", margin, decision.Reason)
		}
	}
}

func TestGate_TriggerOrder(t *testing.T) {
	tests := []struct {
		name   string
		input  escalation.Input
		reason domain.Reason
	}{
		{
			name: "ceiling wins over margin",
			input: escalation.Input{
				Value:     20000,
				Margin:    0.05,
				HasMargin: true,
			},
			reason: domain.ReasonValueExceedsCeiling,
		},
		{
			name: "margin below range",
			input: escalation.Input{
				Value:     1000,
				Margin:    0.10,
				HasMargin: true,
			},
			reason: domain.ReasonMarginOutOfRange,
		},
		{
			name: "margin above range",
			input: escalation.Input{
				Value:     1000,
				Margin:    0.40,
				HasMargin: true,
			},
			reason: domain.ReasonMarginOutOfRange,
		},
		{
			name: "margin wins over infeasibility",
			input: escalation.Input{
				Value:      1000,
				Margin:     0.10,
				HasMargin:  true,
				Infeasible: true,
			},
			reason: domain.ReasonMarginOutOfRange,
		},
		{
			name: "upstream infeasibility",
			input: escalation.Input{
				Value:      1000,
				Infeasible: true,
			},
			reason: domain.ReasonNoFeasibleSolution,
		},
		{
			name: "unresolved anomaly",
			input: escalation.Input{
				Value:   1000,
				Anomaly: "score variance above tolerance",
			},
			reason: domain.ReasonNoFeasibleSolution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := testGate().Evaluate(context.Background(), tt.input)
			if decision.Outcome != domain.OutcomeEscalated {
				t.Fatalf("outcome = %s, want ESCALATED", decision.Outcome)
			}
			if decision.Reason != tt.reason {
				t.Errorf("reason = %s, want %s", decision.Reason, tt.reason)
			}
		})
	}
}

func TestGate_NoMarginSkipsMarginRule(t *testing.T) {
	decision := testGate().Evaluate(context.Background(), escalation.Input{
		Checkpoint: domain.CheckpointNegotiation,
		Value:      1000,
	})

	if decision.Outcome != domain.OutcomeAutoApproved {
		t.Errorf("outcome = %s, want AUTO_APPROVED when no margin exists yet", decision.Outcome)
	}
}
