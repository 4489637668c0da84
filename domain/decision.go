package domain

import "time"

// Outcome is the result of one escalation checkpoint evaluation.
type Outcome string

const (
	OutcomeAutoApproved Outcome = "AUTO_APPROVED"
	OutcomeEscalated    Outcome = "ESCALATED"
)

// Reason explains why a checkpoint escalated.
type Reason string

const (
	ReasonHighValueOrStrategic Reason = "HIGH_VALUE_OR_STRATEGIC"
	ReasonValueExceedsCeiling  Reason = "VALUE_EXCEEDS_CEILING"
	ReasonMarginOutOfRange     Reason = "MARGIN_OUT_OF_RANGE"
	ReasonNoFeasibleSolution   Reason = "NO_FEASIBLE_SOLUTION"
)

// Checkpoint names the pipeline points where the escalation policy runs.
type Checkpoint string

const (
	CheckpointNegotiation Checkpoint = "negotiation"
	CheckpointFinalOffer  Checkpoint = "final_offer"
)

// EscalationDecision records one gate evaluation or human review outcome.
// Decisions are append-only history on a case: once a checkpoint escalates,
// that checkpoint's outcome stays ESCALATED and the human decision is
// appended, never recomputed.
type EscalationDecision struct {
	ID         string     `json:"id"`
	Checkpoint Checkpoint `json:"checkpoint"`
	Outcome    Outcome    `json:"outcome"`
	Reason     Reason     `json:"reason,omitempty"`
	Note       string     `json:"note,omitempty"`
	DecidedBy  string     `json:"decided_by"` // "policy" or a reviewer id
	DecidedAt  time.Time  `json:"decided_at"`
}
