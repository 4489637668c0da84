package domain

import "time"

// Constraint names used in constraint-satisfaction records.
const (
	ConstraintMargin   = "margin"
	ConstraintDeadline = "deadline"
	ConstraintMix      = "supplier_mix"
)

// Constraints are the hard limits for one optimization run. They are supplied
// fresh per run and never persisted as part of a quote.
type Constraints struct {
	// MinMargin is the minimum acceptable implied margin, as a fraction
	// (0.20 = 20%).
	MinMargin float64 `json:"min_margin"`

	// Deadline is the latest acceptable delivery time.
	Deadline time.Time `json:"deadline"`

	// SupplierMixCap caps the fraction of total quantity sourced from any
	// single supplier. Zero disables the mix rule.
	SupplierMixCap float64 `json:"supplier_mix_cap,omitempty"`
}

// ConstraintRecord reports how one hard constraint fared in an accepted
// solution, for auditability. Binding means the solution sits at the
// constraint boundary.
type ConstraintRecord struct {
	Name      string `json:"name"`
	Satisfied bool   `json:"satisfied"`
	Binding   bool   `json:"binding"`
}

// Allocation assigns part of the requested quantity to one supplier quote.
type Allocation struct {
	SupplierID string        `json:"supplier_id"`
	Quantity   int           `json:"quantity"`
	UnitPrice  float64       `json:"unit_price"`
	LeadTime   time.Duration `json:"lead_time"`
}

// OptimizedQuote is the terminal output of the optimization stage: the
// selected (or composed) allocation, the objective value achieved, and the
// constraint-satisfaction record. Immutable once produced.
type OptimizedQuote struct {
	Allocations []Allocation       `json:"allocations"`
	TotalCost   float64            `json:"total_cost"`
	Margin      float64            `json:"margin"`
	LeadTime    time.Duration      `json:"lead_time"`
	Objective   float64            `json:"objective"`
	Constraints []ConstraintRecord `json:"constraints"`

	// ManualOverride marks a quote substituted by a human reviewer rather
	// than produced by the solver.
	ManualOverride bool `json:"manual_override,omitempty"`
}

// TotalQuantity returns the summed quantity across allocations.
func (q OptimizedQuote) TotalQuantity() int {
	total := 0
	for _, a := range q.Allocations {
		total += a.Quantity
	}
	return total
}
