// Package optimize selects the final offer from the scored quote set under
// hard constraints. Constraints are never silently relaxed: when no admissible
// solution exists the stage reports ErrInfeasible and the case escalates.
package optimize

import (
	"errors"
	"fmt"
	"time"

	"github.com/quoteflow-systems/engine/domain"
)

// ErrInfeasible is returned when no candidate (or combination of candidates)
// satisfies every hard constraint.
var ErrInfeasible = errors.New("no feasible solution")

// bindingTolerance decides when an accepted solution sits on a constraint
// boundary.
const bindingTolerance = 1e-6

// Objective weighting between price competitiveness and the composite score.
const (
	objectivePriceWeight = 0.6
	objectiveScoreWeight = 0.4
)

// Problem is one optimization run over a scored candidate set.
type Problem struct {
	Request     domain.StructuredRequest
	Candidates  []domain.ScoredQuote
	Constraints domain.Constraints

	// MultiSource permits composing the offer across suppliers.
	MultiSource bool
}

// Solver produces the best admissible OptimizedQuote for a problem, or
// ErrInfeasible. Solvers must be deterministic: the same problem yields the
// same solution.
type Solver interface {
	Solve(problem Problem) (domain.OptimizedQuote, error)
}

// GreedySolver filters inadmissible candidates and then picks greedily by
// objective value. Single-source mode selects the one best quote that covers
// the full quantity; multi-source mode fills the quantity in objective order
// under the supplier mix cap.
type GreedySolver struct{}

func (GreedySolver) Solve(problem Problem) (domain.OptimizedQuote, error) {
	admissible := admissibleCandidates(problem)
	if len(admissible) == 0 {
		return domain.OptimizedQuote{}, fmt.Errorf("%w: %d candidates, none admissible", ErrInfeasible, len(problem.Candidates))
	}

	if problem.MultiSource {
		return solveMultiSource(problem, admissible)
	}
	return solveSingleSource(problem, admissible)
}

// candidate is an admissible quote with its precomputed objective value.
type candidate struct {
	quote     domain.ScoredQuote
	margin    float64
	objective float64
}

// admissibleCandidates drops every quote violating a hard constraint: implied
// margin below the floor, delivery past the deadline, or nothing to offer.
// Candidates keep their scored order, so equal objectives resolve to the
// deterministic scoring rank.
func admissibleCandidates(problem Problem) []candidate {
	req := problem.Request
	cons := problem.Constraints

	admissible := make([]candidate, 0, len(problem.Candidates))
	for _, sq := range problem.Candidates {
		margin := sq.Quote.Margin(req.MarketUnitPrice)
		if margin < cons.MinMargin {
			continue
		}
		if req.CreatedAt.Add(sq.Quote.LeadTime).After(cons.Deadline) {
			continue
		}
		if sq.Quote.QuantityOffered <= 0 {
			continue
		}
		admissible = append(admissible, candidate{
			quote:     sq,
			margin:    margin,
			objective: objective(margin, sq.Score),
		})
	}
	return admissible
}

// objective blends price competitiveness (the implied margin, clamped to
// [0,1]) with the composite score.
func objective(margin, score float64) float64 {
	competitiveness := margin
	if competitiveness < 0 {
		competitiveness = 0
	}
	if competitiveness > 1 {
		competitiveness = 1
	}
	return objectivePriceWeight*competitiveness + objectiveScoreWeight*score
}

func solveSingleSource(problem Problem, admissible []candidate) (domain.OptimizedQuote, error) {
	req := problem.Request

	var best *candidate
	for i := range admissible {
		c := &admissible[i]
		if c.quote.Quote.QuantityOffered < req.Quantity {
			continue
		}
		if best == nil || c.objective > best.objective {
			best = c
		}
	}
	if best == nil {
		return domain.OptimizedQuote{}, fmt.Errorf("%w: no single supplier covers quantity %d", ErrInfeasible, req.Quantity)
	}

	q := best.quote.Quote
	solution := domain.OptimizedQuote{
		Allocations: []domain.Allocation{{
			SupplierID: q.SupplierID,
			Quantity:   req.Quantity,
			UnitPrice:  q.UnitPrice,
			LeadTime:   q.LeadTime,
		}},
		TotalCost: q.Value(req.Quantity),
		Margin:    best.margin,
		LeadTime:  q.LeadTime,
		Objective: best.objective,
	}
	solution.Constraints = constraintRecords(problem, solution, false)
	return solution, nil
}

func solveMultiSource(problem Problem, admissible []candidate) (domain.OptimizedQuote, error) {
	req := problem.Request
	cons := problem.Constraints

	perSupplierCap := req.Quantity
	if cons.SupplierMixCap > 0 {
		perSupplierCap = int(cons.SupplierMixCap * float64(req.Quantity))
		if perSupplierCap <= 0 {
			return domain.OptimizedQuote{}, fmt.Errorf("%w: mix cap %v leaves no allocatable quantity", ErrInfeasible, cons.SupplierMixCap)
		}
	}

	// Fill in objective order, scored rank breaking ties.
	order := make([]int, len(admissible))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && admissible[order[j]].objective > admissible[order[j-1]].objective; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	remaining := req.Quantity
	capHit := false
	var allocations []domain.Allocation
	var totalCost float64
	var leadTime time.Duration
	var weightedScore float64

	for _, idx := range order {
		if remaining == 0 {
			break
		}
		c := admissible[idx]
		q := c.quote.Quote

		take := min(remaining, q.QuantityOffered, perSupplierCap)
		if take <= 0 {
			continue
		}
		if take == perSupplierCap && perSupplierCap < req.Quantity {
			capHit = true
		}

		allocations = append(allocations, domain.Allocation{
			SupplierID: q.SupplierID,
			Quantity:   take,
			UnitPrice:  q.UnitPrice,
			LeadTime:   q.LeadTime,
		})
		totalCost += q.Value(take)
		weightedScore += c.quote.Score * float64(take)
		if q.LeadTime > leadTime {
			leadTime = q.LeadTime
		}
		remaining -= take
	}

	if remaining > 0 {
		return domain.OptimizedQuote{}, fmt.Errorf("%w: %d of %d units unallocatable under the mix cap", ErrInfeasible, remaining, req.Quantity)
	}

	avgUnitPrice := totalCost / float64(req.Quantity)
	margin := (req.MarketUnitPrice - avgUnitPrice) / req.MarketUnitPrice

	solution := domain.OptimizedQuote{
		Allocations: allocations,
		TotalCost:   totalCost,
		Margin:      margin,
		LeadTime:    leadTime,
		Objective:   objective(margin, weightedScore/float64(req.Quantity)),
	}
	solution.Constraints = constraintRecords(problem, solution, capHit)
	return solution, nil
}

// constraintRecords reports, for an accepted solution, whether each hard
// constraint is at its boundary. Every record of an accepted solution is
// satisfied; an unsatisfiable constraint would have made the run infeasible.
func constraintRecords(problem Problem, solution domain.OptimizedQuote, capHit bool) []domain.ConstraintRecord {
	cons := problem.Constraints

	records := []domain.ConstraintRecord{
		{
			Name:      domain.ConstraintMargin,
			Satisfied: true,
			Binding:   solution.Margin-cons.MinMargin < bindingTolerance,
		},
		{
			Name:      domain.ConstraintDeadline,
			Satisfied: true,
			Binding:   solution.LeadTime >= problem.Request.Window(),
		},
	}

	if cons.SupplierMixCap > 0 {
		records = append(records, domain.ConstraintRecord{
			Name:      domain.ConstraintMix,
			Satisfied: true,
			Binding:   capHit,
		})
	}
	return records
}
