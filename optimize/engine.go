package optimize

import (
	"context"
	"time"

	"github.com/quoteflow-systems/engine/config"
	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/observability"
)

// Engine runs the optimization stage with configured constraints.
type Engine struct {
	cfg      config.OptimizeConfig
	solver   Solver
	observer observability.Observer
}

// NewEngine creates an optimization Engine. A nil solver gets the default
// GreedySolver; a nil observer gets NoOpObserver.
func NewEngine(cfg config.OptimizeConfig, solver Solver, observer observability.Observer) *Engine {
	if solver == nil {
		solver = GreedySolver{}
	}
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Engine{cfg: cfg, solver: solver, observer: observer}
}

// Optimize builds the constraint set for the request and solves over the
// scored candidates. ErrInfeasible is not terminal for the case; the caller
// routes it to forced escalation.
func (e *Engine) Optimize(ctx context.Context, caseID string, req domain.StructuredRequest, candidates []domain.ScoredQuote) (domain.OptimizedQuote, error) {
	problem := Problem{
		Request:    req,
		Candidates: candidates,
		Constraints: domain.Constraints{
			MinMargin:      e.cfg.MinMargin,
			Deadline:       req.Deadline,
			SupplierMixCap: e.cfg.SupplierMixCap,
		},
		MultiSource: e.cfg.MultiSource,
	}

	e.observer.OnEvent(ctx, observability.Event{
		Type:      EventOptimizeStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "optimize.Optimize",
		Data: map[string]any{
			"case_id":      caseID,
			"candidates":   len(candidates),
			"multi_source": problem.MultiSource,
		},
	})

	solution, err := e.solver.Solve(problem)
	if err != nil {
		e.observer.OnEvent(ctx, observability.Event{
			Type:      EventInfeasible,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "optimize.Optimize",
			Data: map[string]any{
				"case_id": caseID,
				"error":   err.Error(),
			},
		})
		return domain.OptimizedQuote{}, err
	}

	e.observer.OnEvent(ctx, observability.Event{
		Type:      EventOptimizeComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "optimize.Optimize",
		Data: map[string]any{
			"case_id":     caseID,
			"allocations": len(solution.Allocations),
			"total_cost":  solution.TotalCost,
			"margin":      solution.Margin,
			"objective":   solution.Objective,
		},
	})

	return solution, nil
}
