// Package scoring ranks collected quotes on weighted cost, delivery and
// reliability sub-scores and flags statistical outliers. Scoring is a pure
// function of the request snapshot, the quote set and the supplier ledger:
// re-scoring the same inputs yields the same ordered result.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/quoteflow-systems/engine/config"
	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/observability"
)

// ReliabilitySource resolves a supplier id to its current reliability score.
// *supplier.Registry satisfies it.
type ReliabilitySource interface {
	Reliability(supplierID string) (float64, bool)
}

// Engine is the multi-criteria scoring stage.
type Engine struct {
	cfg      config.ScoringConfig
	observer observability.Observer
}

// NewEngine creates a scoring Engine. The weights are validated here so an
// invalid weighting fails at construction, never mid-request, and they are
// never normalized on the caller's behalf.
func NewEngine(cfg config.ScoringConfig, observer observability.Observer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Engine{cfg: cfg, observer: observer}, nil
}

// Score computes the composite score for every quote and returns the set
// ordered by score descending, ties broken by unit price ascending then
// supplier id ascending. Outlier flags are advisory annotations only; no
// quote is excluded here.
func (e *Engine) Score(ctx context.Context, caseID string, req domain.StructuredRequest, quotes []domain.RawQuote, reliability ReliabilitySource) ([]domain.ScoredQuote, error) {
	e.observer.OnEvent(ctx, observability.Event{
		Type:      EventScoreStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "scoring.Score",
		Data: map[string]any{
			"case_id": caseID,
			"quotes":  len(quotes),
		},
	})

	if len(quotes) == 0 {
		return nil, nil
	}

	cheapest := quotes[0].UnitPrice
	for _, q := range quotes[1:] {
		if q.UnitPrice < cheapest {
			cheapest = q.UnitPrice
		}
	}

	window := req.Window()

	scored := make([]domain.ScoredQuote, 0, len(quotes))
	for _, q := range quotes {
		rel, ok := reliability.Reliability(q.SupplierID)
		if !ok {
			return nil, fmt.Errorf("scoring quote from unknown supplier: %s", q.SupplierID)
		}

		breakdown := domain.ScoreBreakdown{
			Cost:        costScore(cheapest, q.UnitPrice),
			Delivery:    deliveryScore(q.LeadTime, window),
			Reliability: rel,
		}

		w := e.cfg.Weights
		scored = append(scored, domain.ScoredQuote{
			Quote: q,
			Score: w.Cost*breakdown.Cost +
				w.Delivery*breakdown.Delivery +
				w.Reliability*breakdown.Reliability,
			Breakdown: breakdown,
		})
	}

	e.flagOutliers(ctx, caseID, scored)

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Quote.UnitPrice != scored[j].Quote.UnitPrice {
			return scored[i].Quote.UnitPrice < scored[j].Quote.UnitPrice
		}
		return scored[i].Quote.SupplierID < scored[j].Quote.SupplierID
	})

	e.observer.OnEvent(ctx, observability.Event{
		Type:      EventScoreComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "scoring.Score",
		Data: map[string]any{
			"case_id":  caseID,
			"quotes":   len(scored),
			"outliers": countOutliers(scored),
		},
	})

	return scored, nil
}

// costScore normalizes a unit price against the cheapest quote in the set.
// The cheapest quote scores 1.0; every other quote scores the ratio below it.
func costScore(cheapest, price float64) float64 {
	if price <= 0 {
		return 1.0
	}
	return cheapest / price
}

// deliveryScore maps a lead time onto the request window: immediate delivery
// scores 1.0, delivery at the deadline scores 0, beyond it clamps to 0.
func deliveryScore(lead, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	s := 1.0 - float64(lead)/float64(window)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// flagOutliers marks quotes whose composite score deviates from the set mean
// by more than the configured z-score. A uniform set (zero deviation) has no
// outliers.
func (e *Engine) flagOutliers(ctx context.Context, caseID string, scored []domain.ScoredQuote) {
	if len(scored) < 2 {
		return
	}

	var sum float64
	for _, s := range scored {
		sum += s.Score
	}
	mean := sum / float64(len(scored))

	var variance float64
	for _, s := range scored {
		d := s.Score - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(scored)))
	if stddev == 0 {
		return
	}

	for i := range scored {
		z := math.Abs(scored[i].Score-mean) / stddev
		if z <= e.cfg.OutlierZScore {
			continue
		}
		scored[i].IsOutlier = true
		e.observer.OnEvent(ctx, observability.Event{
			Type:      EventOutlierFlagged,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "scoring.Score",
			Data: map[string]any{
				"case_id":     caseID,
				"supplier_id": scored[i].Quote.SupplierID,
				"score":       scored[i].Score,
				"zscore":      z,
			},
		})
	}
}

func countOutliers(scored []domain.ScoredQuote) int {
	n := 0
	for _, s := range scored {
		if s.IsOutlier {
			n++
		}
	}
	return n
}
