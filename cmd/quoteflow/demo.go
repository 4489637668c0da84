package main

import (
	"context"
	"time"

	"github.com/fatih/color"

	"github.com/quoteflow-systems/engine/collector"
	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/escalation"
	"github.com/quoteflow-systems/engine/pipeline"
	"github.com/quoteflow-systems/engine/supplier"
)

// demoRegistry seeds a supplier base covering the demo scenarios.
func demoRegistry() *supplier.Registry {
	return supplier.NewRegistry(
		supplier.Profile{ID: "alpha-fasteners", Name: "Alpha Fasteners GmbH", Reliability: 0.92, Regions: []string{"eu-west", "eu-central"}, Products: []string{"bolts", "screws"}},
		supplier.Profile{ID: "bolt-and-beam", Name: "Bolt & Beam Ltd", Reliability: 0.95, Regions: []string{"eu-west"}, Products: []string{"bolts"}},
		supplier.Profile{ID: "crown-supply", Name: "Crown Supply Co", Reliability: 0.78, Regions: []string{"*"}, Products: []string{"bolts"}},
		supplier.Profile{ID: "gear-dynamics", Name: "Gear Dynamics SA", Reliability: 0.90, Strategic: true, Regions: []string{"eu-west"}, Products: []string{"gearboxes"}},
	)
}

// simulatedChannel plays the supplier side of RFQ dispatch with a fixed price
// book, so demo runs are reproducible.
type simulatedChannel struct {
	prices map[string]float64
	leads  map[string]time.Duration
}

func newSimulatedChannel() *simulatedChannel {
	return &simulatedChannel{
		prices: map[string]float64{
			"alpha-fasteners": 1.00,
			"bolt-and-beam":   1.05,
			"crown-supply":    1.20,
			"gear-dynamics":   480.00,
		},
		leads: map[string]time.Duration{
			"alpha-fasteners": 5 * 24 * time.Hour,
			"bolt-and-beam":   5 * 24 * time.Hour,
			"crown-supply":    10 * 24 * time.Hour,
			"gear-dynamics":   12 * 24 * time.Hour,
		},
	}
}

func (s *simulatedChannel) Solicit(ctx context.Context, profile supplier.Profile, rfq collector.RFQ) (domain.RawQuote, error) {
	select {
	case <-ctx.Done():
		return domain.RawQuote{}, ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}

	price, ok := s.prices[profile.ID]
	if !ok {
		price = rfq.Request.MarketUnitPrice
	}
	lead, ok := s.leads[profile.ID]
	if !ok {
		lead = 7 * 24 * time.Hour
	}

	return domain.RawQuote{
		UnitPrice:       price,
		LeadTime:        lead,
		QuantityOffered: rfq.Request.Quantity * 2,
		Terms:           "net 30",
	}, nil
}

type demoScenario struct {
	name    string
	request domain.StructuredRequest
}

func demoScenarios(name string) []demoScenario {
	now := time.Now()

	standard := demoScenario{
		name: "standard bolts order",
		request: domain.StructuredRequest{
			ProductType:     "bolts",
			Quantity:        1000,
			Region:          "eu-west",
			Deadline:        now.Add(14 * 24 * time.Hour),
			MarketUnitPrice: 1.30,
			CreatedAt:       now,
		},
	}
	highValue := demoScenario{
		name: "high-value gearbox order",
		request: domain.StructuredRequest{
			ProductType:     "gearboxes",
			Quantity:        40,
			Region:          "eu-west",
			Deadline:        now.Add(30 * 24 * time.Hour),
			MarketUnitPrice: 640.00,
			CreatedAt:       now,
		},
	}
	infeasible := demoScenario{
		name: "infeasible rush order",
		request: domain.StructuredRequest{
			ProductType:     "bolts",
			Quantity:        1000,
			Region:          "eu-west",
			Deadline:        now.Add(2 * 24 * time.Hour),
			MarketUnitPrice: 1.30,
			CreatedAt:       now,
		},
	}

	switch name {
	case "standard":
		return []demoScenario{standard}
	case "high-value":
		return []demoScenario{highValue}
	case "infeasible":
		return []demoScenario{infeasible}
	case "all":
		return []demoScenario{standard, highValue, infeasible}
	}
	return nil
}

// runConsoleReviewer polls the queue and approves every review, announcing
// each one. Real deployments put an ops surface here instead.
func runConsoleReviewer(ctx context.Context, queue *escalation.MemoryQueue) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	yellow := color.New(color.FgYellow)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, review := range queue.Pending() {
				yellow.Printf("[review] case %s escalated at %s (%s), approving\n",
					review.CaseID, review.Checkpoint, review.Reason)
				_ = queue.Decide(review.ID, escalation.ReviewDecision{
					Approve:    true,
					ReviewerID: "demo-reviewer",
					Note:       "approved from demo console",
				})
			}
		}
	}
}

func printCase(c *pipeline.Case, sink *pipeline.MemorySink) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	faint := color.New(color.Faint)

	switch {
	case c.Status != pipeline.StatusCompleted:
		red.Printf("status: %s\n", c.Status)
	case c.Approved:
		green.Printf("outcome: %s (approved)\n", c.Outcome)
	default:
		red.Printf("outcome: %s (no offer issued)\n", c.Outcome)
	}

	if c.Optimized != nil {
		for _, a := range c.Optimized.Allocations {
			green.Printf("  %d units from %s at %.2f\n", a.Quantity, a.SupplierID, a.UnitPrice)
		}
		green.Printf("  total %.2f, margin %.1f%%, lead %s\n",
			c.Optimized.TotalCost, c.Optimized.Margin*100, c.Optimized.LeadTime)
		if c.Optimized.ManualOverride {
			faint.Println("  (manual override)")
		}
	}

	for _, d := range c.Decisions {
		faint.Printf("  decision: %s %s %s by %s\n", d.Checkpoint, d.Outcome, d.Reason, d.DecidedBy)
	}
	for _, e := range sink.History(c.ID) {
		faint.Printf("  %s %s %s\n", e.At.Format(time.RFC3339), e.Status, e.Note)
	}
}
