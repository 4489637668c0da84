// Package collector implements the supplier solicitation stage of the quote
// pipeline: eligibility filtering, concurrent RFQ dispatch with bounded
// parallelism, and the per-quote negotiation sub-policy that routes
// high-value or strategic quotes through human review.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/quoteflow-systems/engine/config"
	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/escalation"
	"github.com/quoteflow-systems/engine/observability"
	"github.com/quoteflow-systems/engine/supplier"
)

// RFQ is the request-for-quote sent to one supplier.
type RFQ struct {
	ID      string                   `json:"id"`
	CaseID  string                   `json:"case_id"`
	Request domain.StructuredRequest `json:"request"`
}

// SupplierChannel delivers an RFQ to one supplier and returns its raw quote.
// Implementations talk to the outside world; a timeout or transport error is
// a per-supplier failure, never a pipeline failure.
type SupplierChannel interface {
	Solicit(ctx context.Context, profile supplier.Profile, rfq RFQ) (domain.RawQuote, error)
}

// Result is the outcome of one collection run: the surviving final quotes,
// the recorded per-supplier failures, and the escalation decisions made at
// the negotiation checkpoint.
type Result struct {
	Quotes    []domain.RawQuote
	Failures  []*SupplierError
	Decisions []domain.EscalationDecision
}

// Collector is the SupplierQuoteCollector stage.
type Collector struct {
	cfg        config.CollectorConfig
	registry   *supplier.Registry
	channel    SupplierChannel
	negotiator Negotiator
	queue      escalation.ReviewerQueue
	observer   observability.Observer
	limiter    *rate.Limiter
}

// New creates a Collector. A nil negotiator gets the default
// TargetRangeNegotiator; a nil observer gets NoOpObserver.
func New(
	cfg config.CollectorConfig,
	registry *supplier.Registry,
	channel SupplierChannel,
	negotiator Negotiator,
	queue escalation.ReviewerQueue,
	observer observability.Observer,
) *Collector {
	if negotiator == nil {
		negotiator = NewTargetRangeNegotiator(cfg.NegotiationDiscount)
	}
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return &Collector{
		cfg:        cfg,
		registry:   registry,
		channel:    channel,
		negotiator: negotiator,
		queue:      queue,
		observer:   observer,
		limiter:    limiter,
	}
}

// outcome is one supplier's settled result, indexed so the collected set
// keeps the deterministic eligible-supplier order regardless of completion
// order.
type outcome struct {
	index     int
	quote     *domain.RawQuote
	decisions []domain.EscalationDecision
	err       *SupplierError
}

// Collect solicits one quote from each eligible supplier concurrently and
// applies the negotiation sub-policy to each response. Suppliers that time
// out or error are excluded and recorded. Returns ErrNoViableSuppliers when
// no eligible supplier exists or no quote survives; the partial Result is
// still returned for the case record.
func (c *Collector) Collect(ctx context.Context, caseID string, req domain.StructuredRequest) (*Result, error) {
	eligible := c.registry.Eligible(req)

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventCollectStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "collector.Collect",
		Data: map[string]any{
			"case_id":        caseID,
			"eligible_count": len(eligible),
			"max_concurrent": c.cfg.MaxConcurrent,
		},
	})

	result := &Result{}

	if len(eligible) == 0 {
		c.emitComplete(ctx, caseID, result, true)
		return result, fmt.Errorf("%w: no eligible supplier for %s in %s", ErrNoViableSuppliers, req.ProductType, req.Region)
	}

	workQueue := make(chan int, len(eligible))
	outcomes := make(chan outcome, len(eligible))

	workerCount := min(c.cfg.MaxConcurrent, len(eligible))

	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case i, ok := <-workQueue:
					if !ok {
						return
					}
					outcomes <- c.solicitOne(ctx, caseID, i, eligible[i], req)
				}
			}
		}()
	}

	for i := range eligible {
		workQueue <- i
	}
	close(workQueue)

	wg.Wait()
	close(outcomes)

	collected := make(map[int]outcome, len(eligible))
	for o := range outcomes {
		collected[o.index] = o
	}

	// Rebuild in eligible order so downstream stages see a deterministic set.
	for i := range eligible {
		o, ok := collected[i]
		if !ok {
			continue
		}
		result.Decisions = append(result.Decisions, o.decisions...)
		if o.err != nil {
			result.Failures = append(result.Failures, o.err)
			continue
		}
		if o.quote != nil {
			result.Quotes = append(result.Quotes, *o.quote)
		}
	}

	if err := ctx.Err(); err != nil {
		c.emitComplete(ctx, caseID, result, true)
		return result, fmt.Errorf("collection cancelled: %w", err)
	}

	if len(result.Quotes) == 0 {
		c.emitComplete(ctx, caseID, result, true)
		return result, fmt.Errorf("%w: %d suppliers solicited, none survived", ErrNoViableSuppliers, len(eligible))
	}

	c.emitComplete(ctx, caseID, result, false)
	return result, nil
}

func (c *Collector) solicitOne(ctx context.Context, caseID string, index int, profile supplier.Profile, req domain.StructuredRequest) outcome {
	o := outcome{index: index}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			o.err = &SupplierError{SupplierID: profile.ID, Err: err}
			return o
		}
	}

	rfq := RFQ{
		ID:      uuid.Must(uuid.NewV7()).String(),
		CaseID:  caseID,
		Request: req,
	}

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventSolicitStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "collector.Collect",
		Data: map[string]any{
			"case_id":     caseID,
			"supplier_id": profile.ID,
			"rfq_id":      rfq.ID,
		},
	})

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.SupplierTimeout())
	quote, err := c.channel.Solicit(callCtx, profile, rfq)
	cancel()

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventSolicitComplete,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "collector.Collect",
		Data: map[string]any{
			"case_id":     caseID,
			"supplier_id": profile.ID,
			"error":       err != nil,
		},
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %v", ErrSupplierTimeout, c.cfg.SupplierTimeout())
		}
		o.err = &SupplierError{SupplierID: profile.ID, Err: err}
		return o
	}

	quote.SupplierID = profile.ID

	value := quote.Value(req.Quantity)
	if value > c.cfg.Threshold || profile.Strategic {
		return c.escalateQuote(ctx, caseID, o, profile, quote, value)
	}

	negotiated, err := c.negotiator.Negotiate(ctx, profile, quote, req)
	if err != nil {
		o.err = &SupplierError{SupplierID: profile.ID, Err: err}
		return o
	}

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventQuoteNegotiated,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "collector.Collect",
		Data: map[string]any{
			"case_id":     caseID,
			"supplier_id": profile.ID,
			"unit_price":  negotiated.UnitPrice,
		},
	})

	o.quote = &negotiated
	return o
}

// escalateQuote routes one quote through the negotiation checkpoint: the
// escalation is recorded, the review is enqueued synchronously, and the
// worker blocks until the human decision arrives. The human outcome replaces
// the raw quote.
func (c *Collector) escalateQuote(ctx context.Context, caseID string, o outcome, profile supplier.Profile, quote domain.RawQuote, value float64) outcome {
	policyDecision := domain.EscalationDecision{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Checkpoint: domain.CheckpointNegotiation,
		Outcome:    domain.OutcomeEscalated,
		Reason:     domain.ReasonHighValueOrStrategic,
		DecidedBy:  escalation.PolicyActor,
		DecidedAt:  time.Now(),
	}
	o.decisions = append(o.decisions, policyDecision)

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventQuoteEscalated,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "collector.Collect",
		Data: map[string]any{
			"case_id":     caseID,
			"supplier_id": profile.ID,
			"value":       value,
			"strategic":   profile.Strategic,
		},
	})

	review := escalation.NewReview(caseID, domain.CheckpointNegotiation, domain.ReasonHighValueOrStrategic, quote)
	if err := c.queue.Enqueue(ctx, review); err != nil {
		o.err = &SupplierError{SupplierID: profile.ID, Err: err}
		return o
	}

	human, err := c.queue.Await(ctx, review.ID)
	if err != nil {
		o.err = &SupplierError{SupplierID: profile.ID, Err: err}
		return o
	}

	o.decisions = append(o.decisions, domain.EscalationDecision{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Checkpoint: domain.CheckpointNegotiation,
		Outcome:    domain.OutcomeEscalated,
		Reason:     domain.ReasonHighValueOrStrategic,
		Note:       human.Note,
		DecidedBy:  human.ReviewerID,
		DecidedAt:  human.DecidedAt,
	})

	if !human.Approve {
		o.err = &SupplierError{SupplierID: profile.ID, Err: ErrQuoteRejected}
		return o
	}

	final := quote
	if human.Quote != nil {
		final = *human.Quote
		final.SupplierID = profile.ID
	}
	o.quote = &final
	return o
}

func (c *Collector) emitComplete(ctx context.Context, caseID string, result *Result, failed bool) {
	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventCollectComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "collector.Collect",
		Data: map[string]any{
			"case_id":  caseID,
			"quotes":   len(result.Quotes),
			"failures": len(result.Failures),
			"error":    failed,
		},
	})
}
