package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow-systems/engine/collector"
	"github.com/quoteflow-systems/engine/config"
	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/escalation"
	"github.com/quoteflow-systems/engine/observability"
	"github.com/quoteflow-systems/engine/optimize"
	"github.com/quoteflow-systems/engine/scoring"
	"github.com/quoteflow-systems/engine/supplier"
)

// Pipeline runs quote cases. One Pipeline serves many concurrent cases; all
// per-case state lives in the Case record.
type Pipeline struct {
	cfg       config.Config
	registry  *supplier.Registry
	collector *collector.Collector
	scorer    *scoring.Engine
	optimizer *optimize.Engine
	gate      *escalation.Gate
	queue     escalation.ReviewerQueue
	observer  observability.Observer
	sink      EventSink
}

type options struct {
	negotiator collector.Negotiator
	solver     optimize.Solver
	queue      escalation.ReviewerQueue
	observer   observability.Observer
	sink       EventSink
}

// Option customizes pipeline construction.
type Option func(*options)

// WithNegotiator replaces the default automated negotiator.
func WithNegotiator(n collector.Negotiator) Option {
	return func(o *options) { o.negotiator = n }
}

// WithSolver replaces the default greedy solver.
func WithSolver(s optimize.Solver) Option {
	return func(o *options) { o.solver = s }
}

// WithQueue replaces the default in-process reviewer queue.
func WithQueue(q escalation.ReviewerQueue) Option {
	return func(o *options) { o.queue = q }
}

// WithObserver overrides the observer named in the configuration.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithEventSink attaches a case history sink.
func WithEventSink(s EventSink) Option {
	return func(o *options) { o.sink = s }
}

// New builds a Pipeline from validated configuration. Configuration errors,
// including an invalid scoring weighting, surface here and never per-case.
func New(cfg config.Config, registry *supplier.Registry, channel collector.SupplierChannel, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	observer := o.observer
	if observer == nil {
		registered, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, err
		}
		observer = registered
	}

	queue := o.queue
	if queue == nil {
		queue = escalation.NewMemoryQueue(cfg.Escalation.ReviewSLA(), observer)
	}

	sink := o.sink
	if sink == nil {
		sink = noopSink{}
	}

	scorer, err := scoring.NewEngine(cfg.Scoring, observer)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:       cfg,
		registry:  registry,
		collector: collector.New(cfg.Collector, registry, channel, o.negotiator, queue, observer),
		scorer:    scorer,
		optimizer: optimize.NewEngine(cfg.Optimize, o.solver, observer),
		gate:      escalation.NewGate(cfg.Escalation, observer),
		queue:     queue,
		observer:  observer,
		sink:      sink,
	}, nil
}

// Queue returns the reviewer queue cases suspend on, for the reviewer-side
// surface (ops tooling, tests).
func (p *Pipeline) Queue() escalation.ReviewerQueue {
	return p.queue
}

// Run processes one request to a terminal case. The returned Case is always
// non-nil and carries whatever the run produced up to the point of failure.
func (p *Pipeline) Run(ctx context.Context, req domain.StructuredRequest) (*Case, error) {
	c := NewCase(req)

	p.emit(ctx, EventCaseReceived, observability.LevelInfo, map[string]any{
		"case_id":      c.ID,
		"product_type": req.ProductType,
		"quantity":     req.Quantity,
	})
	p.record(ctx, c, "")

	if err := req.Validate(); err != nil {
		c.Status = StatusRejected
		c.CompletedAt = time.Now()
		p.emit(ctx, EventCaseRejected, observability.LevelWarning, map[string]any{
			"case_id": c.ID,
			"error":   err.Error(),
		})
		p.record(ctx, c, err.Error())
		return c, &StageError{Stage: "validate", Err: err}
	}

	p.transition(ctx, c, StatusCollecting, "")
	collected, err := p.collector.Collect(ctx, c.ID, req)
	if collected != nil {
		c.Quotes = collected.Quotes
		c.Failures = collected.Failures
		c.Decisions = append(c.Decisions, collected.Decisions...)
	}
	if err != nil {
		return p.fail(ctx, c, "collect", err)
	}

	p.transition(ctx, c, StatusScoring, "")
	scored, err := p.scorer.Score(ctx, c.ID, req, c.Quotes, p.registry)
	if err != nil {
		return p.fail(ctx, c, "score", err)
	}
	c.Scored = scored

	p.transition(ctx, c, StatusOptimizing, "")
	solution, err := p.optimizer.Optimize(ctx, c.ID, req, scored)
	if err != nil {
		if errors.Is(err, optimize.ErrInfeasible) {
			return p.escalateInfeasible(ctx, c)
		}
		return p.fail(ctx, c, "optimize", err)
	}
	c.Optimized = &solution

	decision := p.gate.Evaluate(ctx, escalation.Input{
		Checkpoint: domain.CheckpointFinalOffer,
		Value:      solution.TotalCost,
		Margin:     solution.Margin,
		HasMargin:  true,
	})
	c.Decisions = append(c.Decisions, decision)

	if decision.Outcome == domain.OutcomeAutoApproved {
		c.Outcome = domain.OutcomeAutoApproved
		c.Approved = true
		return p.complete(ctx, c)
	}
	return p.escalateFinalOffer(ctx, c, decision)
}

// escalateFinalOffer suspends the case on the reviewer queue after the
// final-offer gate escalated. The human decision is authoritative: approval
// issues the offer (possibly a substituted one), rejection closes the case
// without an offer being issued.
func (p *Pipeline) escalateFinalOffer(ctx context.Context, c *Case, decision domain.EscalationDecision) (*Case, error) {
	p.transition(ctx, c, StatusInReview, string(decision.Reason))

	review := escalation.NewReview(c.ID, domain.CheckpointFinalOffer, decision.Reason, c.Optimized)
	if err := p.queue.Enqueue(ctx, review); err != nil {
		return p.fail(ctx, c, "escalation", err)
	}

	human, err := p.queue.Await(ctx, review.ID)
	if err != nil {
		return p.fail(ctx, c, "escalation", err)
	}

	c.Decisions = append(c.Decisions, humanDecision(domain.CheckpointFinalOffer, decision.Reason, human))
	c.Outcome = domain.OutcomeEscalated
	c.Approved = human.Approve

	if human.Approve && human.Quote != nil {
		c.Optimized = manualOverride(c.Request, *human.Quote)
	}
	return p.complete(ctx, c)
}

// escalateInfeasible handles an optimization run with no feasible solution:
// the case escalates with the scored set as review material. The reviewer may
// resolve it with a substituted quote; otherwise the case closes without an
// offer. Constraints are never relaxed automatically.
func (p *Pipeline) escalateInfeasible(ctx context.Context, c *Case) (*Case, error) {
	decision := p.gate.Evaluate(ctx, escalation.Input{
		Checkpoint: domain.CheckpointFinalOffer,
		Infeasible: true,
	})
	c.Decisions = append(c.Decisions, decision)

	p.transition(ctx, c, StatusInReview, string(decision.Reason))

	review := escalation.NewReview(c.ID, domain.CheckpointFinalOffer, decision.Reason, c.Scored)
	if err := p.queue.Enqueue(ctx, review); err != nil {
		return p.fail(ctx, c, "escalation", err)
	}

	human, err := p.queue.Await(ctx, review.ID)
	if err != nil {
		return p.fail(ctx, c, "escalation", err)
	}

	c.Decisions = append(c.Decisions, humanDecision(domain.CheckpointFinalOffer, decision.Reason, human))
	c.Outcome = domain.OutcomeEscalated

	if human.Approve && human.Quote != nil {
		c.Optimized = manualOverride(c.Request, *human.Quote)
		c.Approved = true
	}
	return p.complete(ctx, c)
}

func (p *Pipeline) complete(ctx context.Context, c *Case) (*Case, error) {
	c.Status = StatusCompleted
	c.CompletedAt = time.Now()

	p.emit(ctx, EventCaseCompleted, observability.LevelInfo, map[string]any{
		"case_id":  c.ID,
		"outcome":  string(c.Outcome),
		"approved": c.Approved,
	})
	p.record(ctx, c, string(c.Outcome))
	return c, nil
}

func (p *Pipeline) fail(ctx context.Context, c *Case, stage string, err error) (*Case, error) {
	c.Status = StatusFailed
	c.CompletedAt = time.Now()

	p.emit(ctx, EventCaseFailed, observability.LevelError, map[string]any{
		"case_id": c.ID,
		"stage":   stage,
		"error":   err.Error(),
	})
	p.record(ctx, c, err.Error())
	return c, &StageError{Stage: stage, Err: err}
}

func (p *Pipeline) transition(ctx context.Context, c *Case, status Status, note string) {
	c.Status = status
	p.emit(ctx, EventStatusChanged, observability.LevelVerbose, map[string]any{
		"case_id": c.ID,
		"status":  string(status),
	})
	p.record(ctx, c, note)
}

func (p *Pipeline) emit(ctx context.Context, eventType observability.EventType, level observability.Level, data map[string]any) {
	p.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "pipeline.Run",
		Data:      data,
	})
}

func (p *Pipeline) record(ctx context.Context, c *Case, note string) {
	_ = p.sink.Append(ctx, CaseEvent{
		CaseID: c.ID,
		Status: c.Status,
		Note:   note,
		At:     time.Now(),
	})
}

// humanDecision maps a reviewer's queue decision into the case history.
func humanDecision(checkpoint domain.Checkpoint, reason domain.Reason, d escalation.ReviewDecision) domain.EscalationDecision {
	return domain.EscalationDecision{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Checkpoint: checkpoint,
		Outcome:    domain.OutcomeEscalated,
		Reason:     reason,
		Note:       d.Note,
		DecidedBy:  d.ReviewerID,
		DecidedAt:  d.DecidedAt,
	}
}

// manualOverride builds the offer record for a reviewer-substituted quote.
func manualOverride(req domain.StructuredRequest, q domain.RawQuote) *domain.OptimizedQuote {
	return &domain.OptimizedQuote{
		Allocations: []domain.Allocation{{
			SupplierID: q.SupplierID,
			Quantity:   req.Quantity,
			UnitPrice:  q.UnitPrice,
			LeadTime:   q.LeadTime,
		}},
		TotalCost:      q.Value(req.Quantity),
		Margin:         q.Margin(req.MarketUnitPrice),
		LeadTime:       q.LeadTime,
		ManualOverride: true,
	}
}
