package escalation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/observability"
)

// Review is one escalated case entry awaiting a human decision.
type Review struct {
	ID         string            `json:"id"`
	CaseID     string            `json:"case_id"`
	Checkpoint domain.Checkpoint `json:"checkpoint"`
	Reason     domain.Reason     `json:"reason"`
	Payload    any               `json:"payload,omitempty"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// NewReview creates a Review for the given case and checkpoint.
func NewReview(caseID string, checkpoint domain.Checkpoint, reason domain.Reason, payload any) Review {
	return Review{
		ID:         uuid.Must(uuid.NewV7()).String(),
		CaseID:     caseID,
		Checkpoint: checkpoint,
		Reason:     reason,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}
}

// ReviewDecision is the authoritative human outcome for one review.
type ReviewDecision struct {
	ReviewID   string           `json:"review_id"`
	CaseID     string           `json:"case_id"`
	Approve    bool             `json:"approve"`
	Quote      *domain.RawQuote `json:"quote,omitempty"` // replacement quote, when the reviewer revised one
	Note       string           `json:"note,omitempty"`
	ReviewerID string           `json:"reviewer_id"`
	DecidedAt  time.Time        `json:"decided_at"`
}

// ReviewerQueue is the human-reviewer side channel. Enqueue must complete
// synchronously before the escalated checkpoint returns; Await then blocks
// the case's own pipeline instance, possibly for an arbitrarily long time,
// until the human decision arrives or the context is cancelled.
type ReviewerQueue interface {
	Enqueue(ctx context.Context, review Review) error
	Await(ctx context.Context, reviewID string) (ReviewDecision, error)
}

// MemoryQueue is an in-process ReviewerQueue. Each review gets its own
// decision channel so concurrent reviews, including several for the same
// case, suspend independently. Cancellation releases the queue entry.
type MemoryQueue struct {
	mu      sync.RWMutex
	pending map[string]Review
	waiters map[string]chan ReviewDecision

	sla      time.Duration
	observer observability.Observer
}

// NewMemoryQueue creates a MemoryQueue. sla is the operational review SLA:
// an Await that outlives it emits a stalled-case alert and keeps waiting.
func NewMemoryQueue(sla time.Duration, observer observability.Observer) *MemoryQueue {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &MemoryQueue{
		pending:  make(map[string]Review),
		waiters:  make(map[string]chan ReviewDecision),
		sla:      sla,
		observer: observer,
	}
}

// Enqueue registers the review and its decision channel.
func (q *MemoryQueue) Enqueue(ctx context.Context, review Review) error {
	q.mu.Lock()
	if _, exists := q.pending[review.ID]; exists {
		q.mu.Unlock()
		return fmt.Errorf("review already enqueued: %s", review.ID)
	}
	q.pending[review.ID] = review
	q.waiters[review.ID] = make(chan ReviewDecision, 1)
	q.mu.Unlock()

	q.observer.OnEvent(ctx, observability.Event{
		Type:      EventReviewEnqueued,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "escalation.MemoryQueue",
		Data: map[string]any{
			"review_id":  review.ID,
			"case_id":    review.CaseID,
			"checkpoint": string(review.Checkpoint),
			"reason":     string(review.Reason),
		},
	})

	return nil
}

// Decide delivers the human decision for a pending review. Called from the
// reviewer side (UI, ops tooling, tests).
func (q *MemoryQueue) Decide(reviewID string, decision ReviewDecision) error {
	q.mu.Lock()
	review, exists := q.pending[reviewID]
	if !exists {
		q.mu.Unlock()
		return fmt.Errorf("unknown review: %s", reviewID)
	}
	waiter := q.waiters[reviewID]
	delete(q.pending, reviewID)
	q.mu.Unlock()

	decision.ReviewID = reviewID
	decision.CaseID = review.CaseID
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = time.Now()
	}

	waiter <- decision

	q.observer.OnEvent(context.Background(), observability.Event{
		Type:      EventReviewDecision,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "escalation.MemoryQueue",
		Data: map[string]any{
			"review_id":   reviewID,
			"case_id":     review.CaseID,
			"approve":     decision.Approve,
			"reviewer_id": decision.ReviewerID,
		},
	})

	return nil
}

// Await blocks until the review is decided or ctx is cancelled. An SLA breach
// emits a stalled-case alert but keeps the case suspended; there is no
// automatic fallback to auto-approval. Cancellation releases the held entry.
func (q *MemoryQueue) Await(ctx context.Context, reviewID string) (ReviewDecision, error) {
	q.mu.RLock()
	waiter, exists := q.waiters[reviewID]
	q.mu.RUnlock()

	if !exists {
		return ReviewDecision{}, fmt.Errorf("unknown review: %s", reviewID)
	}

	slaTimer := time.NewTimer(q.sla)
	defer slaTimer.Stop()

	for {
		select {
		case decision := <-waiter:
			q.cleanup(reviewID)
			return decision, nil

		case <-slaTimer.C:
			q.observer.OnEvent(ctx, observability.Event{
				Type:      EventReviewStalled,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "escalation.MemoryQueue",
				Data: map[string]any{
					"review_id": reviewID,
					"sla":       q.sla.String(),
				},
			})
			slaTimer.Reset(q.sla)

		case <-ctx.Done():
			q.release(ctx, reviewID)
			return ReviewDecision{}, fmt.Errorf("review wait cancelled: %w", ctx.Err())
		}
	}
}

// Pending returns the reviews currently awaiting a decision, oldest first.
func (q *MemoryQueue) Pending() []Review {
	q.mu.RLock()
	defer q.mu.RUnlock()

	reviews := make([]Review, 0, len(q.pending))
	for _, r := range q.pending {
		reviews = append(reviews, r)
	}
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].EnqueuedAt.Equal(reviews[j].EnqueuedAt) {
			return reviews[i].ID < reviews[j].ID
		}
		return reviews[i].EnqueuedAt.Before(reviews[j].EnqueuedAt)
	})
	return reviews
}

func (q *MemoryQueue) cleanup(reviewID string) {
	q.mu.Lock()
	delete(q.waiters, reviewID)
	q.mu.Unlock()
}

func (q *MemoryQueue) release(ctx context.Context, reviewID string) {
	q.mu.Lock()
	_, held := q.pending[reviewID]
	delete(q.pending, reviewID)
	delete(q.waiters, reviewID)
	q.mu.Unlock()

	if held {
		q.observer.OnEvent(ctx, observability.Event{
			Type:      EventReviewReleased,
			Level:     observability.LevelInfo,
			Timestamp: time.Now(),
			Source:    "escalation.MemoryQueue",
			Data:      map[string]any{"review_id": reviewID},
		})
	}
}
