package escalation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quoteflow-systems/engine/domain"
	"github.com/quoteflow-systems/engine/escalation"
	"github.com/quoteflow-systems/engine/observability"
)

func TestMemoryQueue_EnqueueAwaitDecide(t *testing.T) {
	queue := escalation.NewMemoryQueue(time.Minute, nil)
	review := escalation.NewReview("case-1", domain.CheckpointNegotiation, domain.ReasonHighValueOrStrategic, nil)

	if err := queue.Enqueue(context.Background(), review); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	done := make(chan escalation.ReviewDecision, 1)
	go func() {
		decision, err := queue.Await(context.Background(), review.ID)
		if err != nil {
			t.Errorf("Await failed: %v", err)
		}
		done <- decision
	}()

	// Give Await a moment to start blocking.
	time.Sleep(10 * time.Millisecond)

	revised := &domain.RawQuote{SupplierID: "sup-1", UnitPrice: 0.95, QuantityOffered: 1000}
	err := queue.Decide(review.ID, escalation.ReviewDecision{
		Approve:    true,
		Quote:      revised,
		ReviewerID: "reviewer-7",
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	select {
	case decision := <-done:
		if !decision.Approve {
			t.Error("expected approved decision")
		}
		if decision.CaseID != "case-1" {
			t.Errorf("case id = %s, want case-1", decision.CaseID)
		}
		if decision.Quote == nil || decision.Quote.UnitPrice != 0.95 {
			t.Errorf("expected revised quote to pass through, got %+v", decision.Quote)
		}
	case <-time.After(time.Second):
		t.Fatal("Await did not resume after Decide")
	}
}

func TestMemoryQueue_DecideUnknownReview(t *testing.T) {
	queue := escalation.NewMemoryQueue(time.Minute, nil)
	if err := queue.Decide("nope", escalation.ReviewDecision{}); err == nil {
		t.Error("expected error for unknown review")
	}
}

func TestMemoryQueue_DuplicateEnqueue(t *testing.T) {
	queue := escalation.NewMemoryQueue(time.Minute, nil)
	review := escalation.NewReview("case-1", domain.CheckpointFinalOffer, domain.ReasonValueExceedsCeiling, nil)

	if err := queue.Enqueue(context.Background(), review); err != nil {
		t.Fatalf("first Enqueue failed: %v", err)
	}
	if err := queue.Enqueue(context.Background(), review); err == nil {
		t.Error("expected error for duplicate enqueue")
	}
}

func TestMemoryQueue_CancelReleasesEntry(t *testing.T) {
	queue := escalation.NewMemoryQueue(time.Minute, nil)
	review := escalation.NewReview("case-1", domain.CheckpointFinalOffer, domain.ReasonValueExceedsCeiling, nil)

	if err := queue.Enqueue(context.Background(), review); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if len(queue.Pending()) != 1 {
		t.Fatalf("expected 1 pending review, got %d", len(queue.Pending()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := queue.Await(ctx, review.ID); err == nil {
		t.Fatal("expected cancellation error")
	}
	if len(queue.Pending()) != 0 {
		t.Errorf("cancelled wait should release the queue entry, %d still pending", len(queue.Pending()))
	}
}

func TestMemoryQueue_SLABreachAlertsButStaysSuspended(t *testing.T) {
	var events []observability.Event
	observer := &captureObserver{events: &events}

	queue := escalation.NewMemoryQueue(20*time.Millisecond, observer)
	review := escalation.NewReview("case-1", domain.CheckpointFinalOffer, domain.ReasonValueExceedsCeiling, nil)

	if err := queue.Enqueue(context.Background(), review); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	done := make(chan escalation.ReviewDecision, 1)
	go func() {
		decision, err := queue.Await(context.Background(), review.ID)
		if err != nil {
			t.Errorf("Await failed: %v", err)
		}
		done <- decision
	}()

	// Let the SLA expire at least once before the reviewer responds.
	time.Sleep(60 * time.Millisecond)

	select {
	case <-done:
		t.Fatal("Await resumed without a decision after SLA breach")
	default:
	}

	if err := queue.Decide(review.ID, escalation.ReviewDecision{Approve: true, ReviewerID: "r1"}); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	select {
	case decision := <-done:
		if !decision.Approve {
			t.Error("expected approved decision after stall")
		}
	case <-time.After(time.Second):
		t.Fatal("Await did not resume after decision")
	}

	stalled := false
	observer.mu.Lock()
	for _, event := range events {
		if event.Type == escalation.EventReviewStalled {
			stalled = true
		}
	}
	observer.mu.Unlock()
	if !stalled {
		t.Error("expected a stalled-case alert event after SLA breach")
	}
}

type captureObserver struct {
	mu     sync.Mutex
	events *[]observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.events = append(*c.events, event)
}
