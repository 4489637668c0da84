package pipeline

import (
	"context"
	"sync"
	"time"
)

// CaseEvent is one entry in a case's append-only history stream.
type CaseEvent struct {
	CaseID string    `json:"case_id"`
	Status Status    `json:"status"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// EventSink receives the case history stream. Implementations must be safe
// for concurrent use; cases run in parallel.
type EventSink interface {
	Append(ctx context.Context, event CaseEvent) error
}

// MemorySink is an in-process EventSink keeping per-case history in order.
type MemorySink struct {
	mu     sync.RWMutex
	events map[string][]CaseEvent
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{events: make(map[string][]CaseEvent)}
}

func (s *MemorySink) Append(ctx context.Context, event CaseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.CaseID] = append(s.events[event.CaseID], event)
	return nil
}

// History returns the recorded events for one case in append order.
func (s *MemorySink) History(caseID string) []CaseEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]CaseEvent, len(s.events[caseID]))
	copy(history, s.events[caseID])
	return history
}

// noopSink discards the stream.
type noopSink struct{}

func (noopSink) Append(ctx context.Context, event CaseEvent) error { return nil }
