package supplier

import (
	"fmt"
	"sort"
	"sync"

	"github.com/quoteflow-systems/engine/domain"
)

// outcomeWeight controls how strongly one case outcome moves a supplier's
// reliability score (exponential moving average).
const outcomeWeight = 0.1

// Registry holds supplier profiles. Profiles are read-only reference data for
// pipeline stages; the only mutation is the reliability ledger, fed by
// completed case outcomes outside any per-case pipeline.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewRegistry creates a Registry seeded with the given profiles.
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

// Register adds or replaces a profile.
func (r *Registry) Register(p Profile) error {
	if p.ID == "" {
		return fmt.Errorf("supplier profile requires an id")
	}
	if p.Reliability < 0 || p.Reliability > 1 {
		return fmt.Errorf("supplier %s: reliability %v outside [0,1]", p.ID, p.Reliability)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p
	return nil
}

// Get returns the profile for the given supplier id.
func (r *Registry) Get(id string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	return p, ok
}

// Reliability returns the current reliability score for the supplier.
func (r *Registry) Reliability(id string) (float64, bool) {
	p, ok := r.Get(id)
	return p.Reliability, ok
}

// Eligible returns the profiles whose eligibility predicate holds for the
// request, ordered by supplier id so callers see a deterministic set.
func (r *Registry) Eligible(req domain.StructuredRequest) []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eligible := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if p.Eligible(req) {
			eligible = append(eligible, p)
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].ID < eligible[j].ID
	})
	return eligible
}

// RecordOutcome feeds one completed case outcome into the reliability ledger.
// Accepted outcomes pull the score toward 1, rejected outcomes toward 0,
// using an exponential moving average so a single case never swings the score.
func (r *Registry) RecordOutcome(supplierID string, accepted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[supplierID]
	if !ok {
		return fmt.Errorf("unknown supplier: %s", supplierID)
	}

	target := 0.0
	if accepted {
		target = 1.0
	}
	p.Reliability = (1-outcomeWeight)*p.Reliability + outcomeWeight*target
	r.profiles[supplierID] = p
	return nil
}
