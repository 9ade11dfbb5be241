package plans

import (
	"context"
	"sort"
)

// Store is the persistence abstraction for decoded plans.
// Implementations can be in-memory or remote (see RedisStore).
// The Repository uses Store for all reads and writes and serialises access;
// callers of Repository do not need to know which Store is used.
type Store interface {
	GetPlan(ctx context.Context, id PlanID) (*StoredPlan, bool, error)
	SetPlan(ctx context.Context, p *StoredPlan) error
	DeletePlan(ctx context.Context, id PlanID) (bool, error)
	ListPlanIDs(ctx context.Context) ([]PlanID, error)
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	plans map[PlanID]*StoredPlan
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		plans: make(map[PlanID]*StoredPlan),
	}
}

// GetPlan implements Store.GetPlan.
func (s *InMemoryStore) GetPlan(_ context.Context, id PlanID) (*StoredPlan, bool, error) {
	p, ok := s.plans[id]
	return p, ok, nil
}

// SetPlan implements Store.SetPlan.
func (s *InMemoryStore) SetPlan(_ context.Context, p *StoredPlan) error {
	s.plans[p.ID] = p
	return nil
}

// DeletePlan implements Store.DeletePlan.
func (s *InMemoryStore) DeletePlan(_ context.Context, id PlanID) (bool, error) {
	if _, ok := s.plans[id]; !ok {
		return false, nil
	}
	delete(s.plans, id)
	return true, nil
}

// ListPlanIDs implements Store.ListPlanIDs. IDs are returned sorted.
func (s *InMemoryStore) ListPlanIDs(_ context.Context) ([]PlanID, error) {
	ids := make([]PlanID, 0, len(s.plans))
	for id := range s.plans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
