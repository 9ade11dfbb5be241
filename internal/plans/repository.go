package plans

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Repository defines the concurrency-safe contract for storing decoded plans.
type Repository interface {
	// Save stores a new plan. Saving an ID that already exists returns ErrPlanExists.
	Save(ctx context.Context, p *StoredPlan) error

	// Get returns the plan with the given ID, or ErrPlanNotFound.
	Get(ctx context.Context, id PlanID) (*StoredPlan, error)

	// List returns every stored plan ordered by decode time, then ID.
	List(ctx context.Context) ([]*StoredPlan, error)

	// Delete removes a plan, or returns ErrPlanNotFound.
	Delete(ctx context.Context, id PlanID) error

	// PlanCount returns the number of stored plans. Used for metrics.
	PlanCount(ctx context.Context) (int, error)
}

var (
	// ErrPlanNotFound is returned when no plan is stored under an ID.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrPlanExists is returned when saving a plan whose ID is already taken.
	ErrPlanExists = errors.New("plan already exists")
)

// StoreRepository is a concurrency-safe Repository over a Store.
// By default that is an InMemoryStore.
type StoreRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a repository with a default in-memory store.
func NewInMemoryRepository() *StoreRepository {
	return NewRepositoryWithStore(NewInMemoryStore())
}

// NewRepositoryWithStore constructs a repository that uses the given Store.
func NewRepositoryWithStore(store Store) *StoreRepository {
	return &StoreRepository{store: store}
}

// Save implements Repository.Save.
func (r *StoreRepository) Save(ctx context.Context, p *StoredPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists, err := r.store.GetPlan(ctx, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrPlanExists
	}
	return r.store.SetPlan(ctx, p)
}

// Get implements Repository.Get.
func (r *StoreRepository) Get(ctx context.Context, id PlanID) (*StoredPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok, err := r.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

// List implements Repository.List.
func (r *StoreRepository) List(ctx context.Context) ([]*StoredPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, err := r.store.ListPlanIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*StoredPlan, 0, len(ids))
	for _, id := range ids {
		p, ok, err := r.store.GetPlan(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DecodedAt.Equal(out[j].DecodedAt) {
			return out[i].DecodedAt.Before(out[j].DecodedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete implements Repository.Delete.
func (r *StoreRepository) Delete(ctx context.Context, id PlanID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted, err := r.store.DeletePlan(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPlanNotFound
	}
	return nil
}

// PlanCount implements Repository.PlanCount.
func (r *StoreRepository) PlanCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, err := r.store.ListPlanIDs(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
