package plans

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRepository_SaveGetDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	require.NoError(t, repo.Save(ctx, samplePlan("p1")))
	assert.ErrorIs(t, repo.Save(ctx, samplePlan("p1")), ErrPlanExists)

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, PlanID("p1"), got.ID)

	require.NoError(t, repo.Delete(ctx, "p1"))
	assert.ErrorIs(t, repo.Delete(ctx, "p1"), ErrPlanNotFound)

	n, err := repo.PlanCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreRepository_List_orders_by_decode_time(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"c", "a", "b"} {
		p := samplePlan(id)
		p.DecodedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Save(ctx, p))
	}
	tie := samplePlan("0")
	tie.DecodedAt = base
	require.NoError(t, repo.Save(ctx, tie))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]PlanID, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []PlanID{"0", "c", "a", "b"}, ids)
}

func TestNewRepositoryWithStore(t *testing.T) {
	store := NewInMemoryStore()
	repo := NewRepositoryWithStore(store)
	require.NoError(t, repo.Save(context.Background(), samplePlan("p1")))

	_, ok, err := store.GetPlan(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, ok, "injected store should contain the saved plan")
}

func TestStoreRepository_concurrent_saves(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.Save(ctx, samplePlan(fmt.Sprintf("p%02d", i))))
			_, err := repo.List(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := repo.PlanCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}
