package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/domain"
)

type fakeCatalog map[int64]domain.Product

func (f fakeCatalog) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	p, ok := f[id]
	if !ok {
		return domain.Product{}, domain.NewError(domain.KindNotFound, domain.ErrMsgProductNotFound)
	}
	return p, nil
}

func newTestStore() *Store {
	return NewStore(fakeCatalog{
		1: {ID: 1, Name: "A", Price: decimal.RequireFromString("3.00")},
		2: {ID: 2, Name: "B", Price: decimal.RequireFromString("5.00")},
	})
}

func TestStore_RemoveDeletesWholeEntry(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.Add(ctx, 1, 1)
	require.NoError(t, err)
	_, err = s.Add(ctx, 1, 1)
	require.NoError(t, err)
	s.Remove(1, 1)
	snap, err := s.Add(ctx, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Quantity(1))
}

func TestStore_AddUnknownProduct(t *testing.T) {
	s := newTestStore()

	_, err := s.Add(context.Background(), 1, 99)
	assert.True(t, domain.IsKind(err, domain.KindInvalidProduct), "got %v", err)
	assert.True(t, s.Snapshot(1).IsEmpty())
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	s := newTestStore()
	snap := s.Remove(1, 2)
	assert.True(t, snap.IsEmpty())
}

func TestStore_SnapshotIsCopyAndOrdered(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	_, _ = s.Add(ctx, 1, 2)
	_, _ = s.Add(ctx, 1, 1)

	snap := s.Snapshot(1)
	require.Equal(t, Snapshot{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}}, snap)

	snap[0].Quantity = 100
	_, _ = s.Add(ctx, 1, 1)
	assert.Equal(t, 2, s.Snapshot(1).Quantity(1))
}

func TestStore_TablesAreIndependent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	_, _ = s.Add(ctx, 1, 1)
	_, _ = s.Add(ctx, 2, 2)

	s.Clear(1)
	assert.True(t, s.Snapshot(1).IsEmpty())
	assert.Equal(t, 1, s.Snapshot(2).Quantity(2))
}

func TestStore_ConsumeKeepsLaterAdditions(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	_, _ = s.Add(ctx, 1, 1)
	_, _ = s.Add(ctx, 1, 1)
	_, _ = s.Add(ctx, 1, 2)
	merged := s.Snapshot(1)

	_, _ = s.Add(ctx, 1, 1)
	s.Consume(1, merged)

	assert.Equal(t, Snapshot{{ProductID: 1, Quantity: 1}}, s.Snapshot(1))

	s.Consume(1, s.Snapshot(1))
	assert.True(t, s.Snapshot(1).IsEmpty())
}

func TestStore_ConcurrentAddsAreNotLost(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(ctx, 7, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, s.Snapshot(7).Quantity(1))
}

func TestStore_PricedUsesCurrentPrices(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	for _, id := range []int64{2, 1, 1} {
		_, err := s.Add(ctx, 7, id)
		require.NoError(t, err)
	}

	priced, err := s.Priced(ctx, 7)
	require.NoError(t, err)
	require.Len(t, priced.Entries, 2)
	assert.Equal(t, "A", priced.Entries[0].Product.Name)
	assert.True(t, priced.Entries[0].Subtotal.Equal(decimal.RequireFromString("6.00")))
	assert.True(t, priced.Total.Equal(decimal.RequireFromString("11.00")))

	total, err := s.Total(ctx, 8)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestStore_PricedFlagsDeletedProduct(t *testing.T) {
	catalog := fakeCatalog{
		1: {ID: 1, Name: "A", Price: decimal.RequireFromString("3.00")},
		2: {ID: 2, Name: "B", Price: decimal.RequireFromString("5.00")},
	}
	s := NewStore(catalog)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 2} {
		_, err := s.Add(ctx, 7, id)
		require.NoError(t, err)
	}
	delete(catalog, 2)

	_, err := s.Add(ctx, 7, 1)
	require.NoError(t, err, "a stale entry does not block adding a valid product")

	priced, err := s.Priced(ctx, 7)
	require.NoError(t, err)
	require.Len(t, priced.Entries, 2)
	assert.False(t, priced.Entries[0].Unavailable)
	assert.True(t, priced.Entries[1].Unavailable)
	assert.Equal(t, 2, priced.Entries[1].Quantity)
	assert.True(t, priced.Total.Equal(decimal.RequireFromString("6.00")), "stale entry is not priced")
}
