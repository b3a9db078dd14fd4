package localstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waving/storefront/internal/cart/domain"
)

// failingStorage simulates an unavailable backing store.
type failingStorage struct {
	err error
}

func (s *failingStorage) Get(context.Context, string) (string, error) { return "", s.err }
func (s *failingStorage) Set(context.Context, string, string) error   { return s.err }
func (s *failingStorage) Remove(context.Context, string) error        { return s.err }

func testItem(productID string, qty int) domain.LineItem {
	return domain.LineItem{
		ID:        domain.NewLocalItemID(),
		ProductID: productID,
		Quantity:  qty,
		Product: domain.ProductSnapshot{
			ID:    productID,
			Name:  "Product " + productID,
			Price: 9.99,
		},
	}
}

func TestStoreAddMergesByProductID(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryStorage(), Namespace+":g1")

	require.NoError(t, store.Add(ctx, testItem("p1", 2)))
	require.NoError(t, store.Add(ctx, testItem("p2", 1)))
	require.NoError(t, store.Add(ctx, testItem("p1", 3)))

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, "p2", items[1].ProductID)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestStoreListEmptyWhenNothingPersisted(t *testing.T) {
	store := NewStore(NewMemoryStorage(), Namespace+":g1")

	items, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	store := NewStore(storage, Namespace+":g1")
	require.NoError(t, store.Add(ctx, testItem("p1", 2)))

	// A fresh store over the same storage sees the persisted lines
	reopened := NewStore(storage, Namespace+":g1")
	items, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
}

func TestStoreUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryStorage(), Namespace+":g1")

	require.NoError(t, store.Add(ctx, testItem("p1", 2)))
	require.NoError(t, store.UpdateQuantity(ctx, "p1", 7))

	items, _ := store.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestStoreUpdateQuantityMissingLineIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryStorage(), Namespace+":g1")

	require.NoError(t, store.Add(ctx, testItem("p1", 2)))
	require.NoError(t, store.UpdateQuantity(ctx, "missing", 7))

	items, _ := store.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestStoreRemove(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryStorage(), Namespace+":g1")

	require.NoError(t, store.Add(ctx, testItem("p1", 2)))
	require.NoError(t, store.Add(ctx, testItem("p2", 1)))
	require.NoError(t, store.Remove(ctx, "p1"))

	items, _ := store.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)

	// Removing an absent line is a no-op
	require.NoError(t, store.Remove(ctx, "p1"))
	items, _ = store.List(ctx)
	assert.Len(t, items, 1)
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := NewStore(storage, Namespace+":g1")

	require.NoError(t, store.Add(ctx, testItem("p1", 2)))
	require.NoError(t, store.Clear(ctx))

	items, _ := store.List(ctx)
	assert.Empty(t, items)

	// The key is gone, not set to "[]"
	_, err := storage.Get(ctx, Namespace+":g1")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Clearing again is a no-op
	require.NoError(t, store.Clear(ctx))
}

func TestStoreTotalCount(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryStorage(), Namespace+":g1")

	count, err := store.TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Add(ctx, testItem("p1", 2)))
	require.NoError(t, store.Add(ctx, testItem("p2", 3)))

	count, err = store.TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestStoreDegradesWhenStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&failingStorage{err: errors.New("storage down")}, Namespace+":g1")

	items, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.NoError(t, store.Add(ctx, testItem("p1", 1)))
	assert.NoError(t, store.UpdateQuantity(ctx, "p1", 2))
	assert.NoError(t, store.Remove(ctx, "p1"))
	assert.NoError(t, store.Clear(ctx))

	count, err := store.TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStoreCorruptPayloadTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, Namespace+":g1", "{not json"))

	store := NewStore(storage, Namespace+":g1")
	items, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStoresIsolatePerGuest(t *testing.T) {
	ctx := context.Background()
	stores := NewStores(NewMemoryStorage())

	require.NoError(t, stores.ForGuest("g1").Add(ctx, testItem("p1", 1)))
	require.NoError(t, stores.ForGuest("g2").Add(ctx, testItem("p2", 4)))

	g1, _ := stores.ForGuest("g1").List(ctx)
	g2, _ := stores.ForGuest("g2").List(ctx)
	require.Len(t, g1, 1)
	require.Len(t, g2, 1)
	assert.Equal(t, "p1", g1[0].ProductID)
	assert.Equal(t, "p2", g2[0].ProductID)
}
