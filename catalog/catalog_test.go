package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/inventory-engine/audit"
	"github.com/stockroom/inventory-engine/barcode"
	"github.com/stockroom/inventory-engine/catalog"
	"github.com/stockroom/inventory-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*catalog.Service, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return catalog.NewService(store), store
}

// collideStore wraps a real store and fails the first N inserts with a
// duplicate error, regardless of the generated code. Lets tests exercise
// the regenerate-and-retry loop deterministically.
type collideStore struct {
	catalog.Store
	remaining int
	attempts  []string
}

func (c *collideStore) InsertItem(ctx context.Context, item catalog.Item) (int64, error) {
	c.attempts = append(c.attempts, item.Barcode)
	if c.remaining > 0 {
		c.remaining--
		return 0, catalog.ErrDuplicateBarcode
	}
	return c.Store.InsertItem(ctx, item)
}

// =============================================================================
// ITEM CREATION
// =============================================================================

func TestService_CreateItem_GeneratesBarcode(t *testing.T) {
	// GIVEN: A create request without a barcode
	// WHEN: Creating the item
	// THEN: It gets a generated INV-prefixed identifier and an audit entry

	svc, store := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, catalog.CreateItemParams{
		Name:          "Widget",
		Quantity:      3,
		PurchasePrice: decimal.RequireFromString("1.00"),
		SalePrice:     decimal.RequireFromString("2.00"),
		Location:      "Aisle 3",
		User:          "alice",
	})
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.True(t, strings.HasPrefix(item.Barcode, barcode.DefaultPrefix))

	entries, err := store.RecentEntries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionAdd, entries[0].Action)
	assert.Equal(t, "alice", entries[0].User)
	assert.Equal(t, item.ID, entries[0].ItemID)
	assert.Equal(t, "Aisle 3", entries[0].Location)
}

func TestService_CreateItem_KeepsSuppliedBarcode(t *testing.T) {
	svc, _ := newTestService(t)

	item, err := svc.CreateItem(context.Background(), catalog.CreateItemParams{
		Name: "Widget", Barcode: "CUSTOM-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM-1", item.Barcode)
}

func TestService_CreateItem_SuppliedDuplicate_FailsImmediately(t *testing.T) {
	// GIVEN: "CUSTOM-1" already exists
	// WHEN: Creating another item with the same supplied barcode
	// THEN: DuplicateBarcodeError, no regeneration attempted

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, catalog.CreateItemParams{Name: "A", Barcode: "CUSTOM-1"})
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, catalog.CreateItemParams{Name: "B", Barcode: "CUSTOM-1"})
	var dup *catalog.DuplicateBarcodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "CUSTOM-1", dup.Barcode)
}

func TestService_CreateItem_RetriesGeneratedBarcodeOnCollision(t *testing.T) {
	// GIVEN: A store that reports a duplicate for the first two inserts
	// WHEN: Creating an item with a generated barcode
	// THEN: The third attempt succeeds with a fresh identifier

	inner, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })

	cs := &collideStore{Store: inner, remaining: 2}
	svc := catalog.NewServiceWith(cs, barcode.NewGenerator(""), barcode.RetryPolicy{MaxAttempts: 5})

	item, err := svc.CreateItem(context.Background(), catalog.CreateItemParams{Name: "Widget"})
	require.NoError(t, err)
	assert.Len(t, cs.attempts, 3)
	assert.Equal(t, cs.attempts[2], item.Barcode)
}

func TestService_CreateItem_ExhaustsRetries(t *testing.T) {
	// GIVEN: A store where every insert collides
	// WHEN: Creating with MaxAttempts = 3
	// THEN: ExhaustedRetriesError after exactly 3 attempts

	inner, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })

	cs := &collideStore{Store: inner, remaining: 1 << 30}
	svc := catalog.NewServiceWith(cs, barcode.NewGenerator(""), barcode.RetryPolicy{MaxAttempts: 3})

	_, err = svc.CreateItem(context.Background(), catalog.CreateItemParams{Name: "Widget"})
	var exhausted *catalog.ExhaustedRetriesError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Len(t, cs.attempts, 3)
}

func TestService_CreateItem_NegativeQuantity_Rejected(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateItem(context.Background(), catalog.CreateItemParams{
		Name: "Widget", Quantity: -1,
	})
	assert.ErrorIs(t, err, catalog.ErrNegativeQuantity)
}

// =============================================================================
// LOOKUP AND MUTATION
// =============================================================================

func TestService_GetByBarcode_Missing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByBarcode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestService_SetQuantity_WritesAndAudits(t *testing.T) {
	// GIVEN: An item with 3 in stock
	// WHEN: An operator sets the quantity to 12
	// THEN: The item reads back at 12 and an update entry was logged

	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, catalog.CreateItemParams{Name: "Widget", Quantity: 3, User: "alice"})
	require.NoError(t, err)

	updated, err := svc.SetQuantity(ctx, created.Barcode, 12, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(12), updated.Quantity)

	entries, err := store.RecentEntries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "create entry plus update entry")
	assert.Equal(t, audit.ActionUpdate, entries[0].Action)
	assert.Equal(t, "bob", entries[0].User)
	assert.Equal(t, int64(12), entries[0].Quantity)
}

func TestService_SetQuantity_NegativeRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, catalog.CreateItemParams{Name: "Widget", Quantity: 3})
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, created.Barcode, -1, "bob")
	assert.ErrorIs(t, err, catalog.ErrNegativeQuantity)
}

func TestService_Delete_RemovesItemAndAudits(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, catalog.CreateItemParams{Name: "Widget", User: "alice"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.Barcode, "alice"))

	_, err = svc.GetByBarcode(ctx, created.Barcode)
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)

	entries, err := store.RecentEntries(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, audit.ActionRemove, entries[0].Action)
}
