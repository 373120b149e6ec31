package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/inventory-engine/audit"
	"github.com/stockroom/inventory-engine/catalog"
	"github.com/stockroom/inventory-engine/ledger"
	"github.com/stockroom/inventory-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func insertItem(t *testing.T, store *sqlite.Store, barcode string, qty int64) catalog.Item {
	t.Helper()
	item := catalog.Item{
		Name:          "Item " + barcode,
		Barcode:       barcode,
		Quantity:      qty,
		PurchasePrice: decimal.RequireFromString("1.50"),
		SalePrice:     decimal.RequireFromString("3.00"),
	}
	id, err := store.InsertItem(context.Background(), item)
	require.NoError(t, err)
	item.ID = id
	return item
}

// =============================================================================
// ITEMS
// =============================================================================

func TestStore_InsertItem_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := catalog.Item{
		Name:          "Blue Pen",
		Category:      "stationery",
		Barcode:       "PEN-1",
		Quantity:      24,
		Supplier:      "Acme",
		PurchasePrice: decimal.RequireFromString("0.35"),
		SalePrice:     decimal.RequireFromString("1.20"),
		Location:      "Shelf 2",
	}
	id, err := store.InsertItem(ctx, item)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := store.ItemByBarcode(ctx, "PEN-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Blue Pen", got.Name)
	assert.Equal(t, "stationery", got.Category)
	assert.Equal(t, int64(24), got.Quantity)
	assert.Equal(t, "Acme", got.Supplier)
	assert.Equal(t, "0.35", got.PurchasePrice.String())
	assert.Equal(t, "1.2", got.SalePrice.String())
	assert.Equal(t, "Shelf 2", got.Location)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_InsertItem_DuplicateBarcode(t *testing.T) {
	store := newTestStore(t)
	insertItem(t, store, "DUP-1", 1)

	_, err := store.InsertItem(context.Background(), catalog.Item{Name: "Other", Barcode: "DUP-1"})
	assert.ErrorIs(t, err, catalog.ErrDuplicateBarcode)
}

func TestStore_ItemByBarcode_MissingIsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.ItemByBarcode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ListItems_OrderedByID(t *testing.T) {
	store := newTestStore(t)
	insertItem(t, store, "A-1", 1)
	insertItem(t, store, "B-1", 2)

	items, err := store.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A-1", items[0].Barcode)
	assert.Equal(t, "B-1", items[1].Barcode)
}

// =============================================================================
// TRANSACTIONS AND ROLLBACK
// =============================================================================

func TestStore_WithTx_ErrorRollsBackEverything(t *testing.T) {
	// GIVEN: A transaction row and a quantity update written inside WithTx
	// WHEN: The closure returns an error
	// THEN: Neither write is visible afterwards

	store := newTestStore(t)
	ctx := context.Background()
	item := insertItem(t, store, "W-1", 10)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx ledger.Tx) error {
		if err := tx.UpdateItemQuantity(ctx, item.ID, 1); err != nil {
			return err
		}
		rec := ledger.Transaction{
			Timestamp:      time.Now().UTC(),
			PerformedBy:    "alice",
			Type:           ledger.TxSale,
			TotalAmount:    decimal.Zero,
			IdempotencyKey: "k-1",
		}
		if err := tx.InsertTransaction(ctx, &rec); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.ItemByBarcode(ctx, "W-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)

	n, err := store.CountRows(ctx, "transactions")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_InsertTransaction_DuplicateKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	write := func() error {
		return store.WithTx(ctx, func(tx ledger.Tx) error {
			rec := ledger.Transaction{
				Timestamp:      time.Now().UTC(),
				PerformedBy:    "alice",
				Type:           ledger.TxSale,
				TotalAmount:    decimal.Zero,
				IdempotencyKey: "same-key",
			}
			return tx.InsertTransaction(ctx, &rec)
		})
	}

	require.NoError(t, write())
	assert.ErrorIs(t, write(), ledger.ErrDuplicateTransaction)
}

func TestStore_TransactionByID_RoundTripWithLines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	item := insertItem(t, store, "W-1", 10)

	var txID int64
	err := store.WithTx(ctx, func(tx ledger.Tx) error {
		rec := ledger.Transaction{
			Timestamp:      time.Now().UTC().Truncate(time.Second),
			PerformedBy:    "alice",
			Type:           ledger.TxSale,
			Customer:       "walk-in",
			TotalAmount:    decimal.RequireFromString("6.00"),
			Notes:          "till 2",
			IdempotencyKey: "k-1",
		}
		if err := tx.InsertTransaction(ctx, &rec); err != nil {
			return err
		}
		txID = rec.ID
		line := ledger.Line{
			ItemID:          item.ID,
			Barcode:         item.Barcode,
			ItemName:        item.Name,
			QuantityChanged: -2,
			QuantityBefore:  10,
			QuantityAfter:   8,
			UnitPrice:       decimal.RequireFromString("3.00"),
		}
		return tx.InsertLine(ctx, rec.ID, &line)
	})
	require.NoError(t, err)

	got, err := store.TransactionByID(ctx, txID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "walk-in", got.Customer)
	assert.Equal(t, "till 2", got.Notes)
	assert.Equal(t, "6", got.TotalAmount.String())
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(-2), got.Lines[0].QuantityChanged)
	assert.Equal(t, "Item W-1", got.Lines[0].ItemName)
}

func TestStore_TransactionByID_Missing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.TransactionByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_LineSnapshots_SurviveItemDeletion(t *testing.T) {
	// GIVEN: A committed sale against an item
	// WHEN: The item is later deleted from the catalog
	// THEN: The transaction's line still carries the barcode and name

	store := newTestStore(t)
	ctx := context.Background()
	item := insertItem(t, store, "W-1", 10)

	engine := ledger.NewEngine(store)
	res, err := engine.Apply(ctx, ledger.Request{
		Type:        ledger.TxSale,
		PerformedBy: "alice",
		Lines:       []ledger.LineRequest{{Barcode: "W-1", Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteItem(ctx, item.ID))

	got, err := store.TransactionByID(ctx, res.Transaction.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "W-1", got.Lines[0].Barcode)
	assert.Equal(t, "Item W-1", got.Lines[0].ItemName)
}

func TestStore_RecentTransactions_NewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertItem(t, store, "W-1", 100)

	engine := ledger.NewEngine(store)
	for i := 0; i < 3; i++ {
		_, err := engine.Apply(ctx, ledger.Request{
			Type:        ledger.TxSale,
			PerformedBy: "alice",
			Lines:       []ledger.LineRequest{{Barcode: "W-1", Quantity: 1}},
		})
		require.NoError(t, err)
	}

	txs, err := store.RecentTransactions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Greater(t, txs[0].ID, txs[1].ID)
}

// =============================================================================
// AUDIT READS
// =============================================================================

func TestStore_RecentEntries_NewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, store.AppendLog(ctx, audit.Entry{
			User: "alice", Action: audit.ActionAdd, ItemID: i, Quantity: i, Location: "N/A",
		}))
	}

	entries, err := store.RecentEntries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].ItemID, "most recent first")
	assert.Equal(t, int64(2), entries[1].ItemID)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestStore_LowStockThreshold_DefaultAndOverride(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	threshold, err := store.LowStockThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(ledger.DefaultLowStockThreshold), threshold)

	require.NoError(t, store.SetLowStockThreshold(ctx, 9))
	threshold, err = store.LowStockThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), threshold)

	// Upsert, not insert-once.
	require.NoError(t, store.SetLowStockThreshold(ctx, 2))
	threshold, err = store.LowStockThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), threshold)
}

// =============================================================================
// TEST HELPERS
// =============================================================================

func TestStore_CountRows_RejectsUnknownTable(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CountRows(context.Background(), "users; DROP TABLE items")
	assert.Error(t, err)
}
