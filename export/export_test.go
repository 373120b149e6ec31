package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/stockroom/inventory-engine/catalog"
	"github.com/stockroom/inventory-engine/export"
	"github.com/stockroom/inventory-engine/ledger"
)

func sampleItems() []catalog.Item {
	return []catalog.Item{
		{
			ID: 1, Name: "Blue Pen", Category: "stationery", Barcode: "PEN-1",
			Quantity: 24, SalePrice: decimal.RequireFromString("1.20"), Location: "Shelf 2",
		},
		{
			ID: 2, Name: "Notebook", Category: "stationery", Barcode: "NB-1",
			Quantity: 5, SalePrice: decimal.RequireFromString("3.50"), Location: "Shelf 3",
		},
	}
}

func sampleTransactions() []ledger.Transaction {
	ts := time.Date(2025, time.August, 10, 12, 0, 0, 0, time.UTC)
	return []ledger.Transaction{
		{
			ID: 7, Timestamp: ts, PerformedBy: "alice", Type: ledger.TxSale,
			Customer: "walk-in", TotalAmount: decimal.RequireFromString("2.40"),
			Lines: []ledger.Line{
				{
					ID: 11, ItemID: 1, Barcode: "PEN-1", ItemName: "Blue Pen",
					QuantityChanged: -2, QuantityBefore: 24, QuantityAfter: 22,
					UnitPrice: decimal.RequireFromString("1.20"),
				},
			},
		},
	}
}

// =============================================================================
// CSV
// =============================================================================

func TestWriteTransactionsCSV(t *testing.T) {
	// GIVEN: One sale with one line
	// WHEN: Exporting to CSV
	// THEN: Header plus one row, with type, item snapshot, and quantities

	var buf bytes.Buffer
	require.NoError(t, export.WriteTransactionsCSV(&buf, sampleTransactions()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"transaction_id", "timestamp", "user", "type", "customer", "total_amount",
		"item_barcode", "item_name", "qty_changed", "qty_before", "qty_after", "unit_price",
	}, rows[0])

	row := rows[1]
	assert.Equal(t, "7", row[0])
	assert.Equal(t, "alice", row[2])
	assert.Equal(t, "sale", row[3])
	assert.Equal(t, "walk-in", row[4])
	assert.Equal(t, "2.4", row[5])
	assert.Equal(t, "PEN-1", row[6])
	assert.Equal(t, "Blue Pen", row[7])
	assert.Equal(t, "-2", row[8])
	assert.Equal(t, "24", row[9])
	assert.Equal(t, "22", row[10])
	assert.Equal(t, "1.2", row[11])
}

func TestWriteTransactionsCSV_TransactionWithoutLines(t *testing.T) {
	txs := sampleTransactions()
	txs[0].Lines = nil

	var buf bytes.Buffer
	require.NoError(t, export.WriteTransactionsCSV(&buf, txs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "a lineless transaction still exports one row")
	assert.Equal(t, "7", rows[1][0])
	assert.Empty(t, rows[1][6], "item columns stay empty")
}

// =============================================================================
// XLSX
// =============================================================================

func TestWriteInventoryXLSX(t *testing.T) {
	// GIVEN: Two catalog items
	// WHEN: Exporting the inventory workbook
	// THEN: The sheet reads back with a header row and both items

	var buf bytes.Buffer
	require.NoError(t, export.WriteInventoryXLSX(&buf, sampleItems()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	rows, err := f.GetRows("Inventory")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Barcode", "Name", "Category", "Quantity", "Sale Price", "Location"}, rows[0])
	assert.Equal(t, "PEN-1", rows[1][0])
	assert.Equal(t, "Blue Pen", rows[1][1])
	assert.Equal(t, "24", rows[1][3])
	assert.Equal(t, "NB-1", rows[2][0])
}

// =============================================================================
// PDF
// =============================================================================

func TestWriteInventoryPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteInventoryPDF(&buf, sampleItems()))

	// A structural read-back needs a PDF parser; asserting the magic
	// header and a non-trivial body is enough here.
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestWriteInventoryPDF_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteInventoryPDF(&buf, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
