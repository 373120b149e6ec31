/*
Package audit defines the append-only audit trail written as a side effect
of every mutating operation.

PURPOSE:
  Two projections are kept:
  - Entry: one row per item touched by any mutation (catalog maintenance
    or ledger transaction). The action label mirrors the transaction type
    or the maintenance action.
  - SaleRecord: a denormalized per-item row kept only for sale
    transactions, for legacy/simple reporting.

INVARIANTS:
  - Append-only: no update or delete path exists for either projection.
  - Rows emitted by the ledger engine are written in the same database
    transaction as the stock change they describe.

SEE ALSO:
  - ledger/engine.go: Writes entries and sale records atomically
  - catalog/catalog.go: Writes entries for maintenance actions
  - store/sqlite/sqlite.go: Persistence and read-back
*/
package audit

import (
	"context"
	"time"
)

// Maintenance action labels. Ledger transactions log their transaction
// type as the action instead.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionRemove = "remove"
)

// Entry is one audit log row.
type Entry struct {
	ID        int64
	Timestamp time.Time
	User      string
	Action    string
	ItemID    int64
	Quantity  int64
	Location  string
}

// SaleRecord is one row of the sale projection.
type SaleRecord struct {
	ID        int64
	Timestamp time.Time
	User      string
	ItemID    int64
	QtySold   int64
}

// Reader provides ordered read-back for presentation adapters.
// Results are most-recent-first.
type Reader interface {
	RecentEntries(ctx context.Context, limit int) ([]Entry, error)
	RecentSales(ctx context.Context, limit int) ([]SaleRecord, error)
}
