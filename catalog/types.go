/*
Package catalog owns item records: identity, current stock quantity,
pricing, and location.

PURPOSE:
  The catalog is the durable mapping from item identity to its current
  attributes, with the external identifier (barcode) enforced unique.
  Quantity is mutated only through the ledger engine's atomic apply, or
  through the audited maintenance operations in this package.

KEY CONCEPTS:
  - Item: the catalog record. Prices use decimal.Decimal to avoid
    floating-point drift in totals.
  - Service: maintenance operations (create with identifier retry,
    quantity set, delete), each emitting an audit entry.
  - Store: persistence contract implemented by store/sqlite.

SEE ALSO:
  - catalog.go: Service operations
  - ledger/engine.go: The only other writer of item quantity
*/
package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockroom/inventory-engine/audit"
)

// Item is a catalog record. ID is assigned by the store on insert.
type Item struct {
	ID            int64
	Name          string
	Category      string
	Barcode       string
	Quantity      int64
	Supplier      string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Location      string
	CreatedAt     time.Time
}

// Store is the persistence contract for catalog maintenance.
type Store interface {
	// InsertItem persists a new item and returns its assigned id.
	// Returns ErrDuplicateBarcode when the barcode already exists.
	InsertItem(ctx context.Context, item Item) (int64, error)

	// ItemByBarcode resolves an item by its external identifier.
	// Returns (nil, nil) when no item matches.
	ItemByBarcode(ctx context.Context, barcode string) (*Item, error)

	// ListItems returns all items ordered by id.
	ListItems(ctx context.Context) ([]Item, error)

	// SetItemQuantity writes the quantity unconditionally. Callers must
	// have validated non-negativity.
	SetItemQuantity(ctx context.Context, itemID, quantity int64) error

	// DeleteItem removes the item. Historical transaction line items
	// keep their denormalized snapshot.
	DeleteItem(ctx context.Context, itemID int64) error

	// AppendLog writes one audit trail entry.
	AppendLog(ctx context.Context, entry audit.Entry) error
}
