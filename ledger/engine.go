/*
engine.go - The transaction apply algorithm

PURPOSE:
  Engine.Apply is the single entry point for stock-changing events. It
  validates the request, resolves every line against the catalog,
  computes signed deltas and the total amount, and commits all rows
  (transaction, line items, quantity updates, audit entries, sale
  projection) as one database transaction.

ALGORITHM:
  1. Validate type, quantities, adjustment signs (no persistence yet)
  2. Inside one store transaction:
     a. Resolve each line's item by barcode; missing item aborts
     b. Compute quantity_after per line; a negative result aborts
     c. Insert transaction row, then per line: update item quantity,
        insert line item, insert audit entry, insert sale record (sale
        type only)
  3. On commit, evaluate the low-stock policy per affected item

CONCURRENCY:
  The whole read-compute-write runs inside Store.WithTx, which the
  SQLite store serializes under its writer lock. Concurrent applies
  against the same item cannot interleave their check-then-act.

MULTI-LINE SAME ITEM:
  Lines are resolved in request order against a running quantity, so a
  transaction naming the same item twice chains before/after values and
  the conservation invariant holds per item, not just per line.

SEE ALSO:
  - store/sqlite/sqlite.go: WithTx implementation and row mapping
  - totals.go: Total-amount policy
*/
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockroom/inventory-engine/audit"
	"github.com/stockroom/inventory-engine/catalog"
)

// DefaultLowStockThreshold applies when the settings store has no
// configured value.
const DefaultLowStockThreshold = 5

// =============================================================================
// STORE CONTRACT
// =============================================================================

// Store is the persistence contract the engine drives. Implemented by
// store/sqlite.
type Store interface {
	// WithTx runs fn inside one database transaction. An error from fn
	// rolls back every write made through the Tx.
	WithTx(ctx context.Context, fn func(Tx) error) error

	// LowStockThreshold returns the configured threshold, or
	// DefaultLowStockThreshold when none is set.
	LowStockThreshold(ctx context.Context) (int64, error)
}

// Tx is the write surface available inside a store transaction.
type Tx interface {
	// ItemByBarcode resolves an item. Returns (nil, nil) when missing.
	ItemByBarcode(ctx context.Context, barcode string) (*catalog.Item, error)

	// UpdateItemQuantity writes an already-validated quantity.
	UpdateItemQuantity(ctx context.Context, itemID, quantity int64) error

	// InsertTransaction persists the transaction row and sets tx.ID.
	// Returns ErrDuplicateTransaction when the idempotency key exists.
	InsertTransaction(ctx context.Context, tx *Transaction) error

	// InsertLine persists one line item row and sets line.ID.
	InsertLine(ctx context.Context, transactionID int64, line *Line) error

	// InsertLog appends one audit trail entry.
	InsertLog(ctx context.Context, entry audit.Entry) error

	// InsertSale appends one sale projection row.
	InsertSale(ctx context.Context, rec audit.SaleRecord) error
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies transactions against a Store.
type Engine struct {
	store  Store
	totals TotalRule
}

// Option configures an Engine.
type Option func(*Engine)

// WithTotalRule overrides the total-amount policy.
func WithTotalRule(rule TotalRule) Option {
	return func(e *Engine) { e.totals = rule }
}

// NewEngine creates an Engine using DefaultTotalRule.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, totals: DefaultTotalRule}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply validates and atomically applies one transaction.
//
// On success the returned Result carries the committed transaction with
// assigned ids and any low-stock warnings. On failure no state changed.
func (e *Engine) Apply(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	now := time.Now().UTC()
	record := Transaction{
		Timestamp:      now,
		PerformedBy:    req.PerformedBy,
		Type:           req.Type,
		Customer:       req.Customer,
		Notes:          req.Notes,
		IdempotencyKey: key,
	}

	err := e.store.WithTx(ctx, func(st Tx) error {
		// Running quantity per item so repeated lines chain correctly.
		current := make(map[int64]int64)

		for _, lr := range req.Lines {
			item, err := st.ItemByBarcode(ctx, lr.Barcode)
			if err != nil {
				return err
			}
			if item == nil {
				return &ItemNotFoundError{Barcode: lr.Barcode}
			}

			before, ok := current[item.ID]
			if !ok {
				before = item.Quantity
			}

			changed := signedDelta(req.Type, lr)
			after := before + changed
			if after < 0 {
				return &InsufficientStockError{
					Barcode:   item.Barcode,
					ItemName:  item.Name,
					Available: before,
					Requested: lr.Quantity,
				}
			}
			current[item.ID] = after

			record.Lines = append(record.Lines, Line{
				ItemID:          item.ID,
				Barcode:         item.Barcode,
				ItemName:        item.Name,
				QuantityChanged: changed,
				QuantityBefore:  before,
				QuantityAfter:   after,
				UnitPrice:       unitPrice(req.Type, item),
			})
		}

		record.TotalAmount = e.totals(req.Type, record.Lines)

		if err := st.InsertTransaction(ctx, &record); err != nil {
			return err
		}

		for i := range record.Lines {
			ln := &record.Lines[i]

			if err := st.UpdateItemQuantity(ctx, ln.ItemID, ln.QuantityAfter); err != nil {
				return err
			}
			if err := st.InsertLine(ctx, record.ID, ln); err != nil {
				return err
			}
			if err := st.InsertLog(ctx, audit.Entry{
				Timestamp: now,
				User:      req.PerformedBy,
				Action:    string(req.Type),
				ItemID:    ln.ItemID,
				Quantity:  ln.QuantityChanged,
				Location:  "N/A",
			}); err != nil {
				return err
			}
			if req.Type == TxSale {
				sold := ln.QuantityChanged
				if sold < 0 {
					sold = -sold
				}
				if err := st.InsertSale(ctx, audit.SaleRecord{
					Timestamp: now,
					User:      req.PerformedBy,
					ItemID:    ln.ItemID,
					QtySold:   sold,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return &Result{
		Transaction: record,
		Warnings:    e.lowStockWarnings(ctx, record.Lines),
	}, nil
}

// lowStockWarnings evaluates the post-commit low-stock policy. Warnings
// are informational; an error reading the threshold falls back to the
// default rather than failing a committed transaction.
func (e *Engine) lowStockWarnings(ctx context.Context, lines []Line) []LowStockWarning {
	threshold, err := e.store.LowStockThreshold(ctx)
	if err != nil {
		threshold = DefaultLowStockThreshold
	}

	// Final quantity per item, keeping first-seen line order.
	var order []int64
	final := make(map[int64]*Line)
	for i := range lines {
		ln := &lines[i]
		if _, ok := final[ln.ItemID]; !ok {
			order = append(order, ln.ItemID)
		}
		final[ln.ItemID] = ln
	}

	var warnings []LowStockWarning
	for _, id := range order {
		ln := final[id]
		if ln.QuantityAfter <= threshold {
			warnings = append(warnings, LowStockWarning{
				ItemID:    ln.ItemID,
				Barcode:   ln.Barcode,
				ItemName:  ln.ItemName,
				Quantity:  ln.QuantityAfter,
				Threshold: threshold,
			})
		}
	}
	return warnings
}

// =============================================================================
// VALIDATION AND MAPPING
// =============================================================================

func validateRequest(req Request) error {
	if !req.Type.Valid() {
		return &InvalidTypeError{Type: req.Type}
	}
	if len(req.Lines) == 0 {
		return ErrEmptyTransaction
	}
	for _, lr := range req.Lines {
		if lr.Quantity <= 0 {
			return &InvalidQuantityError{Barcode: lr.Barcode, Quantity: lr.Quantity}
		}
		if req.Type == TxAdjustment && lr.Sign != SignIncrease && lr.Sign != SignDecrease {
			return &InvalidAdjustmentSignError{Barcode: lr.Barcode, Sign: lr.Sign}
		}
	}
	return nil
}

// signedDelta maps the request line to a signed stock change. Positive
// always means stock increase.
func signedDelta(t TransactionType, lr LineRequest) int64 {
	if t == TxAdjustment {
		if lr.Sign == SignDecrease {
			return -lr.Quantity
		}
		return lr.Quantity
	}
	return int64(t.Sign()) * lr.Quantity
}

// unitPrice snapshots the price relevant to the transaction type:
// purchase cost for stock intake, sale price otherwise.
func unitPrice(t TransactionType, item *catalog.Item) decimal.Decimal {
	if t == TxPurchase || t == TxRestock {
		return item.PurchasePrice
	}
	return item.SalePrice
}

// classify keeps domain errors intact and wraps anything else as a
// persistence failure.
func classify(err error) error {
	if IsValidation(err) || IsNotFound(err) || IsConflict(err) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Err: err}
}
