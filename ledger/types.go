/*
Package ledger implements the transaction ledger engine: the component
that atomically applies a multi-item stock-changing event to the catalog
and maintains a consistent audit trail.

PURPOSE:
  A transaction groups one or more line items, each naming an item by
  its external identifier and a positive quantity. The engine resolves
  items, computes signed quantity deltas from the transaction type,
  validates that no stock goes negative, and commits every row of the
  event as one atomic unit.

KEY CONCEPTS IN THIS FILE (types.go):
  - TransactionType: fixed enumeration; determines the delta sign
  - LineRequest / Line: proposed change vs. resolved snapshot
  - Transaction: the immutable persisted record
  - Result: committed transaction plus low-stock warnings

CRITICAL INVARIANTS:
  1. ALL-OR-NOTHING: A failed line fails the whole transaction
  2. CONSERVATION: quantity_after == quantity_before + quantity_changed
  3. NON-NEGATIVE: quantity_after >= 0, always
  4. IMMUTABLE: Committed transactions have no update/delete path

SEE ALSO:
  - engine.go: The apply algorithm
  - errors.go: Structured error taxonomy
  - totals.go: Total-amount computation rules
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION TYPE - Fixed enumeration, determines delta sign
// =============================================================================

type TransactionType string

const (
	TxSale       TransactionType = "sale"       // reduces stock
	TxPurchase   TransactionType = "purchase"   // increases stock
	TxRestock    TransactionType = "restock"    // increases stock
	TxAdjustment TransactionType = "adjustment" // sign from explicit flag
	TxDamage     TransactionType = "damage"     // reduces stock
	TxReturn     TransactionType = "return"     // increases stock
)

// Valid reports whether t is one of the fixed enumeration values.
func (t TransactionType) Valid() bool {
	switch t {
	case TxSale, TxPurchase, TxRestock, TxAdjustment, TxDamage, TxReturn:
		return true
	}
	return false
}

// Sign returns the stock delta direction implied by the type:
// +1 increases stock, -1 decreases it, 0 means the direction comes from
// the line's explicit adjustment sign.
func (t TransactionType) Sign() int {
	switch t {
	case TxPurchase, TxRestock, TxReturn:
		return 1
	case TxSale, TxDamage:
		return -1
	default:
		return 0
	}
}

// AdjustmentSign is the explicit direction flag carried by adjustment
// lines, since the type itself does not imply one.
type AdjustmentSign string

const (
	SignIncrease AdjustmentSign = "increase"
	SignDecrease AdjustmentSign = "decrease"
)

// =============================================================================
// REQUEST - A proposed transaction, as collected by a presentation adapter
// =============================================================================

// LineRequest names one item by external identifier and a positive
// quantity. Sign is required for adjustment transactions and ignored for
// every other type.
type LineRequest struct {
	Barcode  string
	Quantity int64
	Sign     AdjustmentSign
}

// Request is the full proposed transaction handed to Engine.Apply.
//
// IdempotencyKey is optional; when empty a fresh key is generated, so
// only callers that deliberately reuse a key get duplicate protection.
type Request struct {
	Type           TransactionType
	PerformedBy    string
	Customer       string
	Notes          string
	IdempotencyKey string
	Lines          []LineRequest
}

// =============================================================================
// PERSISTED RECORDS
// =============================================================================

// Line is one item's resolved change within a committed transaction.
// Barcode and ItemName are denormalized snapshots taken at transaction
// time, so history stays correct if the item is renamed or removed.
type Line struct {
	ID              int64
	ItemID          int64
	Barcode         string
	ItemName        string
	QuantityChanged int64
	QuantityBefore  int64
	QuantityAfter   int64
	UnitPrice       decimal.Decimal
}

// Transaction is the committed, immutable record.
type Transaction struct {
	ID             int64
	Timestamp      time.Time
	PerformedBy    string
	Type           TransactionType
	Customer       string
	TotalAmount    decimal.Decimal
	Notes          string
	IdempotencyKey string
	Lines          []Line
}

// LowStockWarning is a non-fatal signal raised after commit when an
// affected item's quantity is at or below the configured threshold.
type LowStockWarning struct {
	ItemID    int64
	Barcode   string
	ItemName  string
	Quantity  int64
	Threshold int64
}

// Result is returned by a successful apply.
type Result struct {
	Transaction Transaction
	Warnings    []LowStockWarning
}
