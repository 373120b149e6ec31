/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All engine errors in one place. Every failure mode carries enough
  detail (offending identifier, numbers) for a presentation adapter to
  render a user message; the engine itself never formats for display.

ERROR CATEGORIES:
  1. Validation errors - rejected before any persistence attempt
  2. Not-found errors  - unknown identifier aborts the whole transaction
  3. Conflict errors   - insufficient stock, duplicate idempotency key
  4. Persistence errors - store failure mid-commit, after rollback

USAGE:
  if errors.Is(err, ledger.ErrInsufficientStock) { ... }

  var stockErr *ledger.InsufficientStockError
  if errors.As(err, &stockErr) {
      fmt.Println(stockErr.Available, stockErr.Requested)
  }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrItemNotFound is returned when a line names an unknown identifier.
	ErrItemNotFound = errors.New("item not found")

	// ErrInsufficientStock is returned when a line would drive an item's
	// quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidType is returned for a transaction type outside the fixed
	// enumeration.
	ErrInvalidType = errors.New("invalid transaction type")

	// ErrInvalidAdjustmentSign is returned when an adjustment line carries
	// no valid increase/decrease flag.
	ErrInvalidAdjustmentSign = errors.New("invalid adjustment sign")

	// ErrInvalidQuantity is returned when a line quantity is not a positive
	// integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrEmptyTransaction is returned when a request carries no lines.
	ErrEmptyTransaction = errors.New("transaction has no line items")

	// ErrDuplicateTransaction is returned when the idempotency key was
	// already committed. Expected behavior for retries.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrPersistence is returned when the store fails mid-commit. All
	// writes of the attempt have been rolled back.
	ErrPersistence = errors.New("persistence failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ItemNotFoundError reports which identifier failed to resolve.
type ItemNotFoundError struct {
	Barcode string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item not found for barcode %s", e.Barcode)
}

func (e *ItemNotFoundError) Unwrap() error { return ErrItemNotFound }

// InsufficientStockError reports the shortage with actionable numbers.
type InsufficientStockError struct {
	Barcode   string
	ItemName  string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): available %d, requested %d",
		e.ItemName, e.Barcode, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidTypeError reports the rejected transaction type.
type InvalidTypeError struct {
	Type TransactionType
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid transaction type %q", string(e.Type))
}

func (e *InvalidTypeError) Unwrap() error { return ErrInvalidType }

// InvalidAdjustmentSignError reports a missing or malformed sign flag.
type InvalidAdjustmentSignError struct {
	Barcode string
	Sign    AdjustmentSign
}

func (e *InvalidAdjustmentSignError) Error() string {
	return fmt.Sprintf("adjustment line for %s needs sign %q or %q, got %q",
		e.Barcode, SignIncrease, SignDecrease, string(e.Sign))
}

func (e *InvalidAdjustmentSignError) Unwrap() error { return ErrInvalidAdjustmentSign }

// InvalidQuantityError reports a non-positive line quantity.
type InvalidQuantityError struct {
	Barcode  string
	Quantity int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for %s", e.Quantity, e.Barcode)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidQuantity }

// PersistenceError wraps a store failure. The underlying cause is kept
// for logs; callers match on ErrPersistence.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether the error was rejected before any
// persistence attempt.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidAdjustmentSign) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrEmptyTransaction)
}

// IsNotFound reports whether the error names a missing item.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsConflict reports whether the error is a state conflict the caller
// can act on (retry, reduce quantity).
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateTransaction)
}
