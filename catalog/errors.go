package catalog

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateBarcode is returned when inserting an item whose barcode
	// already exists. Callers with a generated barcode regenerate and retry.
	ErrDuplicateBarcode = errors.New("duplicate barcode")

	// ErrExhaustedRetries is returned when identifier regeneration did not
	// produce a unique barcode within the retry bound.
	ErrExhaustedRetries = errors.New("exhausted barcode retries")

	// ErrItemNotFound is returned when no item matches the given barcode.
	ErrItemNotFound = errors.New("item not found")

	// ErrNegativeQuantity is returned when a maintenance write would set
	// a negative stock quantity.
	ErrNegativeQuantity = errors.New("quantity must not be negative")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateBarcodeError reports which identifier collided.
type DuplicateBarcodeError struct {
	Barcode string
}

func (e *DuplicateBarcodeError) Error() string {
	return fmt.Sprintf("barcode already exists: %s", e.Barcode)
}

func (e *DuplicateBarcodeError) Unwrap() error { return ErrDuplicateBarcode }

// ExhaustedRetriesError reports how many attempts were made and the last
// candidate identifier.
type ExhaustedRetriesError struct {
	Attempts    int
	LastBarcode string
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("could not generate a unique barcode after %d attempts (last: %s)",
		e.Attempts, e.LastBarcode)
}

func (e *ExhaustedRetriesError) Unwrap() error { return ErrExhaustedRetries }
