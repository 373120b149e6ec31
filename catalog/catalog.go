package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/stockroom/inventory-engine/audit"
	"github.com/stockroom/inventory-engine/barcode"
)

// =============================================================================
// SERVICE - Catalog maintenance operations
// =============================================================================

// Service performs catalog maintenance. Every mutation appends an audit
// entry with the acting user.
type Service struct {
	store     Store
	generator *barcode.Generator
	retry     barcode.RetryPolicy
}

// NewService creates a Service using the default identifier generator
// and retry policy.
func NewService(store Store) *Service {
	return &Service{
		store:     store,
		generator: barcode.NewGenerator(barcode.DefaultPrefix),
		retry:     barcode.DefaultRetryPolicy,
	}
}

// NewServiceWith creates a Service with an explicit generator and retry
// policy. Used by tests to force collisions.
func NewServiceWith(store Store, gen *barcode.Generator, retry barcode.RetryPolicy) *Service {
	return &Service{store: store, generator: gen, retry: retry}
}

// CreateItemParams are the operator-supplied attributes of a new item.
// Barcode may be empty; one is generated and retried on collision.
type CreateItemParams struct {
	Name          string
	Category      string
	Barcode       string
	Quantity      int64
	Supplier      string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Location      string
	User          string
}

// CreateItem inserts a new item.
//
// If no barcode was supplied, a generated one is used; on a duplicate
// collision a fresh identifier is generated and the insert retried, up
// to the retry bound. A supplied barcode is never regenerated: its
// collision surfaces as DuplicateBarcodeError immediately.
func (s *Service) CreateItem(ctx context.Context, p CreateItemParams) (*Item, error) {
	if p.Quantity < 0 {
		return nil, ErrNegativeQuantity
	}

	generated := p.Barcode == ""
	code := p.Barcode
	if generated {
		code = s.generator.Next()
	}

	attempts := s.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	item := Item{
		Name:          p.Name,
		Category:      p.Category,
		Quantity:      p.Quantity,
		Supplier:      p.Supplier,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		Location:      p.Location,
	}

	for attempt := 1; ; attempt++ {
		item.Barcode = code
		id, err := s.store.InsertItem(ctx, item)
		if err == nil {
			item.ID = id
			break
		}
		if !errors.Is(err, ErrDuplicateBarcode) {
			return nil, err
		}
		if !generated {
			return nil, &DuplicateBarcodeError{Barcode: code}
		}
		if attempt >= attempts {
			return nil, &ExhaustedRetriesError{Attempts: attempt, LastBarcode: code}
		}
		code = s.generator.Next()
	}

	if err := s.store.AppendLog(ctx, audit.Entry{
		User:     p.User,
		Action:   audit.ActionAdd,
		ItemID:   item.ID,
		Quantity: item.Quantity,
		Location: item.Location,
	}); err != nil {
		return nil, err
	}

	return &item, nil
}

// GetByBarcode resolves an item by its external identifier.
func (s *Service) GetByBarcode(ctx context.Context, code string) (*Item, error) {
	item, err := s.store.ItemByBarcode(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// List returns all items ordered by id.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.store.ListItems(ctx)
}

// SetQuantity writes a new stock quantity directly, outside the ledger.
// The write is audited the same way ledger changes are.
func (s *Service) SetQuantity(ctx context.Context, code string, quantity int64, user string) (*Item, error) {
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	item, err := s.GetByBarcode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	if err := s.store.AppendLog(ctx, audit.Entry{
		User:     user,
		Action:   audit.ActionUpdate,
		ItemID:   item.ID,
		Quantity: quantity,
		Location: "N/A",
	}); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	return item, nil
}

// Delete removes an item from the catalog. Historical transaction line
// items keep their snapshot; no cascade.
func (s *Service) Delete(ctx context.Context, code string, user string) error {
	item, err := s.GetByBarcode(ctx, code)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, item.ID); err != nil {
		return err
	}
	return s.store.AppendLog(ctx, audit.Entry{
		User:     user,
		Action:   audit.ActionRemove,
		ItemID:   item.ID,
		Quantity: 0,
		Location: "N/A",
	})
}
