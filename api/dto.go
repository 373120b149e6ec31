// PURPOSE: Wire types for the HTTP API.
//
// DTOs keep the JSON surface decoupled from the domain structs: decimals
// travel as strings, timestamps as RFC3339, and request validation happens
// before anything touches the ledger or catalog packages.
//
// SEE ALSO: handlers.go (mapping), ledger/types.go, catalog/types.go.
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockroom/inventory-engine/audit"
	"github.com/stockroom/inventory-engine/catalog"
	"github.com/stockroom/inventory-engine/ledger"
)

// === ITEMS ===

type ItemDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category,omitempty"`
	Barcode       string `json:"barcode"`
	Quantity      int64  `json:"quantity"`
	Supplier      string `json:"supplier,omitempty"`
	PurchasePrice string `json:"purchase_price"`
	SalePrice     string `json:"sale_price"`
	Location      string `json:"location,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toItemDTO(it catalog.Item) ItemDTO {
	return ItemDTO{
		ID:            it.ID,
		Name:          it.Name,
		Category:      it.Category,
		Barcode:       it.Barcode,
		Quantity:      it.Quantity,
		Supplier:      it.Supplier,
		PurchasePrice: it.PurchasePrice.String(),
		SalePrice:     it.SalePrice.String(),
		Location:      it.Location,
		CreatedAt:     it.CreatedAt.Format(time.RFC3339),
	}
}

type CreateItemRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Barcode       string `json:"barcode"`
	Quantity      int64  `json:"quantity"`
	Supplier      string `json:"supplier"`
	PurchasePrice string `json:"purchase_price"`
	SalePrice     string `json:"sale_price"`
	Location      string `json:"location"`
	User          string `json:"user"`
}

type SetQuantityRequest struct {
	Quantity int64  `json:"quantity"`
	User     string `json:"user"`
}

// === TRANSACTIONS ===

type LineRequestDTO struct {
	Barcode  string `json:"barcode"`
	Quantity int64  `json:"quantity"`
	// Sign is only consulted for adjustments: "increase" or "decrease".
	Sign string `json:"sign,omitempty"`
}

type CreateTransactionRequest struct {
	Type           string           `json:"type"`
	PerformedBy    string           `json:"performed_by"`
	Customer       string           `json:"customer"`
	Notes          string           `json:"notes"`
	IdempotencyKey string           `json:"idempotency_key"`
	Lines          []LineRequestDTO `json:"lines"`
}

func (r CreateTransactionRequest) toRequest() ledger.Request {
	lines := make([]ledger.LineRequest, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, ledger.LineRequest{
			Barcode:  l.Barcode,
			Quantity: l.Quantity,
			Sign:     ledger.AdjustmentSign(l.Sign),
		})
	}
	return ledger.Request{
		Type:           ledger.TransactionType(r.Type),
		PerformedBy:    r.PerformedBy,
		Customer:       r.Customer,
		Notes:          r.Notes,
		IdempotencyKey: r.IdempotencyKey,
		Lines:          lines,
	}
}

type LineDTO struct {
	ID              int64  `json:"id"`
	ItemID          int64  `json:"item_id"`
	Barcode         string `json:"barcode"`
	ItemName        string `json:"item_name"`
	QuantityChanged int64  `json:"quantity_changed"`
	QuantityBefore  int64  `json:"quantity_before"`
	QuantityAfter   int64  `json:"quantity_after"`
	UnitPrice       string `json:"unit_price"`
}

type TransactionDTO struct {
	ID             int64     `json:"id"`
	Timestamp      string    `json:"timestamp"`
	PerformedBy    string    `json:"performed_by"`
	Type           string    `json:"type"`
	Customer       string    `json:"customer,omitempty"`
	TotalAmount    string    `json:"total_amount"`
	Notes          string    `json:"notes,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Lines          []LineDTO `json:"lines"`
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	lines := make([]LineDTO, 0, len(tx.Lines))
	for _, l := range tx.Lines {
		lines = append(lines, LineDTO{
			ID:              l.ID,
			ItemID:          l.ItemID,
			Barcode:         l.Barcode,
			ItemName:        l.ItemName,
			QuantityChanged: l.QuantityChanged,
			QuantityBefore:  l.QuantityBefore,
			QuantityAfter:   l.QuantityAfter,
			UnitPrice:       l.UnitPrice.String(),
		})
	}
	return TransactionDTO{
		ID:             tx.ID,
		Timestamp:      tx.Timestamp.Format(time.RFC3339),
		PerformedBy:    tx.PerformedBy,
		Type:           string(tx.Type),
		Customer:       tx.Customer,
		TotalAmount:    tx.TotalAmount.String(),
		Notes:          tx.Notes,
		IdempotencyKey: tx.IdempotencyKey,
		Lines:          lines,
	}
}

type WarningDTO struct {
	ItemID    int64  `json:"item_id"`
	Barcode   string `json:"barcode"`
	ItemName  string `json:"item_name"`
	Quantity  int64  `json:"quantity"`
	Threshold int64  `json:"threshold"`
}

type TransactionResponse struct {
	Transaction TransactionDTO `json:"transaction"`
	Warnings    []WarningDTO   `json:"warnings,omitempty"`
}

func toTransactionResponse(res ledger.Result) TransactionResponse {
	warnings := make([]WarningDTO, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, WarningDTO{
			ItemID:    w.ItemID,
			Barcode:   w.Barcode,
			ItemName:  w.ItemName,
			Quantity:  w.Quantity,
			Threshold: w.Threshold,
		})
	}
	return TransactionResponse{
		Transaction: toTransactionDTO(res.Transaction),
		Warnings:    warnings,
	}
}

// === AUDIT ===

type LogEntryDTO struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Action    string `json:"action"`
	ItemID    int64  `json:"item_id"`
	Quantity  int64  `json:"quantity"`
	Location  string `json:"location"`
}

func toLogEntryDTO(e audit.Entry) LogEntryDTO {
	return LogEntryDTO{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(time.RFC3339),
		User:      e.User,
		Action:    e.Action,
		ItemID:    e.ItemID,
		Quantity:  e.Quantity,
		Location:  e.Location,
	}
}

// === SETTINGS ===

type ThresholdDTO struct {
	Threshold int64 `json:"threshold"`
}

// === ERRORS ===

type ErrorResponse struct {
	Error string `json:"error"`
}

// parsePrice accepts an empty string as zero so clients may omit prices.
func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
