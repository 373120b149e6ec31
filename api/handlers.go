// PURPOSE: HTTP handlers for the inventory API.
//
// Handlers decode DTOs, call into the catalog service and the ledger engine,
// and map domain errors to HTTP statuses:
//
//	validation errors        -> 400
//	unknown item/transaction -> 404
//	conflicts (stock, dups)  -> 409
//	persistence failures     -> 500
//
// SEE ALSO: server.go (routing), dto.go (wire types).
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/inventory-engine/barcode"
	"github.com/stockroom/inventory-engine/catalog"
	"github.com/stockroom/inventory-engine/export"
	"github.com/stockroom/inventory-engine/ledger"
	"github.com/stockroom/inventory-engine/logger"
	"github.com/stockroom/inventory-engine/scan"
	"github.com/stockroom/inventory-engine/store/sqlite"
)

const defaultListLimit = 100

// Handler bundles the services the HTTP surface exposes.
type Handler struct {
	Store   *sqlite.Store
	Engine  *ledger.Engine
	Catalog *catalog.Service
	Queue   *scan.Queue

	// BarcodeDir, when non-empty, is where label PNGs are written after
	// item creation. Rendering is best effort and never fails the request.
	BarcodeDir string

	log *logger.Logger
}

// NewHandler wires a handler over the given store. The ledger engine and
// catalog service are constructed with their defaults; callers needing a
// custom total rule or retry policy can assign the fields directly.
func NewHandler(store *sqlite.Store, queue *scan.Queue, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Store:   store,
		Engine:  ledger.NewEngine(store),
		Catalog: catalog.NewService(store),
		Queue:   queue,
		log:     log,
	}
}

// === HELPERS ===

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeLedgerError translates engine errors into HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrDuplicateBarcode),
		errors.Is(err, catalog.ErrExhaustedRetries):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrNegativeQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func limitParam(r *http.Request) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return defaultListLimit
}

// === ITEMS ===

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]ItemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, toItemDTO(it))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	purchase, err := parsePrice(req.PurchasePrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid purchase_price")
		return
	}
	sale, err := parsePrice(req.SalePrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sale_price")
		return
	}
	item, err := h.Catalog.CreateItem(r.Context(), catalog.CreateItemParams{
		Name:          req.Name,
		Category:      req.Category,
		Barcode:       req.Barcode,
		Quantity:      req.Quantity,
		Supplier:      req.Supplier,
		PurchasePrice: purchase,
		SalePrice:     sale,
		Location:      req.Location,
		User:          req.User,
	})
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if h.BarcodeDir != "" {
		if _, err := barcode.SavePNG(item.Barcode, h.BarcodeDir); err != nil {
			h.log.Warnw("barcode render failed", "barcode", item.Barcode, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, toItemDTO(*item))
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "barcode")
	item, err := h.Catalog.GetByBarcode(r.Context(), code)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

func (h *Handler) SetItemQuantity(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "barcode")
	var req SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item, err := h.Catalog.SetQuantity(r.Context(), code, req.Quantity, req.User)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "barcode")
	user := r.URL.Query().Get("user")
	if err := h.Catalog.Delete(r.Context(), code, user); err != nil {
		writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === TRANSACTIONS ===

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := h.Engine.Apply(r.Context(), req.toRequest())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(*res))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.RecentTransactions(r.Context(), limitParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		dtos = append(dtos, toTransactionDTO(tx))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	tx, err := h.Store.TransactionByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tx == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}

// === AUDIT ===

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.RecentEntries(r.Context(), limitParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]LogEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toLogEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// === SETTINGS ===

func (h *Handler) GetLowStockThreshold(w http.ResponseWriter, r *http.Request) {
	threshold, err := h.Store.LowStockThreshold(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ThresholdDTO{Threshold: threshold})
}

func (h *Handler) SetLowStockThreshold(w http.ResponseWriter, r *http.Request) {
	var req ThresholdDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Threshold < 0 {
		writeError(w, http.StatusBadRequest, "threshold must be non-negative")
		return
	}
	if err := h.Store.SetLowStockThreshold(r.Context(), req.Threshold); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// === EXPORTS ===

func exportFilename(stem, ext string) string {
	return stem + "_" + time.Now().Format("20060102_150405") + "." + ext
}

func (h *Handler) ExportInventoryXLSX(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		"attachment; filename="+exportFilename("inventory_export", "xlsx"))
	if err := export.WriteInventoryXLSX(w, items); err != nil {
		h.log.Errorw("xlsx export failed", "error", err)
	}
}

func (h *Handler) ExportInventoryPDF(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		"attachment; filename="+exportFilename("inventory_export", "pdf"))
	if err := export.WriteInventoryPDF(w, items); err != nil {
		h.log.Errorw("pdf export failed", "error", err)
	}
}

func (h *Handler) ExportTransactionsCSV(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.AllTransactionsWithLines(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		"attachment; filename="+exportFilename("transactions_export", "csv"))
	if err := export.WriteTransactionsCSV(w, txs); err != nil {
		h.log.Errorw("csv export failed", "error", err)
	}
}

// === SCAN ===

// Scan accepts a barcode payload from a scanner bridge and enqueues it for
// the resolver. The endpoint always answers quickly; a full queue drops the
// code rather than blocking the scanner.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	code, ok := scan.DecodePayload(body)
	if !ok {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("no_code"))
		return
	}
	if !h.Queue.Publish(code) {
		h.log.Warnw("scan queue full, dropping code", "code", code)
		writeError(w, http.StatusServiceUnavailable, "scan queue full")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("scanned"))
}
