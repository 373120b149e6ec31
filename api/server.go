// PURPOSE: Router construction for the inventory HTTP API.
//
// Thin layer: middleware, CORS, and route registration. All behavior lives
// in the handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the chi router serving the API.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
			r.Get("/{barcode}", h.GetItem)
			r.Put("/{barcode}/quantity", h.SetItemQuantity)
			r.Delete("/{barcode}", h.DeleteItem)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Get("/{id}", h.GetTransaction)
		})

		r.Get("/logs", h.ListLogs)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/low-stock", h.GetLowStockThreshold)
			r.Put("/low-stock", h.SetLowStockThreshold)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/inventory.xlsx", h.ExportInventoryXLSX)
			r.Get("/inventory.pdf", h.ExportInventoryPDF)
			r.Get("/transactions.csv", h.ExportTransactionsCSV)
		})
	})

	// Scanner bridges POST raw payloads here; kept off /api on purpose so
	// existing hardware configs pointing at /scan keep working.
	r.Post("/scan", h.Scan)

	return r
}
