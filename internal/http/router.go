package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(Logger(handler.logger))
	r.Use(Recoverer(handler.logger))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", handler.Catalog)
		r.Post("/catalog/import", handler.ImportCatalog)

		r.Post("/invoices/quote", handler.QuoteInvoice)
		r.Post("/invoices/purge", handler.PurgeInvoices)
		r.Get("/invoices", handler.ListInvoices)
		r.Post("/invoices", handler.CreateInvoice)
		r.Get("/invoices/{invoiceNo}", handler.GetInvoice)
		r.Put("/invoices/{invoiceNo}", handler.UpdateInvoice)
		r.Delete("/invoices/{invoiceNo}", handler.DeleteInvoice)
		r.Get("/invoices/{invoiceNo}/preview", handler.PreviewInvoice)
		r.Get("/invoices/{invoiceNo}/export", handler.ExportInvoice)
	})

	return r
}
