package porecaphttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the purchase order recap endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.exportLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Route("/po-recaps", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/companies", h.companies)
		r.Get("/report", h.report)
		r.Get("/report/exports/{id}", h.exportStatus)
		r.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Get("/report.pdf", h.reportPDF)
			gr.Get("/report.csv", h.reportCSV)
			gr.Post("/report/exports", h.enqueueExport)
		})
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}
