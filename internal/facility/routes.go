package facility

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers the read-only facility endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/search", h.Search)
	r.Get("/top-violators", h.TopViolators)
	r.Get("/facility/{pwsid}", h.GetFacility)
	r.Get("/facility/{pwsid}/calendar", h.Calendar)
}
