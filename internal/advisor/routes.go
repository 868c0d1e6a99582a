package advisor

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers the narrated endpoints on r. They share the /api router
// with the facility routes; chi matches /facility/summary before
// /facility/{pwsid}.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/action/urgent", h.UrgentAction)
	r.Get("/facility/summary", h.FacilitySummary)
	r.Post("/violation/explain", h.ExplainViolation)
}
