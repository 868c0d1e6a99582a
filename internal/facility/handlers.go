package facility

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/h2operator/h2operator-backend/internal/compliance"
	"github.com/jonboulle/clockwork"
)

// minQueryLength is the shortest search query the API accepts.
const minQueryLength = 2

// defaultCalendarDays is the span shown when the caller omits a range.
const defaultCalendarDays = 365

// Reader is the part of Store the HTTP handlers need.
type Reader interface {
	Search(ctx context.Context, q string) ([]WaterSystem, error)
	FindByPWSID(ctx context.Context, pwsid string) (*WaterSystem, error)
	Violations(ctx context.Context, pwsid string, rng compliance.DateRange) ([]compliance.Violation, error)
	TopViolators(ctx context.Context, n int) ([]Violator, error)
}

type Handler struct {
	store Reader
	clock clockwork.Clock
}

func NewHandler(store Reader, clock clockwork.Clock) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{store: store, clock: clock}
}

type listResponse[T any] struct {
	Results []T `json:"results"`
	Count   int `json:"count"`
}

type calendarResponse struct {
	Data            []compliance.CalendarDay `json:"data"`
	From            string                   `json:"from"`
	To              string                   `json:"to"`
	TotalViolations int                      `json:"totalViolations"`
}

// Search handles GET /search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < minQueryLength {
		writeError(w, http.StatusBadRequest, "Query must be at least 2 characters")
		return
	}

	results, err := h.store.Search(r.Context(), q)
	if err != nil {
		log.Printf("[facility] search %q error: %v", q, err)
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	writeJSON(w, http.StatusOK, listResponse[WaterSystem]{Results: results, Count: len(results)})
}

// GetFacility handles GET /facility/{pwsid}.
func (h *Handler) GetFacility(w http.ResponseWriter, r *http.Request) {
	pwsid := strings.TrimSpace(chi.URLParam(r, "pwsid"))

	ws, err := h.store.FindByPWSID(r.Context(), pwsid)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Facility not found")
		return
	}
	if err != nil {
		log.Printf("[facility] lookup %s error: %v", pwsid, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch facility")
		return
	}

	writeJSON(w, http.StatusOK, ws)
}

// TopViolators handles GET /top-violators.
func (h *Handler) TopViolators(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.TopViolators(r.Context(), TopViolatorsLimit)
	if err != nil {
		log.Printf("[facility] top violators error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch top violators")
		return
	}

	writeJSON(w, http.StatusOK, listResponse[Violator]{Results: results, Count: len(results)})
}

// Calendar handles GET /facility/{pwsid}/calendar?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Missing bounds default to the year ending today.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	pwsid := strings.TrimSpace(chi.URLParam(r, "pwsid"))

	rng, ok := h.calendarRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid date range")
		return
	}

	violations, err := h.store.Violations(r.Context(), pwsid, rng)
	if err != nil {
		log.Printf("[facility] calendar %s error: %v", pwsid, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch violations")
		return
	}

	calendar := compliance.BuildCalendar(violations)
	writeJSON(w, http.StatusOK, calendarResponse{
		Data:            compliance.SortedDays(calendar),
		From:            rng.From.String(),
		To:              rng.To.String(),
		TotalViolations: compliance.CalendarTotal(calendar),
	})
}

func (h *Handler) calendarRange(r *http.Request) (compliance.DateRange, bool) {
	today := compliance.DateOf(h.clock.Now())
	rng := compliance.DateRange{From: today.AddDays(-defaultCalendarDays), To: today}

	if raw := r.URL.Query().Get("from"); raw != "" {
		d, ok := compliance.ParseISODate(raw)
		if !ok {
			return rng, false
		}
		rng.From = d
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		d, ok := compliance.ParseISODate(raw)
		if !ok {
			return rng, false
		}
		rng.To = d
	}
	return rng, !rng.To.Before(rng.From)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
