// Package advisor serves the narrated endpoints of the dashboard: the urgent
// action banner, the facility compliance summary and per-violation
// explanations. These endpoints never fail with a 5xx; anything that goes
// wrong past input validation degrades to a deterministic response.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/h2operator/h2operator-backend/internal/cache"
	"github.com/h2operator/h2operator-backend/internal/compliance"
	"github.com/h2operator/h2operator-backend/internal/facility"
	"github.com/h2operator/h2operator-backend/internal/narrative"
	"github.com/h2operator/h2operator-backend/internal/observability"
	"github.com/h2operator/h2operator-backend/internal/utils"
	"github.com/jonboulle/clockwork"
)

// summaryMilestones bounds the milestones included in a facility summary.
const summaryMilestones = 10

// Records is the slice of the facility store the advisor reads.
type Records interface {
	FindByPWSID(ctx context.Context, pwsid string) (*facility.WaterSystem, error)
	Violations(ctx context.Context, pwsid string, rng compliance.DateRange) ([]compliance.Violation, error)
	LatestSiteVisit(ctx context.Context, pwsid string) (*compliance.SiteVisit, error)
	Milestones(ctx context.Context, pwsid string, limit int) ([]compliance.Milestone, error)
	ViolationCodeDescription(ctx context.Context, code string) (string, error)
	ContaminantCodeDescription(ctx context.Context, code string) (string, error)
}

// Narrator writes the narrative text.
type Narrator interface {
	UrgentAction(ctx context.Context, facts narrative.UrgentFacts) narrative.Outcome[narrative.ActionGuidance]
	FacilitySummary(ctx context.Context, facts narrative.SummaryFacts) narrative.Outcome[narrative.FacilitySummary]
	Explain(ctx context.Context, facts narrative.ExplainFacts) narrative.Outcome[narrative.ViolationExplanation]
}

type Config struct {
	UrgentTTL  time.Duration
	SummaryTTL time.Duration
	Metrics    *observability.Metrics
	Clock      clockwork.Clock
}

type Handler struct {
	records  Records
	narrator Narrator
	metrics  *observability.Metrics
	clock    clockwork.Clock

	urgent       *cache.TTL[cached[urgentResponse]]
	summaries    *cache.TTL[cached[summaryResponse]]
	explanations *cache.TTL[cached[explainResponse]]
}

func NewHandler(records Records, narrator Narrator, cfg Config) *Handler {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{
		records:  records,
		narrator: narrator,
		metrics:  cfg.Metrics,
		clock:    clock,

		urgent:    cache.New[cached[urgentResponse]](cfg.UrgentTTL, clock),
		summaries: cache.New[cached[summaryResponse]](cfg.SummaryTTL, clock),
		// Explanations depend only on reference codes and live for the process.
		explanations: cache.New[cached[explainResponse]](0, clock),
	}
}

func (h *Handler) today() compliance.Date {
	return compliance.DateOf(h.clock.Now())
}

// UrgentAction handles GET /action/urgent?pwsid=.
func (h *Handler) UrgentAction(w http.ResponseWriter, r *http.Request) {
	pwsid := strings.TrimSpace(r.URL.Query().Get("pwsid"))
	if pwsid == "" {
		writeError(w, http.StatusBadRequest, "PWSID is required")
		return
	}

	if hit, ok := h.urgent.Get(pwsid); ok {
		h.metrics.CacheHit(string(narrative.KindUrgentAction), true)
		w.Header().Set(narrativeSourceHeader, hit.source)
		writeJSON(w, http.StatusOK, hit.body)
		return
	}
	h.metrics.CacheHit(string(narrative.KindUrgentAction), false)

	var tm timing
	start := h.clock.Now()
	ctx := r.Context()

	violations, err := h.records.Violations(ctx, pwsid, compliance.DateRange{})
	if err != nil {
		h.genericUrgent(w, r, pwsid, err)
		return
	}
	visit, err := h.records.LatestSiteVisit(ctx, pwsid)
	if err != nil {
		h.genericUrgent(w, r, pwsid, err)
		return
	}
	action := compliance.SelectUrgentAction(violations, visit, h.today())
	tm.add("dbread", h.clock.Since(start))

	if action.Type == compliance.ActionNone {
		resp := cached[urgentResponse]{body: urgentResponse{}, source: "none"}
		h.urgent.Set(pwsid, resp)
		addServerTiming(w, tm)
		w.Header().Set(narrativeSourceHeader, resp.source)
		writeJSON(w, http.StatusOK, resp.body)
		return
	}

	facts := narrative.UrgentFacts{
		PWSID:                  pwsid,
		Action:                 action,
		ViolationDescription:   h.describe(ctx, h.records.ViolationCodeDescription, action.ViolationCode),
		ContaminantDescription: h.describe(ctx, h.records.ContaminantCodeDescription, action.ContaminantCode),
	}

	start = h.clock.Now()
	out := h.narrator.UrgentAction(ctx, facts)
	tm.add("narrative", h.clock.Since(start))

	resp := cached[urgentResponse]{
		body:   urgentResponse{UrgentAction: &out.Value, Signal: &action},
		source: out.Source(),
	}
	if out.Cacheable() {
		h.urgent.Set(pwsid, resp)
	}

	addServerTiming(w, tm)
	w.Header().Set(narrativeSourceHeader, resp.source)
	writeJSON(w, http.StatusOK, resp.body)
}

func (h *Handler) genericUrgent(w http.ResponseWriter, r *http.Request, pwsid string, err error) {
	reqID, _ := utils.GetRequestIDFromContext(r.Context())
	log.Printf("[advisor] req=%s urgent action %s error: %v", reqID, pwsid, err)
	g := narrative.GenericGuidance()
	w.Header().Set(narrativeSourceHeader, "fallback")
	writeJSON(w, http.StatusOK, urgentResponse{UrgentAction: &g})
}

// FacilitySummary handles GET /facility/summary?pwsid=.
func (h *Handler) FacilitySummary(w http.ResponseWriter, r *http.Request) {
	pwsid := strings.TrimSpace(r.URL.Query().Get("pwsid"))
	if pwsid == "" {
		writeError(w, http.StatusBadRequest, "PWSID is required")
		return
	}

	if hit, ok := h.summaries.Get(pwsid); ok {
		h.metrics.CacheHit(string(narrative.KindFacilitySummary), true)
		w.Header().Set(narrativeSourceHeader, hit.source)
		writeJSON(w, http.StatusOK, hit.body)
		return
	}
	h.metrics.CacheHit(string(narrative.KindFacilitySummary), false)

	var tm timing
	start := h.clock.Now()
	ctx := r.Context()

	ws, err := h.records.FindByPWSID(ctx, pwsid)
	if errors.Is(err, facility.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Facility not found")
		return
	}
	if err != nil {
		h.genericSummary(w, r, pwsid, err)
		return
	}

	analysis, err := h.analyze(ctx, ws)
	if err != nil {
		h.genericSummary(w, r, pwsid, err)
		return
	}
	facts := narrative.SummaryFacts{Analysis: analysis, Active: h.activeDetails(ctx, analysis.Violations.Active)}
	tm.add("dbread", h.clock.Since(start))

	start = h.clock.Now()
	out := h.narrator.FacilitySummary(ctx, facts)
	tm.add("narrative", h.clock.Since(start))

	resp := cached[summaryResponse]{
		body:   summaryResponse{Summary: out.Value, Analysis: &analysis},
		source: out.Source(),
	}
	if out.Cacheable() {
		h.summaries.Set(pwsid, resp)
	}

	addServerTiming(w, tm)
	w.Header().Set(narrativeSourceHeader, resp.source)
	writeJSON(w, http.StatusOK, resp.body)
}

func (h *Handler) analyze(ctx context.Context, ws *facility.WaterSystem) (compliance.Analysis, error) {
	violations, err := h.records.Violations(ctx, ws.PWSID, compliance.DateRange{})
	if err != nil {
		return compliance.Analysis{}, err
	}
	visit, err := h.records.LatestSiteVisit(ctx, ws.PWSID)
	if err != nil {
		return compliance.Analysis{}, err
	}
	milestones, err := h.records.Milestones(ctx, ws.PWSID, summaryMilestones)
	if err != nil {
		return compliance.Analysis{}, err
	}
	return compliance.Analyze(ws.Profile(), violations, visit, milestones, h.today()), nil
}

func (h *Handler) activeDetails(ctx context.Context, active []compliance.Violation) []narrative.ViolationDetail {
	descriptions := make(map[string]string)
	details := make([]narrative.ViolationDetail, 0, len(active))
	for _, v := range active {
		desc, ok := descriptions[v.Code]
		if !ok {
			desc = h.describe(ctx, h.records.ViolationCodeDescription, v.Code)
			if desc == "" {
				desc = "Unknown violation"
			}
			descriptions[v.Code] = desc
		}
		details = append(details, narrative.ViolationDetail{
			Code:        v.Code,
			Description: desc,
			HealthBased: v.HealthBased,
			Major:       v.Major,
			Status:      v.Status,
			BeginDate:   v.BeginDate.String(),
		})
	}
	return details
}

func (h *Handler) genericSummary(w http.ResponseWriter, r *http.Request, pwsid string, err error) {
	reqID, _ := utils.GetRequestIDFromContext(r.Context())
	log.Printf("[advisor] req=%s facility summary %s error: %v", reqID, pwsid, err)
	w.Header().Set(narrativeSourceHeader, "fallback")
	writeJSON(w, http.StatusOK, summaryResponse{Summary: narrative.GenericSummary()})
}

// ExplainViolation handles POST /violation/explain.
func (h *Handler) ExplainViolation(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ViolationCode == "" {
		writeError(w, http.StatusBadRequest, "Violation code is required")
		return
	}

	key := req.cacheKey()
	if hit, ok := h.explanations.Get(key); ok {
		h.metrics.CacheHit(string(narrative.KindExplanation), true)
		w.Header().Set(narrativeSourceHeader, hit.source)
		writeJSON(w, http.StatusOK, hit.body)
		return
	}
	h.metrics.CacheHit(string(narrative.KindExplanation), false)

	ctx := r.Context()
	facts := narrative.ExplainFacts{
		ViolationCode:          string(req.ViolationCode),
		Description:            h.describe(ctx, h.records.ViolationCodeDescription, string(req.ViolationCode)),
		Category:               string(req.ViolationCategory),
		RuleCode:               string(req.RuleCode),
		HealthBased:            bool(req.IsHealthBased),
		Major:                  bool(req.IsMajor),
		ContaminantDescription: h.describe(ctx, h.records.ContaminantCodeDescription, string(req.ContaminantCode)),
	}

	var tm timing
	start := h.clock.Now()
	out := h.narrator.Explain(ctx, facts)
	tm.add("narrative", h.clock.Since(start))

	resp := cached[explainResponse]{body: explainResponse{Explanation: out.Value}, source: out.Source()}
	if out.Cacheable() {
		h.explanations.Set(key, resp)
	}

	addServerTiming(w, tm)
	w.Header().Set(narrativeSourceHeader, resp.source)
	writeJSON(w, http.StatusOK, resp.body)
}

// describe resolves a reference code, returning "" when the code is empty,
// unknown or the lookup fails.
func (h *Handler) describe(ctx context.Context, lookup func(context.Context, string) (string, error), code string) string {
	if code == "" {
		return ""
	}
	desc, err := lookup(ctx, code)
	if err != nil {
		if !errors.Is(err, facility.ErrNotFound) {
			log.Printf("[advisor] describe code %s error: %v", code, err)
		}
		return ""
	}
	return desc
}
