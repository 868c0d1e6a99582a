// Package narrative turns computed compliance facts into plain-language text
// through a remote language model. Every call yields a usable value: when the
// model is unavailable or its reply cannot be used, a deterministic rendering
// of the same facts is returned instead and the Outcome records why.
package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/h2operator/h2operator-backend/internal/compliance"
	"github.com/h2operator/h2operator-backend/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Options tune a Generator. The zero value means no call budget, no metrics
// and wall time.
type Options struct {
	// RatePerMinute bounds remote calls. 0 disables the bound.
	RatePerMinute int
	Metrics       *observability.Metrics
	Clock         clockwork.Clock
}

// Generator produces narratives. A nil Completer runs it in fallback-only
// mode.
type Generator struct {
	completer Completer
	catalog   *Catalog
	limiter   *rate.Limiter
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

func NewGenerator(completer Completer, catalog *Catalog, opts Options) *Generator {
	g := &Generator{
		completer: completer,
		catalog:   catalog,
		metrics:   opts.Metrics,
		clock:     opts.Clock,
	}
	if g.clock == nil {
		g.clock = clockwork.NewRealClock()
	}
	if opts.RatePerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), opts.RatePerMinute)
	}
	return g
}

// Enabled reports whether a remote model is configured.
func (g *Generator) Enabled() bool {
	return g.completer != nil
}

// UrgentAction narrates the facility's urgent action. The priority always
// comes from the engine, never from the model.
func (g *Generator) UrgentAction(ctx context.Context, facts UrgentFacts) Outcome[ActionGuidance] {
	return generate(ctx, g, KindUrgentAction, facts.PWSID, facts,
		func(raw string) (ActionGuidance, error) { return parseGuidance(raw, facts.Action.Priority) },
		func(string) ActionGuidance { return FallbackGuidance(facts.Action) },
	)
}

// FacilitySummary narrates a facility's compliance analysis.
func (g *Generator) FacilitySummary(ctx context.Context, facts SummaryFacts) Outcome[FacilitySummary] {
	return generate(ctx, g, KindFacilitySummary, facts.Analysis.System.PWSID, facts,
		parseSummary,
		func(string) FacilitySummary { return FallbackSummary(facts.Analysis) },
	)
}

// Explain narrates a single violation.
func (g *Generator) Explain(ctx context.Context, facts ExplainFacts) Outcome[ViolationExplanation] {
	return generate(ctx, g, KindExplanation, facts.ViolationCode, facts,
		func(raw string) (ViolationExplanation, error) { return parseExplanation(raw, facts.Urgency()) },
		func(raw string) ViolationExplanation { return FallbackExplanation(facts, raw) },
	)
}

// generate runs one narrative call. fallback receives the model's raw reply
// when the reply arrived but could not be parsed, otherwise "".
func generate[T any](
	ctx context.Context,
	g *Generator,
	kind Kind,
	key string,
	facts any,
	parse func(raw string) (T, error),
	fallback func(raw string) T,
) Outcome[T] {
	start := g.clock.Now()
	raw, err := g.call(ctx, kind, facts)

	var out Outcome[T]
	if err == nil {
		out.Value, err = parse(raw)
	} else {
		raw = ""
	}
	if err != nil {
		out = Outcome[T]{Value: fallback(strings.TrimSpace(stripFence(raw))), FallbackUsed: true, Reason: err}
		if !errors.Is(err, ErrDisabled) {
			LogFallback(kind, key, err)
		}
	}

	g.observe(kind, out.Source(), reasonLabel(out.Reason), g.clock.Since(start))
	return out
}

func (g *Generator) call(ctx context.Context, kind Kind, facts any) (string, error) {
	if g.completer == nil {
		return "", ErrDisabled
	}
	req, err := g.catalog.Render(kind, facts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPrompt, err)
	}
	if g.limiter != nil && !g.limiter.Allow() {
		return "", ErrRateLimited
	}
	return g.completer.Complete(ctx, req)
}

func (g *Generator) observe(kind Kind, source, reason string, d time.Duration) {
	if g.metrics == nil {
		return
	}
	g.metrics.NarrativeOutcomes.WithLabelValues(string(kind), source, reason).Inc()
	g.metrics.NarrativeDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

// stripFence removes a surrounding ```json ... ``` block, which models often
// add despite being asked for bare JSON.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func decode(raw string, v any) error {
	if err := json.Unmarshal([]byte(stripFence(raw)), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func missing(fields ...string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(fields, ", "))
}

func parseGuidance(raw string, priority compliance.Priority) (ActionGuidance, error) {
	var g ActionGuidance
	if err := decode(raw, &g); err != nil {
		return ActionGuidance{}, err
	}

	var absent []string
	for _, f := range [][2]string{
		{"title", g.Title}, {"actionNeeded", g.ActionNeeded}, {"timeframe", g.Timeframe}, {"reason", g.Reason},
	} {
		if strings.TrimSpace(f[1]) == "" {
			absent = append(absent, f[0])
		}
	}
	if len(g.NextSteps) == 0 {
		absent = append(absent, "nextSteps")
	}
	if len(absent) > 0 {
		return ActionGuidance{}, missing(absent...)
	}

	g.Priority = priority
	return g, nil
}

func parseSummary(raw string) (FacilitySummary, error) {
	// healthScore arrives as 82 or 82.5 depending on the model.
	var reply struct {
		HealthScore     *float64        `json:"healthScore"`
		StatusLevel     string          `json:"statusLevel"`
		PriorityActions PriorityActions `json:"priorityActions"`
		Insights        string          `json:"insights"`
		LastInspection  string          `json:"lastInspection"`
		NextMilestones  []string        `json:"nextMilestones"`
	}
	if err := decode(raw, &reply); err != nil {
		return FacilitySummary{}, err
	}

	switch {
	case reply.HealthScore == nil:
		return FacilitySummary{}, missing("healthScore")
	case strings.TrimSpace(reply.Insights) == "":
		return FacilitySummary{}, missing("insights")
	}
	status := strings.ToLower(strings.TrimSpace(reply.StatusLevel))
	if status != StatusGood && status != StatusCaution && status != StatusCritical {
		return FacilitySummary{}, fmt.Errorf("%w: statusLevel %q", ErrMalformedResponse, reply.StatusLevel)
	}

	score := math.Round(math.Max(0, math.Min(100, *reply.HealthScore)))
	return FacilitySummary{
		HealthScore: int(score),
		StatusLevel: status,
		PriorityActions: PriorityActions{
			Urgent:    nonNil(reply.PriorityActions.Urgent),
			ThisWeek:  nonNil(reply.PriorityActions.ThisWeek),
			ThisMonth: nonNil(reply.PriorityActions.ThisMonth),
		},
		Insights:       reply.Insights,
		LastInspection: reply.LastInspection,
		NextMilestones: nonNil(reply.NextMilestones),
	}, nil
}

func parseExplanation(raw, urgency string) (ViolationExplanation, error) {
	var e ViolationExplanation
	if err := decode(raw, &e); err != nil {
		return ViolationExplanation{}, err
	}
	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Explanation) == "" {
		return ViolationExplanation{}, missing("title", "explanation")
	}
	if e.Urgency == "" {
		e.Urgency = urgency
	}
	return e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
