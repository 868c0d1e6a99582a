package narrative

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/h2operator/h2operator-backend/internal/compliance"
	"github.com/h2operator/h2operator-backend/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns a canned reply or error and records the requests.
type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []Request
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func newTestGenerator(t *testing.T, c Completer, opts Options) *Generator {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	return NewGenerator(c, catalog, opts)
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, vec.WithLabelValues(labels...).Write(&m))
	return m.GetCounter().GetValue()
}

func intPtr(n int) *int { return &n }

func healthAction() compliance.UrgentAction {
	return compliance.UrgentAction{
		Type:             compliance.ActionViolation,
		Priority:         compliance.PriorityCritical,
		Title:            "Public Notice Required - Tier 1",
		Description:      "Health-based violation 02 began 2024-01-10.",
		DaysRemaining:    intPtr(0),
		ViolationCode:    "02",
		ContaminantCode:  "1040",
		HealthBased:      true,
		NotificationTier: 1,
	}
}

func TestUrgentAction_ModelReply(t *testing.T) {
	fake := &fakeCompleter{reply: "```json\n" + `{
		"priority": "medium",
		"title": "Notify customers about nitrate",
		"actionNeeded": "Issue a Tier 1 public notice",
		"timeframe": "Within 24 hours",
		"reason": "Nitrate above the MCL is an acute risk",
		"nextSteps": ["Call the state", "Post notice", "Resample"]
	}` + "\n```"}
	metrics := observability.NewMetricsForTesting()
	g := newTestGenerator(t, fake, Options{Metrics: metrics})

	out := g.UrgentAction(context.Background(), UrgentFacts{
		PWSID: "GA0010000", Action: healthAction(),
		ViolationDescription: "MCL, Average", ContaminantDescription: "Nitrate",
	})

	assert.False(t, out.FallbackUsed)
	assert.True(t, out.Cacheable())
	assert.Equal(t, "model", out.Source())
	assert.Equal(t, compliance.PriorityCritical, out.Value.Priority, "engine priority wins over the model's")
	assert.Equal(t, "Notify customers about nitrate", out.Value.Title)
	assert.Len(t, out.Value.NextSteps, 3)

	require.Equal(t, 1, fake.calls())
	req := fake.reqs[0]
	assert.Equal(t, KindUrgentAction, req.Kind)
	assert.InDelta(t, 0.2, req.Temperature, 1e-6)
	assert.Equal(t, 600, req.MaxTokens)
	assert.Contains(t, req.Prompt, "Violation Description: MCL, Average")
	assert.Contains(t, req.Prompt, "Contaminant: Nitrate")
	assert.Contains(t, req.Prompt, "Days Remaining: 0")
	assert.Contains(t, req.Prompt, "Health-Based: YES")

	assert.Equal(t, 1.0, counterValue(t, metrics.NarrativeOutcomes, string(KindUrgentAction), "model", "none"))
}

func TestUrgentAction_TransportFailureFallsBack(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection reset")}
	metrics := observability.NewMetricsForTesting()
	g := newTestGenerator(t, fake, Options{Metrics: metrics})

	action := healthAction()
	out := g.UrgentAction(context.Background(), UrgentFacts{PWSID: "GA0010000", Action: action})

	require.True(t, out.FallbackUsed)
	assert.False(t, out.Cacheable())
	assert.Equal(t, compliance.PriorityCritical, out.Value.Priority)
	assert.Equal(t, action.Title, out.Value.Title)
	assert.Equal(t, "Issue public notice immediately and contact state regulatory agency", out.Value.ActionNeeded)
	assert.Equal(t, "Immediate (within 24 hours)", out.Value.Timeframe)
	assert.Equal(t, "Health-based violation poses immediate risk to public health", out.Value.Reason)
	assert.Len(t, out.Value.NextSteps, 3)

	assert.Equal(t, 1.0, counterValue(t, metrics.NarrativeOutcomes, string(KindUrgentAction), "fallback", "transport"))
}

func TestUrgentAction_MalformedReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose", "You should issue a public notice right away."},
		{"missing fields", `{"title": "Do something"}`},
		{"empty steps", `{"title":"t","actionNeeded":"a","timeframe":"f","reason":"r","nextSteps":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, &fakeCompleter{reply: tt.reply}, Options{})

			out := g.UrgentAction(context.Background(), UrgentFacts{Action: healthAction()})
			require.True(t, out.FallbackUsed)
			assert.ErrorIs(t, out.Reason, ErrMalformedResponse)
			assert.True(t, out.Cacheable())
			assert.NotEmpty(t, out.Value.ActionNeeded)
		})
	}
}

func TestUrgentAction_EmptyReply(t *testing.T) {
	g := newTestGenerator(t, &fakeCompleter{err: ErrEmptyResponse}, Options{})

	out := g.UrgentAction(context.Background(), UrgentFacts{Action: healthAction()})
	assert.True(t, out.FallbackUsed)
	assert.ErrorIs(t, out.Reason, ErrEmptyResponse)
	assert.False(t, out.Cacheable())
}

func TestGenerator_DisabledUsesFallbackWithoutCalling(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	g := newTestGenerator(t, nil, Options{Metrics: metrics})
	assert.False(t, g.Enabled())

	out := g.Explain(context.Background(), ExplainFacts{ViolationCode: "03", HealthBased: false})
	assert.True(t, out.FallbackUsed)
	assert.ErrorIs(t, out.Reason, ErrDisabled)
	assert.True(t, out.Cacheable())
	assert.Equal(t, "Standard Priority - Procedural", out.Value.Urgency)
	assert.Equal(t, 1.0, counterValue(t, metrics.NarrativeOutcomes, string(KindExplanation), "fallback", "disabled"))
}

func TestGenerator_RateLimit(t *testing.T) {
	fake := &fakeCompleter{reply: `{"title":"t","explanation":"e","actionNeeded":"a","whyItMatters":"w","urgency":"u","timeframe":"f"}`}
	g := newTestGenerator(t, fake, Options{RatePerMinute: 1})

	first := g.Explain(context.Background(), ExplainFacts{ViolationCode: "03"})
	second := g.Explain(context.Background(), ExplainFacts{ViolationCode: "03"})

	assert.False(t, first.FallbackUsed)
	require.True(t, second.FallbackUsed)
	assert.ErrorIs(t, second.Reason, ErrRateLimited)
	assert.False(t, second.Cacheable())
	assert.Equal(t, 1, fake.calls())
}

func TestFacilitySummary_ModelReply(t *testing.T) {
	fake := &fakeCompleter{reply: `{
		"healthScore": 72.6,
		"statusLevel": "Caution",
		"priorityActions": {"urgent": [], "thisWeek": ["Submit monitoring report"]},
		"insights": "Two procedural violations remain open.",
		"lastInspection": "2023-11-15: pump seal",
		"nextMilestones": null
	}`}
	g := newTestGenerator(t, fake, Options{})

	pop := int64(4400)
	facts := SummaryFacts{Analysis: compliance.Analysis{
		System: compliance.System{PWSID: "GA0010000", Name: "BAXLEY", Population: &pop},
	}}
	out := g.FacilitySummary(context.Background(), facts)

	require.False(t, out.FallbackUsed, "%v", out.Reason)
	assert.Equal(t, 73, out.Value.HealthScore)
	assert.Equal(t, StatusCaution, out.Value.StatusLevel)
	assert.NotNil(t, out.Value.PriorityActions.ThisMonth)
	assert.NotNil(t, out.Value.NextMilestones)

	prompt := fake.reqs[0].Prompt
	assert.Contains(t, prompt, "FACILITY: BAXLEY (GA0010000)")
	assert.Contains(t, prompt, "Population: 4,400")
	assert.Contains(t, prompt, "- No recent inspection data")
	assert.Equal(t, 800, fake.reqs[0].MaxTokens)
}

func TestFacilitySummary_InvalidReplies(t *testing.T) {
	for _, reply := range []string{
		`{"statusLevel":"good","insights":"fine"}`,
		`{"healthScore":90,"statusLevel":"excellent","insights":"fine"}`,
		`{"healthScore":90,"statusLevel":"good"}`,
		`not json`,
	} {
		g := newTestGenerator(t, &fakeCompleter{reply: reply}, Options{})
		out := g.FacilitySummary(context.Background(), SummaryFacts{})
		assert.True(t, out.FallbackUsed, reply)
		assert.ErrorIs(t, out.Reason, ErrMalformedResponse, reply)
	}
}

func TestExplain_ProseReplyBecomesExplanation(t *testing.T) {
	g := newTestGenerator(t, &fakeCompleter{reply: "This violation means a sample was missed."}, Options{})

	out := g.Explain(context.Background(), ExplainFacts{ViolationCode: "02", HealthBased: true})
	require.True(t, out.FallbackUsed)
	assert.Equal(t, "Violation Explanation", out.Value.Title)
	assert.Equal(t, "This violation means a sample was missed.", out.Value.Explanation)
	assert.Equal(t, "HIGH PRIORITY - Health-based", out.Value.Urgency)
	assert.Equal(t, "As soon as possible", out.Value.Timeframe)
}

func TestExplain_PromptCarriesResolvedDescriptions(t *testing.T) {
	fake := &fakeCompleter{reply: `{"title":"t","explanation":"e"}`}
	g := newTestGenerator(t, fake, Options{})

	out := g.Explain(context.Background(), ExplainFacts{
		ViolationCode: "02", Description: "MCL, Average", Category: "MCL",
		HealthBased: true, Major: true, ContaminantDescription: "Nitrate",
	})
	assert.False(t, out.FallbackUsed)
	assert.Equal(t, "HIGH PRIORITY - Health-based", out.Value.Urgency, "missing urgency is filled in")

	prompt := fake.reqs[0].Prompt
	assert.Contains(t, prompt, `Official Description: "MCL, Average"`)
	assert.Contains(t, prompt, "Rule: Not specified")
	assert.Contains(t, prompt, "Major violation: Yes")
	assert.Contains(t, prompt, "- Contaminant: Nitrate")
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFence(`  {"a":1} `))
}

func TestParseCatalog_RequiresEveryKind(t *testing.T) {
	_, err := ParseCatalog([]byte("urgent_action:\n  max_tokens: 10\n  template: hi\n"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "facility_summary"))

	_, err = ParseCatalog([]byte("{{{"))
	assert.Error(t, err)
}

// TestOpenAICompleter_Smoke hits the real API and only runs with a key.
func TestOpenAICompleter_Smoke(t *testing.T) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		t.Skip("OPENAI_API_KEY not set, skipping live narrative test")
	}

	g := newTestGenerator(t, NewOpenAICompleter(key, "", "", 30*time.Second), Options{})
	out := g.Explain(context.Background(), ExplainFacts{
		ViolationCode: "03", Description: "Monitoring, Regular", Category: "MR",
	})
	assert.NotEmpty(t, out.Value.Title)
	assert.NotEmpty(t, out.Value.Explanation)
}
