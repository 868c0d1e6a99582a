package narrative

import (
	"testing"

	"github.com/h2operator/h2operator-backend/internal/compliance"
	"github.com/stretchr/testify/assert"
)

func TestFallbackGuidance_Timeframe(t *testing.T) {
	tests := []struct {
		days *int
		want string
	}{
		{intPtr(0), "Immediate (within 24 hours)"},
		{intPtr(1), "Immediate (within 24 hours)"},
		{intPtr(12), "Within 12 days"},
		{nil, "As soon as possible"},
	}
	for _, tt := range tests {
		g := FallbackGuidance(compliance.UrgentAction{Priority: compliance.PriorityHigh, DaysRemaining: tt.days})
		assert.Equal(t, tt.want, g.Timeframe)
		assert.Equal(t, "Submit compliance response and schedule corrective action", g.ActionNeeded)
		assert.Equal(t, compliance.PriorityHigh, g.Priority)
	}
}

func TestGenericGuidance(t *testing.T) {
	g := GenericGuidance()
	assert.Equal(t, compliance.PriorityMedium, g.Priority)
	assert.Equal(t, "Review Compliance Status", g.Title)
	assert.Len(t, g.NextSteps, 3)
}

func TestFallbackSummary(t *testing.T) {
	visit := compliance.SiteVisit{Date: compliance.Date{Year: 2023, Month: 11, Day: 15}}

	critical := FallbackSummary(compliance.Analysis{
		Violations:  compliance.ViolationSummary{Active: make([]compliance.Violation, 2), HealthBased: 1, Procedural: 1, RecentTrend: compliance.TrendDeclining},
		Inspections: compliance.InspectionSummary{Latest: &visit},
	})
	assert.Equal(t, 60, critical.HealthScore)
	assert.Equal(t, StatusCritical, critical.StatusLevel)
	assert.Equal(t, []string{"Resolve health-based violations immediately"}, critical.PriorityActions.Urgent)
	assert.Equal(t, []string{"Address procedural violations"}, critical.PriorityActions.ThisWeek)
	assert.Equal(t, "2023-11-15", critical.LastInspection)
	assert.Equal(t, "Facility has 2 active violations with declining trend. Focus on immediate compliance resolution.", critical.Insights)

	caution := FallbackSummary(compliance.Analysis{
		Violations: compliance.ViolationSummary{Active: make([]compliance.Violation, 4), Procedural: 4},
	})
	assert.Equal(t, 85, caution.HealthScore)
	assert.Equal(t, StatusCaution, caution.StatusLevel)
	assert.Empty(t, caution.PriorityActions.Urgent)
	assert.NotNil(t, caution.PriorityActions.Urgent)
	assert.Equal(t, "No recent inspection", caution.LastInspection)

	good := FallbackSummary(compliance.Analysis{})
	assert.Equal(t, StatusGood, good.StatusLevel)
	assert.Empty(t, good.PriorityActions.ThisWeek)
}

func TestGenericSummary(t *testing.T) {
	s := GenericSummary()
	assert.Equal(t, 75, s.HealthScore)
	assert.Equal(t, StatusCaution, s.StatusLevel)
	assert.Equal(t, "Data unavailable", s.LastInspection)
}

func TestFallbackExplanation_FromFacts(t *testing.T) {
	e := FallbackExplanation(ExplainFacts{ViolationCode: "02", Description: "MCL, Average", HealthBased: true}, "")
	assert.Equal(t, "Violation Requires Attention", e.Title)
	assert.Contains(t, e.Explanation, "Violation 02: MCL, Average.")
	assert.Equal(t, "HIGH PRIORITY - Health-based", e.Urgency)
	assert.Equal(t, "Within 24 hours", e.Timeframe)

	e = FallbackExplanation(ExplainFacts{ViolationCode: "99"}, "")
	assert.Equal(t, "Standard Priority - Procedural", e.Urgency)
	assert.Equal(t, "Review as soon as possible", e.Timeframe)
}
