package narrative

import (
	"fmt"

	"github.com/h2operator/h2operator-backend/internal/compliance"
)

// Fallback health scores.
const (
	scoreWithHealthViolations = 60
	scoreWithout              = 85
	scoreUnknown              = 75
)

// cautionActiveThreshold is the active violation count above which a facility
// without health-based violations is flagged "caution".
const cautionActiveThreshold = 3

// FallbackGuidance renders an urgent action without the model.
func FallbackGuidance(a compliance.UrgentAction) ActionGuidance {
	g := ActionGuidance{
		Priority:  a.Priority,
		Title:     a.Title,
		Timeframe: fallbackTimeframe(a.DaysRemaining),
		NextSteps: []string{
			"Contact state regulatory agency",
			"Review compliance procedures",
			"Document corrective actions taken",
		},
	}
	if a.HealthBased {
		g.ActionNeeded = "Issue public notice immediately and contact state regulatory agency"
		g.Reason = "Health-based violation poses immediate risk to public health"
	} else {
		g.ActionNeeded = "Submit compliance response and schedule corrective action"
		g.Reason = "Regulatory compliance violation requires formal response"
	}
	return g
}

func fallbackTimeframe(days *int) string {
	switch {
	case days != nil && *days <= 1:
		return "Immediate (within 24 hours)"
	case days != nil:
		return fmt.Sprintf("Within %d days", *days)
	default:
		return "As soon as possible"
	}
}

// GenericGuidance is returned when the urgent action itself could not be
// computed.
func GenericGuidance() ActionGuidance {
	return ActionGuidance{
		Priority:     compliance.PriorityMedium,
		Title:        "Review Compliance Status",
		ActionNeeded: "Check recent monitoring and inspection requirements",
		Timeframe:    "Within 1 week",
		Reason:       "Regular compliance monitoring is essential for system operation",
		NextSteps: []string{
			"Review recent monitoring results",
			"Check upcoming sampling deadlines",
			"Contact regulatory authority if questions arise",
		},
	}
}

// FallbackSummary scores a facility from its analysis alone.
func FallbackSummary(a compliance.Analysis) FacilitySummary {
	v := a.Violations
	s := FacilitySummary{
		HealthScore: scoreWithout,
		StatusLevel: StatusGood,
		PriorityActions: PriorityActions{
			Urgent:    []string{},
			ThisWeek:  []string{},
			ThisMonth: []string{"Review compliance procedures", "Schedule routine monitoring"},
		},
		Insights: fmt.Sprintf("Facility has %d active violations with %s trend. Focus on immediate compliance resolution.",
			len(v.Active), v.RecentTrend),
		LastInspection: "No recent inspection",
		NextMilestones: []string{"Regular monitoring", "Annual compliance review"},
	}

	switch {
	case v.HealthBased > 0:
		s.HealthScore = scoreWithHealthViolations
		s.StatusLevel = StatusCritical
	case len(v.Active) > cautionActiveThreshold:
		s.StatusLevel = StatusCaution
	}
	if v.HealthBased > 0 {
		s.PriorityActions.Urgent = []string{"Resolve health-based violations immediately"}
	}
	if v.Procedural > 0 {
		s.PriorityActions.ThisWeek = []string{"Address procedural violations"}
	}
	if latest := a.Inspections.Latest; latest != nil && !latest.Date.IsZero() {
		s.LastInspection = latest.Date.String()
	}
	return s
}

// GenericSummary is returned when the facility analysis could not be
// computed.
func GenericSummary() FacilitySummary {
	return FacilitySummary{
		HealthScore: scoreUnknown,
		StatusLevel: StatusCaution,
		PriorityActions: PriorityActions{
			Urgent:    []string{},
			ThisWeek:  []string{"Review facility compliance status"},
			ThisMonth: []string{"Contact regulatory authority for guidance"},
		},
		Insights:       "Unable to generate detailed analysis. Please review facility records manually.",
		LastInspection: "Data unavailable",
		NextMilestones: []string{"Standard compliance monitoring"},
	}
}

// FallbackExplanation explains a violation without the model. When the model
// replied with prose instead of JSON, that prose becomes the explanation.
func FallbackExplanation(f ExplainFacts, raw string) ViolationExplanation {
	if raw != "" {
		return ViolationExplanation{
			Title:        "Violation Explanation",
			Explanation:  raw,
			ActionNeeded: "Contact your regulatory authority for specific guidance",
			WhyItMatters: "Compliance with water quality regulations ensures public safety",
			Urgency:      f.Urgency(),
			Timeframe:    "As soon as possible",
		}
	}

	e := ViolationExplanation{
		Title: "Violation Requires Attention",
		Explanation: "This violation indicates a compliance issue that needs to be addressed. " +
			"Please review the specific requirements for this violation type.",
		ActionNeeded: "Contact your laboratory or regulatory authority for specific guidance on resolving this violation.",
		WhyItMatters: "Addressing violations promptly helps ensure water quality and regulatory compliance.",
		Urgency:      f.Urgency(),
		Timeframe:    "Review as soon as possible",
	}
	if f.Description != "" {
		e.Explanation = fmt.Sprintf("Violation %s: %s. %s", f.ViolationCode, f.Description,
			"Please review the specific requirements for this violation type.")
	}
	if f.HealthBased {
		e.Timeframe = "Within 24 hours"
	}
	return e
}
