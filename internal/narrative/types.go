package narrative

import (
	"github.com/h2operator/h2operator-backend/internal/compliance"
)

// Kind names a narrative product. It keys the prompt catalog and metrics.
type Kind string

const (
	KindUrgentAction    Kind = "urgent_action"
	KindFacilitySummary Kind = "facility_summary"
	KindExplanation     Kind = "violation_explanation"
)

// Status levels of a facility summary.
const (
	StatusGood     = "good"
	StatusCaution  = "caution"
	StatusCritical = "critical"
)

// ActionGuidance is the operator-facing rendering of an urgent action.
type ActionGuidance struct {
	Priority     compliance.Priority `json:"priority"`
	Title        string              `json:"title"`
	ActionNeeded string              `json:"actionNeeded"`
	Timeframe    string              `json:"timeframe"`
	Reason       string              `json:"reason"`
	NextSteps    []string            `json:"nextSteps"`
}

type PriorityActions struct {
	Urgent    []string `json:"urgent"`
	ThisWeek  []string `json:"thisWeek"`
	ThisMonth []string `json:"thisMonth"`
}

// FacilitySummary is the narrated compliance overview of one facility.
type FacilitySummary struct {
	HealthScore     int             `json:"healthScore"`
	StatusLevel     string          `json:"statusLevel"`
	PriorityActions PriorityActions `json:"priorityActions"`
	Insights        string          `json:"insights"`
	LastInspection  string          `json:"lastInspection"`
	NextMilestones  []string        `json:"nextMilestones"`
}

// ViolationExplanation describes one violation in plain language.
type ViolationExplanation struct {
	Title        string `json:"title"`
	Explanation  string `json:"explanation"`
	ActionNeeded string `json:"actionNeeded"`
	WhyItMatters string `json:"whyItMatters"`
	Urgency      string `json:"urgency"`
	Timeframe    string `json:"timeframe"`
}

// UrgentFacts is what the model is told about an urgent action.
type UrgentFacts struct {
	PWSID                  string
	Action                 compliance.UrgentAction
	ViolationDescription   string
	ContaminantDescription string
}

// ViolationDetail is one active violation with its resolved description.
type ViolationDetail struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	HealthBased bool   `json:"isHealthBased"`
	Major       bool   `json:"isMajor"`
	Status      string `json:"status"`
	BeginDate   string `json:"beginDate"`
}

// SummaryFacts is what the model is told about a facility.
type SummaryFacts struct {
	Analysis compliance.Analysis
	Active   []ViolationDetail
}

// ExplainFacts is what the model is told about a single violation.
type ExplainFacts struct {
	ViolationCode          string
	Description            string
	Category               string
	RuleCode               string
	HealthBased            bool
	Major                  bool
	ContaminantDescription string
}

// Urgency is the label attached to an explanation.
func (f ExplainFacts) Urgency() string {
	if f.HealthBased {
		return "HIGH PRIORITY - Health-based"
	}
	return "Standard Priority - Procedural"
}
