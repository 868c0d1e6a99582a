package compliance

import (
	"fmt"
	"sort"
)

// ActionType classifies where an urgent action came from.
type ActionType string

const (
	ActionViolation  ActionType = "violation"
	ActionInspection ActionType = "inspection"
	ActionMilestone  ActionType = "milestone"
	ActionNone       ActionType = "none"
)

// Priority is the operator-facing urgency tier.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
)

// Public notice windows, in days from the start of the compliance period.
const (
	HealthBasedNoticeDays = 1
	ProceduralNoticeDays  = 30
)

// UrgentAction is the single highest-priority thing a facility should do next.
type UrgentAction struct {
	Type          ActionType `json:"actionType"`
	Priority      Priority   `json:"priority,omitempty"`
	Title         string     `json:"title,omitempty"`
	Description   string     `json:"description,omitempty"`
	DaysRemaining *int       `json:"daysRemaining"`

	ViolationID      string `json:"violationId,omitempty"`
	ViolationCode    string `json:"violationCode,omitempty"`
	ContaminantCode  string `json:"contaminantCode,omitempty"`
	HealthBased      bool   `json:"isHealthBased"`
	NotificationTier int    `json:"publicNotificationTier,omitempty"`
}

const (
	inspectionActionTitle       = "Correct Significant Deficiency from Inspection"
	inspectionActionDescription = "The most recent site visit found a significant deficiency. A corrective action plan must be agreed with the state primacy agency."
)

// SelectUrgentAction picks exactly one action for a facility.
//
// Outstanding violations win: health-based first, then lower public
// notification tier (unset tiers last), then the oldest compliance period.
// Ties keep input order. With nothing outstanding, a significant deficiency
// on the latest site visit yields an inspection action; otherwise the result
// has type ActionNone.
func SelectUrgentAction(violations []Violation, latestVisit *SiteVisit, today Date) UrgentAction {
	var outstanding []Violation
	for _, v := range violations {
		if IsOutstanding(v) {
			outstanding = append(outstanding, v)
		}
	}

	if len(outstanding) > 0 {
		sort.SliceStable(outstanding, func(i, j int) bool {
			return urgencyLess(outstanding[i], outstanding[j])
		})
		return violationAction(outstanding[0], today)
	}

	if latestVisit != nil && HasSignificantDeficiency(*latestVisit) {
		return UrgentAction{
			Type:        ActionInspection,
			Priority:    PriorityHigh,
			Title:       inspectionActionTitle,
			Description: inspectionActionDescription,
		}
	}

	return UrgentAction{Type: ActionNone}
}

func urgencyLess(a, b Violation) bool {
	if a.HealthBased != b.HealthBased {
		return a.HealthBased
	}
	if ra, rb := tierRank(a.NotificationTier), tierRank(b.NotificationTier); ra != rb {
		return ra < rb
	}
	return beginsEarlier(a.BeginDate, b.BeginDate)
}

// tierRank orders tiers 1, 2, 3 ahead of anything else.
func tierRank(tier int) int {
	if tier >= 1 && tier <= 3 {
		return tier
	}
	return 4
}

// beginsEarlier sorts undated violations after dated ones.
func beginsEarlier(a, b Date) bool {
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	default:
		return a.Before(b)
	}
}

// DaysRemaining estimates days left in the public notice window. It is nil
// when the begin date is unknown and never negative.
func DaysRemaining(v Violation, today Date) *int {
	if v.BeginDate.IsZero() {
		return nil
	}
	window := ProceduralNoticeDays
	if v.HealthBased {
		window = HealthBasedNoticeDays
	}
	left := max(0, window-today.DaysSince(v.BeginDate))
	return &left
}

// PriorityFor maps a violation to its urgency tier.
func PriorityFor(v Violation) Priority {
	switch {
	case v.HealthBased:
		return PriorityCritical
	case v.NotificationTier == 2:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

func violationAction(v Violation, today Date) UrgentAction {
	a := UrgentAction{
		Type:             ActionViolation,
		Priority:         PriorityFor(v),
		DaysRemaining:    DaysRemaining(v, today),
		ViolationID:      v.ID,
		ViolationCode:    v.Code,
		ContaminantCode:  v.ContaminantCode,
		HealthBased:      v.HealthBased,
		NotificationTier: v.NotificationTier,
	}

	switch {
	case v.HealthBased:
		a.Title = "Health-Based Violation Requires Public Notice"
	case v.NotificationTier == 2:
		a.Title = "Violation Requires Public Notification"
	default:
		a.Title = "Outstanding Compliance Violation"
	}

	since := "an unknown date"
	if !v.BeginDate.IsZero() {
		since = v.BeginDate.String()
	}
	a.Description = fmt.Sprintf("Violation %s (category %s, rule %s) has been outstanding since %s with status %q.",
		v.Code, v.CategoryCode, v.RuleCode, since, v.Status)
	return a
}

// HasSignificantDeficiency checks the management/operations, source water,
// compliance and treatment evaluations of a visit for an "S" marker.
func HasSignificantDeficiency(v SiteVisit) bool {
	for _, code := range []string{v.ManagementOps, v.SourceWater, v.Compliance, v.Treatment} {
		if code == EvalSignificantDeficiency {
			return true
		}
	}
	return false
}
