// Package compliance holds the rules that turn a water system's regulatory
// records into operator-facing signals: the single most urgent action, the
// per-day violation calendar, and the year-over-year trend.
//
// Everything here is pure. Callers load records through the facility
// accessors and hand them over already normalized.
package compliance

// StatusUnaddressed is the violation status that keeps a violation
// outstanding even when it carries an end date.
const StatusUnaddressed = "Unaddressed"

// Evaluation codes recorded on a site visit.
const (
	EvalSignificantDeficiency = "S"
	EvalMinorDeficiency       = "M"
)

// System is the registry profile of a water system as the engine and the
// narrative prompts see it.
type System struct {
	PWSID             string `json:"pwsid"`
	Name              string `json:"name"`
	TypeCode          string `json:"typeCode"`
	OwnerTypeCode     string `json:"ownerTypeCode"`
	PrimarySourceCode string `json:"primarySourceCode"`
	Population        *int64 `json:"population"`
	City              string `json:"city"`
	State             string `json:"state"`
}

// Violation is one compliance violation with its dates already parsed.
type Violation struct {
	ID        string `json:"violationId"`
	PWSID     string `json:"pwsid"`
	BeginDate Date   `json:"beginDate"`
	EndDate   Date   `json:"endDate"`

	// EndRecorded is true when the stored end date held anything other than
	// an empty value or "nan", parseable or not.
	EndRecorded bool `json:"-"`

	Code             string `json:"violationCode"`
	CategoryCode     string `json:"categoryCode"`
	HealthBased      bool   `json:"isHealthBased"`
	Major            bool   `json:"isMajor"`
	Status           string `json:"status"`
	ContaminantCode  string `json:"contaminantCode,omitempty"`
	NotificationTier int    `json:"publicNotificationTier,omitempty"`
	RuleCode         string `json:"ruleCode"`
}

// SiteVisit is one inspection with its per-category evaluation codes.
type SiteVisit struct {
	ID                   string `json:"visitId"`
	Date                 Date   `json:"visitDate"`
	ManagementOps        string `json:"managementOpsEval,omitempty"`
	SourceWater          string `json:"sourceWaterEval,omitempty"`
	Compliance           string `json:"complianceEval,omitempty"`
	Treatment            string `json:"treatmentEval,omitempty"`
	Distribution         string `json:"distributionEval,omitempty"`
	FinishedWaterStorage string `json:"finishedWaterStorageEval,omitempty"`
	Pumps                string `json:"pumpsEval,omitempty"`
	Operator             string `json:"operatorEval,omitempty"`
	Security             string `json:"securityEval,omitempty"`
	Comments             string `json:"comments,omitempty"`
}

// Milestone is a scheduled or achieved compliance event.
type Milestone struct {
	ID           string `json:"eventScheduleId"`
	ScheduledEnd Date   `json:"scheduledEndDate"`
	Actual       Date   `json:"actualDate"`
	Comment      string `json:"comment,omitempty"`
	Code         string `json:"milestoneCode"`
	ReasonCode   string `json:"reasonCode,omitempty"`
}

// IsOutstanding reports whether a violation still needs action: it has no
// end date on record, or its status is Unaddressed. A "Resolved" status with
// no end date still counts as outstanding here.
func IsOutstanding(v Violation) bool {
	return !v.EndRecorded || v.Status == StatusUnaddressed
}

// HasOutstanding reports whether any violation in vs is outstanding.
func HasOutstanding(vs []Violation) bool {
	for _, v := range vs {
		if IsOutstanding(v) {
			return true
		}
	}
	return false
}
