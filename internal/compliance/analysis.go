package compliance

import "fmt"

// Terminal statuses that take a violation out of the active count.
const (
	StatusResolved = "Resolved"
	StatusArchived = "Archived"
)

// Analysis is the aggregated compliance state of one facility.
type Analysis struct {
	System      System            `json:"system"`
	Violations  ViolationSummary  `json:"violations"`
	Inspections InspectionSummary `json:"inspections"`
	Milestones  []Milestone       `json:"milestones"`
}

// ViolationSummary splits a facility's violations for reporting. The
// health-based and procedural counts cover active violations only.
type ViolationSummary struct {
	Active      []Violation `json:"active"`
	Total       int         `json:"total"`
	HealthBased int         `json:"healthBased"`
	Procedural  int         `json:"procedural"`
	RecentTrend Trend       `json:"recentTrend"`
}

// InspectionSummary describes the latest site visit.
type InspectionSummary struct {
	Latest         *SiteVisit `json:"latest"`
	RecentFindings []string   `json:"recentFindings"`
}

// IsActive reports whether a violation counts toward the active total. This
// is a status check and intentionally differs from IsOutstanding.
func IsActive(v Violation) bool {
	return v.Status != StatusResolved && v.Status != StatusArchived
}

// Analyze builds the compliance analysis for a facility.
func Analyze(system System, violations []Violation, latestVisit *SiteVisit, milestones []Milestone, today Date) Analysis {
	a := Analysis{
		System:     system,
		Milestones: milestones,
		Violations: ViolationSummary{
			Active:      []Violation{},
			Total:       len(violations),
			RecentTrend: ComputeTrend(violations, today.Year),
		},
		Inspections: InspectionSummary{
			Latest:         latestVisit,
			RecentFindings: []string{},
		},
	}
	if a.Milestones == nil {
		a.Milestones = []Milestone{}
	}

	for _, v := range violations {
		if !IsActive(v) {
			continue
		}
		a.Violations.Active = append(a.Violations.Active, v)
		if v.HealthBased {
			a.Violations.HealthBased++
		} else {
			a.Violations.Procedural++
		}
	}

	if latestVisit != nil {
		a.Inspections.RecentFindings = Findings(*latestVisit)
	}
	return a
}

// Findings lists every evaluated category of a visit marked as a significant
// or minor deficiency, e.g. "Treatment: significant deficiency".
func Findings(v SiteVisit) []string {
	categories := []struct {
		label string
		code  string
	}{
		{"Management/Operations", v.ManagementOps},
		{"Source Water", v.SourceWater},
		{"Compliance", v.Compliance},
		{"Treatment", v.Treatment},
		{"Distribution", v.Distribution},
		{"Finished Water Storage", v.FinishedWaterStorage},
		{"Pumps", v.Pumps},
		{"Operator", v.Operator},
		{"Security", v.Security},
	}

	findings := []string{}
	for _, c := range categories {
		switch c.code {
		case EvalSignificantDeficiency:
			findings = append(findings, fmt.Sprintf("%s: significant deficiency", c.label))
		case EvalMinorDeficiency:
			findings = append(findings, fmt.Sprintf("%s: minor deficiency", c.label))
		}
	}
	return findings
}
