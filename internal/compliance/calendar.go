package compliance

import "sort"

// Severity weights for the calendar heatmap.
const (
	HealthBasedWeight = 3
	ProceduralWeight  = 1
)

// CalendarDay aggregates the violations that began on one day.
type CalendarDay struct {
	Date        string      `json:"date"`
	Value       int         `json:"value"`
	HealthBased int         `json:"healthBased"`
	Procedural  int         `json:"procedural"`
	Violations  []Violation `json:"violations"`
}

// BuildCalendar groups violations by begin date, keyed YYYY-MM-DD. Only days
// with at least one violation appear; undated violations are dropped. Map
// order carries no meaning, use SortedDays for display.
func BuildCalendar(violations []Violation) map[string]CalendarDay {
	days := make(map[string]*CalendarDay)
	for _, v := range violations {
		if v.BeginDate.IsZero() {
			continue
		}
		key := v.BeginDate.String()
		day, ok := days[key]
		if !ok {
			day = &CalendarDay{Date: key}
			days[key] = day
		}
		if v.HealthBased {
			day.HealthBased++
		} else {
			day.Procedural++
		}
		day.Violations = append(day.Violations, v)
	}

	out := make(map[string]CalendarDay, len(days))
	for key, day := range days {
		day.Value = HealthBasedWeight*day.HealthBased + ProceduralWeight*day.Procedural
		out[key] = *day
	}
	return out
}

// SortedDays flattens a calendar into chronological order.
func SortedDays(calendar map[string]CalendarDay) []CalendarDay {
	out := make([]CalendarDay, 0, len(calendar))
	for _, day := range calendar {
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// CalendarTotal counts the violations across all days.
func CalendarTotal(calendar map[string]CalendarDay) int {
	n := 0
	for _, day := range calendar {
		n += day.HealthBased + day.Procedural
	}
	return n
}
