package compliance

// Trend is a blunt two-year comparison of violation counts. It is not a
// regression and says nothing about statistical significance.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// CompareYears compares last year's count with the year before.
func CompareYears(lastYear, previousYear int) Trend {
	switch {
	case lastYear < previousYear:
		return TrendImproving
	case lastYear > previousYear:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// ComputeTrend counts violations of any status whose compliance period began
// in currentYear-1 and currentYear-2 and compares the two.
func ComputeTrend(violations []Violation, currentYear int) Trend {
	last, previous := 0, 0
	for _, v := range violations {
		switch v.BeginDate.Year {
		case currentYear - 1:
			last++
		case currentYear - 2:
			previous++
		}
	}
	return CompareYears(last, previous)
}
