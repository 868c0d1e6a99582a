package compliance

import (
	"fmt"
	"strings"
	"time"
)

const (
	storedDateLayout = "1/2/2006"
	isoDateLayout    = "2006-01-02"
)

// Date is a calendar day with no time-of-day or zone. The zero value means
// "no date recorded".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseStoredDate parses the dataset's MM/DD/YYYY text form. A trailing time
// part ("01/10/2024 00:00:00") is ignored. Empty, "nan" and malformed values
// report ok=false.
func ParseStoredDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return Date{}, false
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse(storedDateLayout, s)
	if err != nil {
		return Date{}, false
	}
	return DateOf(t), true
}

// ParseISODate parses YYYY-MM-DD.
func ParseISODate(s string) (Date, bool) {
	t, err := time.Parse(isoDateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, false
	}
	return DateOf(t), true
}

// IsZero reports whether no date is recorded.
func (d Date) IsZero() bool { return d == Date{} }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(isoDateLayout)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Time().After(o.Time()) }

// DaysSince returns whole days elapsed from start to d. Negative when start
// lies in the future.
func (d Date) DaysSince(start Date) int {
	return int(d.Time().Sub(start.Time()).Hours() / 24)
}

// AddDays shifts the date by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// MarshalText renders the ISO form so dates serialize as "2024-01-10" and the
// zero date as "".
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts the ISO form. An empty value yields the zero date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, ok := ParseISODate(string(b))
	if !ok {
		return fmt.Errorf("invalid date %q", b)
	}
	*d = parsed
	return nil
}

// DateRange is an inclusive span of days. Zero bounds are open.
type DateRange struct {
	From Date
	To   Date
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	if d.IsZero() {
		return false
	}
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}
