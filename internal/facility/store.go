package facility

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/h2operator/h2operator-backend/internal/compliance"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

const (
	SearchLimit       = 50
	TopViolatorsLimit = 30
)

// Store reads the SDWIS dataset. It never writes.
type Store struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) *Store {
	return &Store{db: d}
}

// Search matches q case-insensitively against ID, name and city of active
// systems, ordered by name.
func (s *Store) Search(ctx context.Context, q string) ([]WaterSystem, error) {
	term := "%" + q + "%"

	systems := []WaterSystem{}
	err := s.db.WithContext(ctx).
		Where("pws_activity_code = ?", ActivityActive).
		Where("(UPPER(pwsid) LIKE UPPER(?) OR UPPER(pws_name) LIKE UPPER(?) OR UPPER(city_name) LIKE UPPER(?))",
			term, term, term).
		Order("pws_name").
		Limit(SearchLimit).
		Find(&systems).Error
	if err != nil {
		return nil, fmt.Errorf("search water systems: %w", err)
	}
	return systems, nil
}

// FindByPWSID returns the active system with the given ID.
func (s *Store) FindByPWSID(ctx context.Context, pwsid string) (*WaterSystem, error) {
	var ws WaterSystem
	err := s.db.WithContext(ctx).
		Where("pwsid = ? AND pws_activity_code = ?", pwsid, ActivityActive).
		Take(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find water system %s: %w", pwsid, err)
	}
	return &ws, nil
}

// Violations returns the facility's violations whose begin date falls in rng,
// ordered by begin date then ID. Rows without a parseable begin date are
// skipped.
//
// Dates are stored as MM/DD/YYYY text, which does not compare in SQL, so the
// range is applied after parsing.
func (s *Store) Violations(ctx context.Context, pwsid string, rng compliance.DateRange) ([]compliance.Violation, error) {
	var rows []ViolationRecord
	if err := s.db.WithContext(ctx).Where("pwsid = ?", pwsid).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load violations for %s: %w", pwsid, err)
	}

	out := make([]compliance.Violation, 0, len(rows))
	for _, row := range rows {
		v, ok := row.Normalize()
		if !ok || !rng.Contains(v.BeginDate) {
			continue
		}
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BeginDate != out[j].BeginDate {
			return out[i].BeginDate.Before(out[j].BeginDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SiteVisits returns up to limit inspections, newest first. Visits with no
// readable date sort last. A limit of 0 returns all of them.
func (s *Store) SiteVisits(ctx context.Context, pwsid string, limit int) ([]compliance.SiteVisit, error) {
	var rows []SiteVisitRecord
	if err := s.db.WithContext(ctx).Where("pwsid = ?", pwsid).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load site visits for %s: %w", pwsid, err)
	}

	visits := make([]compliance.SiteVisit, 0, len(rows))
	for _, row := range rows {
		visits = append(visits, row.Normalize())
	}
	sort.SliceStable(visits, func(i, j int) bool {
		return newerFirst(visits[i].Date, visits[j].Date)
	})
	return truncate(visits, limit), nil
}

// LatestSiteVisit returns the most recent inspection or nil when there is none.
func (s *Store) LatestSiteVisit(ctx context.Context, pwsid string) (*compliance.SiteVisit, error) {
	visits, err := s.SiteVisits(ctx, pwsid, 1)
	if err != nil || len(visits) == 0 {
		return nil, err
	}
	return &visits[0], nil
}

// Milestones returns up to limit events ordered by actual date, or the
// scheduled end date when nothing was achieved yet, newest first.
func (s *Store) Milestones(ctx context.Context, pwsid string, limit int) ([]compliance.Milestone, error) {
	var rows []MilestoneRecord
	if err := s.db.WithContext(ctx).Where("pwsid = ?", pwsid).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load milestones for %s: %w", pwsid, err)
	}

	events := make([]compliance.Milestone, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.Normalize())
	}
	sort.SliceStable(events, func(i, j int) bool {
		return newerFirst(milestoneDate(events[i]), milestoneDate(events[j]))
	})
	return truncate(events, limit), nil
}

// TopViolators ranks active systems by number of violation records.
func (s *Store) TopViolators(ctx context.Context, n int) ([]Violator, error) {
	if n <= 0 {
		n = TopViolatorsLimit
	}

	out := []Violator{}
	err := s.db.WithContext(ctx).Raw(`
		SELECT w.pwsid, w.pws_name, w.city_name, COUNT(*) AS violation_count
		FROM `+TableWaterSystems+` w
		JOIN `+TableViolations+` v ON v.pwsid = w.pwsid
		WHERE w.pws_activity_code = ?
		GROUP BY w.pwsid, w.pws_name, w.city_name
		ORDER BY violation_count DESC, w.pws_name
		LIMIT ?`, ActivityActive, n).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("rank violators: %w", err)
	}
	return out, nil
}

// ViolationCodeDescription resolves a violation code to its reference text.
func (s *Store) ViolationCodeDescription(ctx context.Context, code string) (string, error) {
	return s.describe(ctx, ValueTypeViolation, code)
}

// ContaminantCodeDescription resolves a contaminant code to its reference text.
func (s *Store) ContaminantCodeDescription(ctx context.Context, code string) (string, error) {
	return s.describe(ctx, ValueTypeContaminant, code)
}

func (s *Store) describe(ctx context.Context, valueType, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrNotFound
	}

	var row CodeDescription
	err := s.db.WithContext(ctx).
		Where("value_type = ? AND value_code = ?", valueType, code).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("describe %s %s: %w", valueType, code, err)
	}
	return row.Description, nil
}

func milestoneDate(m compliance.Milestone) compliance.Date {
	if !m.Actual.IsZero() {
		return m.Actual
	}
	return m.ScheduledEnd
}

func newerFirst(a, b compliance.Date) bool {
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	}
	return a.After(b)
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
