package facility

import (
	"math"
	"strconv"
	"strings"

	"github.com/h2operator/h2operator-backend/internal/compliance"
)

// ActivityActive marks a water system that is currently operating.
const ActivityActive = "A"

// Reference code value types.
const (
	ValueTypeViolation   = "VIOLATION_CODE"
	ValueTypeContaminant = "CONTAMINANT_CODE"
)

// Table names of the SDWIS dataset.
const (
	TableWaterSystems = "sdwa_pub_water_systems"
	TableViolations   = "sdwa_violations_enforcement"
	TableSiteVisits   = "sdwa_site_visits"
	TableMilestones   = "sdwa_events_milestones"
	TableRefCodes     = "sdwa_ref_code_values"
)

// Tables lists every table the service reads.
var Tables = []string{TableWaterSystems, TableViolations, TableSiteVisits, TableMilestones, TableRefCodes}

type WaterSystem struct {
	PWSID             string `gorm:"column:pwsid;primaryKey" json:"pwsid"`
	Name              string `gorm:"column:pws_name" json:"name"`
	TypeCode          string `gorm:"column:pws_type_code" json:"typeCode"`
	Population        *int64 `gorm:"column:population_served_count" json:"population"`
	ActivityCode      string `gorm:"column:pws_activity_code" json:"activityCode"`
	City              string `gorm:"column:city_name" json:"city"`
	State             string `gorm:"column:state_code" json:"state"`
	OwnerTypeCode     string `gorm:"column:owner_type_code" json:"ownerTypeCode"`
	PrimarySourceCode string `gorm:"column:primary_source_code" json:"primarySourceCode"`
}

func (WaterSystem) TableName() string { return TableWaterSystems }

// Profile converts the registry row into the engine's view of a system.
func (w WaterSystem) Profile() compliance.System {
	return compliance.System{
		PWSID:             w.PWSID,
		Name:              w.Name,
		TypeCode:          w.TypeCode,
		OwnerTypeCode:     w.OwnerTypeCode,
		PrimarySourceCode: w.PrimarySourceCode,
		Population:        w.Population,
		City:              w.City,
		State:             w.State,
	}
}

// ViolationRecord is a violation row as stored. Dates and flags are text.
type ViolationRecord struct {
	ViolationID      string `gorm:"column:violation_id"`
	PWSID            string `gorm:"column:pwsid"`
	BeginDate        string `gorm:"column:compl_per_begin_date"`
	EndDate          string `gorm:"column:compl_per_end_date"`
	Code             string `gorm:"column:violation_code"`
	CategoryCode     string `gorm:"column:violation_category_code"`
	HealthBased      string `gorm:"column:is_health_based_ind"`
	Major            string `gorm:"column:is_major_viol_ind"`
	Status           string `gorm:"column:violation_status"`
	ContaminantCode  string `gorm:"column:contaminant_code"`
	NotificationTier string `gorm:"column:public_notification_tier"`
	RuleCode         string `gorm:"column:rule_code"`
}

func (ViolationRecord) TableName() string { return TableViolations }

// Normalize parses the stored text fields. ok is false when the begin date is
// absent or unparsable; such rows are dropped by every caller.
func (r ViolationRecord) Normalize() (compliance.Violation, bool) {
	begin, ok := compliance.ParseStoredDate(r.BeginDate)
	if !ok {
		return compliance.Violation{}, false
	}
	end, _ := compliance.ParseStoredDate(r.EndDate)

	return compliance.Violation{
		ID:               r.ViolationID,
		PWSID:            r.PWSID,
		BeginDate:        begin,
		EndDate:          end,
		EndRecorded:      recorded(r.EndDate),
		Code:             r.Code,
		CategoryCode:     r.CategoryCode,
		HealthBased:      flag(r.HealthBased),
		Major:            flag(r.Major),
		Status:           strings.TrimSpace(r.Status),
		ContaminantCode:  strings.TrimSpace(r.ContaminantCode),
		NotificationTier: tier(r.NotificationTier),
		RuleCode:         r.RuleCode,
	}, true
}

type SiteVisitRecord struct {
	VisitID              string `gorm:"column:visit_id"`
	PWSID                string `gorm:"column:pwsid"`
	VisitDate            string `gorm:"column:visit_date"`
	ManagementOps        string `gorm:"column:management_ops_eval_code"`
	SourceWater          string `gorm:"column:source_water_eval_code"`
	Compliance           string `gorm:"column:compliance_eval_code"`
	Treatment            string `gorm:"column:treatment_eval_code"`
	Distribution         string `gorm:"column:distribution_eval_code"`
	FinishedWaterStorage string `gorm:"column:finished_water_stor_eval_code"`
	Pumps                string `gorm:"column:pumps_eval_code"`
	Operator             string `gorm:"column:operator_eval_code"`
	Security             string `gorm:"column:security_eval_code"`
	Comments             string `gorm:"column:visit_comments"`
}

func (SiteVisitRecord) TableName() string { return TableSiteVisits }

func (r SiteVisitRecord) Normalize() compliance.SiteVisit {
	d, _ := compliance.ParseStoredDate(r.VisitDate)
	return compliance.SiteVisit{
		ID:                   r.VisitID,
		Date:                 d,
		ManagementOps:        strings.TrimSpace(r.ManagementOps),
		SourceWater:          strings.TrimSpace(r.SourceWater),
		Compliance:           strings.TrimSpace(r.Compliance),
		Treatment:            strings.TrimSpace(r.Treatment),
		Distribution:         strings.TrimSpace(r.Distribution),
		FinishedWaterStorage: strings.TrimSpace(r.FinishedWaterStorage),
		Pumps:                strings.TrimSpace(r.Pumps),
		Operator:             strings.TrimSpace(r.Operator),
		Security:             strings.TrimSpace(r.Security),
		Comments:             r.Comments,
	}
}

type MilestoneRecord struct {
	EventScheduleID string `gorm:"column:event_schedule_id"`
	PWSID           string `gorm:"column:pwsid"`
	EndDate         string `gorm:"column:event_end_date"`
	ActualDate      string `gorm:"column:event_actual_date"`
	Comments        string `gorm:"column:event_comments_text"`
	MilestoneCode   string `gorm:"column:event_milestone_code"`
	ReasonCode      string `gorm:"column:event_reason_code"`
}

func (MilestoneRecord) TableName() string { return TableMilestones }

func (r MilestoneRecord) Normalize() compliance.Milestone {
	end, _ := compliance.ParseStoredDate(r.EndDate)
	actual, _ := compliance.ParseStoredDate(r.ActualDate)
	return compliance.Milestone{
		ID:           r.EventScheduleID,
		ScheduledEnd: end,
		Actual:       actual,
		Comment:      r.Comments,
		Code:         r.MilestoneCode,
		ReasonCode:   r.ReasonCode,
	}
}

// CodeDescription is one row of the reference code table.
type CodeDescription struct {
	ValueType   string `gorm:"column:value_type"`
	ValueCode   string `gorm:"column:value_code"`
	Description string `gorm:"column:value_description"`
}

func (CodeDescription) TableName() string { return TableRefCodes }

// Violator is one row of the top violators ranking.
type Violator struct {
	PWSID          string `gorm:"column:pwsid" json:"pwsid"`
	Name           string `gorm:"column:pws_name" json:"name"`
	City           string `gorm:"column:city_name" json:"city"`
	ViolationCount int64  `gorm:"column:violation_count" json:"violationCount"`
}

func recorded(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, "nan")
}

// flag reads the dataset's Y/N indicator columns.
func flag(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "YES", "TRUE", "1":
		return true
	}
	return false
}

// tier accepts "2" and the float form "2.0" left behind by CSV imports.
// Anything else is 0 (unset).
func tier(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 0
	}
	return int(f)
}
