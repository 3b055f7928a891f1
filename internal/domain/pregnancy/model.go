package pregnancy

import (
	"time"

	"github.com/google/uuid"

	"github.com/afyamama/afyamama/internal/domain/schedule"
)

// Pregnancy statuses. Only ACTIVE pregnancies participate in visit sweeps and
// reminder matching.
const (
	StatusActive      = "ACTIVE"
	StatusDelivered   = "DELIVERED"
	StatusMiscarriage = "MISCARRIAGE"
	StatusStillbirth  = "STILLBIRTH"
	StatusTransferred = "TRANSFERRED"
)

// Risk levels.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Pregnancy is the anchor event for the antenatal schedule. The LMP is the
// anchor date; the EDD is derived from it once at registration.
type Pregnancy struct {
	ID       uuid.UUID `json:"id" db:"id"`
	MotherID uuid.UUID `json:"mother_id" db:"mother_id"`

	// Gravida is the pregnancy number including this one; Parity counts
	// prior deliveries.
	Gravida int `json:"gravida" db:"gravida"`
	Parity  int `json:"parity" db:"parity"`

	LMP time.Time `json:"lmp" db:"lmp"`
	EDD time.Time `json:"edd" db:"edd"`

	RiskLevel   string `json:"risk_level" db:"risk_level"`
	RiskFactors string `json:"risk_factors,omitempty" db:"risk_factors"`
	Status      string `json:"status" db:"status"`

	PreviousCSection      bool   `json:"previous_csection" db:"previous_csection"`
	PreviousComplications string `json:"previous_complications,omitempty" db:"previous_complications"`
	Notes                 string `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GestationalWeeks returns completed weeks of pregnancy as of today.
func (p *Pregnancy) GestationalWeeks(today time.Time) int {
	return schedule.WeeksSince(p.LMP, today)
}

// Trimester returns the current trimester (1, 2 or 3).
func (p *Pregnancy) Trimester(today time.Time) int {
	return schedule.Trimester(p.GestationalWeeks(today))
}

// DaysRemaining returns days until the EDD, clamped to zero.
func (p *Pregnancy) DaysRemaining(today time.Time) int {
	if p.Status != StatusActive {
		return 0
	}
	return schedule.DaysUntil(p.EDD, today)
}

// IsOverdue reports whether an active pregnancy is past its due date.
func (p *Pregnancy) IsOverdue(today time.Time) bool {
	return p.Status == StatusActive && !p.EDD.IsZero() && today.After(p.EDD)
}

// ANCVisit is one scheduled antenatal contact. Attended and Missed are the
// only persisted status facts; everything else is derived from the scheduled
// date at read time.
type ANCVisit struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PregnancyID uuid.UUID `json:"pregnancy_id" db:"pregnancy_id"`

	VisitNumber   int       `json:"visit_number" db:"visit_number"`
	ScheduledDate time.Time `json:"scheduled_date" db:"scheduled_date"`

	Attended       bool       `json:"attended" db:"attended"`
	AttendanceDate *time.Time `json:"attendance_date,omitempty" db:"attendance_date"`
	Missed         bool       `json:"missed" db:"missed"`

	// Clinical payload recorded at attendance.
	WeightKG        *float64 `json:"weight_kg,omitempty" db:"weight_kg"`
	BloodPressure   string   `json:"blood_pressure,omitempty" db:"blood_pressure"`
	Hemoglobin      *float64 `json:"hemoglobin,omitempty" db:"hemoglobin"`
	FundalHeightCM  *int     `json:"fundal_height_cm,omitempty" db:"fundal_height_cm"`
	FetalHeartbeat  *bool    `json:"fetal_heartbeat,omitempty" db:"fetal_heartbeat"`
	HasDangerSigns  bool     `json:"has_danger_signs" db:"has_danger_signs"`
	DangerSignsNote string   `json:"danger_signs_note,omitempty" db:"danger_signs_note"`

	IronGiven      bool `json:"iron_given" db:"iron_given"`
	FolicAcidGiven bool `json:"folic_acid_given" db:"folic_acid_given"`
	DewormingDone  bool `json:"deworming_done" db:"deworming_done"`
	TetanusGiven   bool `json:"tetanus_given" db:"tetanus_given"`

	ClinicalNotes string     `json:"clinical_notes,omitempty" db:"clinical_notes"`
	NextVisitDate *time.Time `json:"next_visit_date,omitempty" db:"next_visit_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Status derives the visit's lifecycle state as of today.
func (v *ANCVisit) Status(today time.Time) schedule.Status {
	return schedule.Derive(v.ScheduledDate, today, v.Attended, v.Missed)
}
