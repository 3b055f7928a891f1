package immunization

import (
	"time"

	"github.com/google/uuid"

	"github.com/afyamama/afyamama/internal/domain/schedule"
)

// VaccineType is a catalog entry for one dose in the national schedule.
type VaccineType struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	RecommendedAgeWeeks int       `json:"recommended_age_weeks"`
	Route               string    `json:"route,omitempty"`
	Site                string    `json:"site,omitempty"`
	Dosage              string    `json:"dosage,omitempty"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ImmunizationSchedule is one scheduled dose for one baby. A baby gets at
// most one row per vaccine.
type ImmunizationSchedule struct {
	ID               uuid.UUID  `json:"id"`
	BabyID           uuid.UUID  `json:"baby_id"`
	VaccineID        uuid.UUID  `json:"vaccine_id"`
	VaccineName      string     `json:"vaccine_name,omitempty"`
	ScheduledDate    time.Time  `json:"scheduled_date"`
	Administered     bool       `json:"administered"`
	AdministeredDate *time.Time `json:"administered_date,omitempty"`
	Missed           bool       `json:"missed"`
	BatchNumber      string     `json:"batch_number,omitempty"`
	AdministeredBy   string     `json:"administered_by,omitempty"`
	Reactions        string     `json:"reactions,omitempty"`
	FacilityName     string     `json:"facility_name,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Status derives the dose lifecycle state for a given day.
func (s *ImmunizationSchedule) Status(today time.Time) schedule.Status {
	return schedule.Derive(s.ScheduledDate, today, s.Administered, s.Missed)
}

// DefaultVaccines is the Kenya EPI catalog the seed command loads. Ages are
// weeks from birth.
func DefaultVaccines() []VaccineType {
	entries := []struct {
		name  string
		weeks int
	}{
		{"BCG", 0},
		{"OPV 0", 0},
		{"OPV 1", 6},
		{"Pentavalent 1", 6},
		{"PCV 1", 6},
		{"Rotavirus 1", 6},
		{"OPV 2", 10},
		{"Pentavalent 2", 10},
		{"PCV 2", 10},
		{"Rotavirus 2", 10},
		{"OPV 3", 14},
		{"Pentavalent 3", 14},
		{"PCV 3", 14},
		{"Measles-Rubella 1", 39},
		{"Measles-Rubella 2", 78},
	}
	vaccines := make([]VaccineType, 0, len(entries))
	for _, e := range entries {
		vaccines = append(vaccines, VaccineType{
			Name:                e.name,
			RecommendedAgeWeeks: e.weeks,
			Active:              true,
		})
	}
	return vaccines
}
