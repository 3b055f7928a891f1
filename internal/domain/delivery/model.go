package delivery

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TypeSVD      = "SVD"
	TypeAssisted = "ASSISTED"
	TypeCSection = "CSECTION"
	TypeBreech   = "BREECH"
)

const (
	OutcomeLive          = "LIVE"
	OutcomeStillbirth    = "STILLBIRTH"
	OutcomeNeonatalDeath = "NEONATAL_DEATH"
)

// Delivery is the birth event. A pregnancy ends in at most one delivery.
type Delivery struct {
	ID                  uuid.UUID  `json:"id"`
	PregnancyID         uuid.UUID  `json:"pregnancy_id"`
	DeliveryDate        time.Time  `json:"delivery_date"`
	DeliveryTime        string     `json:"delivery_time"`
	DeliveryType        string     `json:"delivery_type"`
	DeliveryOutcome     string     `json:"delivery_outcome"`
	NumberOfBabies      int        `json:"number_of_babies"`
	MotherCondition     string     `json:"mother_condition,omitempty"`
	Complications       string     `json:"complications,omitempty"`
	BloodLossML         *int       `json:"blood_loss_ml,omitempty"`
	PlacentaComplete    bool       `json:"placenta_complete"`
	PlacentaWeightGrams *int       `json:"placenta_weight_grams,omitempty"`
	FacilityName        string     `json:"facility_name,omitempty"`
	AttendedBy          string     `json:"attended_by,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// GestationalAgeAtDelivery returns completed weeks between the LMP and the
// delivery date, or -1 when the LMP is unknown.
func (d *Delivery) GestationalAgeAtDelivery(lmp time.Time) int {
	if lmp.IsZero() {
		return -1
	}
	days := int(d.DeliveryDate.Sub(lmp).Hours() / 24)
	if days < 0 {
		return -1
	}
	return days / 7
}

func (d *Delivery) IsPreterm(lmp time.Time) bool {
	ga := d.GestationalAgeAtDelivery(lmp)
	return ga >= 0 && ga < 37
}

func (d *Delivery) IsTerm(lmp time.Time) bool {
	ga := d.GestationalAgeAtDelivery(lmp)
	return ga >= 37 && ga <= 42
}

func (d *Delivery) IsPostterm(lmp time.Time) bool {
	return d.GestationalAgeAtDelivery(lmp) > 42
}

const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// Baby is a newborn registered against a delivery. Registration is what
// kicks off the immunization schedule.
type Baby struct {
	ID                      uuid.UUID `json:"id"`
	DeliveryID              uuid.UUID `json:"delivery_id"`
	MotherID                uuid.UUID `json:"mother_id"`
	FirstName               string    `json:"first_name,omitempty"`
	MiddleName              string    `json:"middle_name,omitempty"`
	LastName                string    `json:"last_name,omitempty"`
	Gender                  string    `json:"gender"`
	BirthDate               time.Time `json:"birth_date"`
	BirthWeightGrams        int       `json:"birth_weight_grams"`
	BirthLengthCM           *float64  `json:"birth_length_cm,omitempty"`
	HeadCircumferenceCM     *float64  `json:"head_circumference_cm,omitempty"`
	ApgarScore1Min          *int      `json:"apgar_score_1min,omitempty"`
	ApgarScore5Min          *int      `json:"apgar_score_5min,omitempty"`
	BirthOrder              int       `json:"birth_order"`
	HealthCondition         string    `json:"health_condition,omitempty"`
	Complications           string    `json:"complications,omitempty"`
	RequiredResuscitation   bool      `json:"required_resuscitation"`
	BirthNotificationNumber string    `json:"birth_notification_number,omitempty"`
	FacilityName            string    `json:"facility_name,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (b *Baby) FullName() string {
	parts := []string{}
	for _, n := range []string{b.FirstName, b.MiddleName, b.LastName} {
		if n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}

// DisplayName falls back to "Baby Boy"/"Baby Girl" for unnamed newborns.
func (b *Baby) DisplayName() string {
	if b.FirstName != "" {
		return b.FirstName
	}
	if b.Gender == GenderFemale {
		return "Baby Girl"
	}
	return "Baby Boy"
}

func (b *Baby) AgeInDays(today time.Time) int {
	days := int(today.Sub(b.BirthDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func (b *Baby) AgeInWeeks(today time.Time) int {
	return b.AgeInDays(today) / 7
}

func (b *Baby) IsLowBirthWeight() bool {
	return b.BirthWeightGrams > 0 && b.BirthWeightGrams < 2500
}

// WeightCategory buckets birth weight per WHO cutoffs.
func (b *Baby) WeightCategory() string {
	switch {
	case b.BirthWeightGrams <= 0:
		return ""
	case b.BirthWeightGrams < 1500:
		return "Very Low Birth Weight"
	case b.BirthWeightGrams < 2500:
		return "Low Birth Weight"
	case b.BirthWeightGrams <= 4000:
		return "Normal Birth Weight"
	default:
		return "Macrosomia"
	}
}
