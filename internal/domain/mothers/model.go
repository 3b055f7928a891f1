package mothers

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mother is a registered patient. The phone number is the SMS reminder
// channel and is required; everything else about contact and location is
// optional context for facility staff.
type Mother struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	FirstName     string     `json:"first_name" db:"first_name"`
	LastName      string     `json:"last_name" db:"last_name"`
	DateOfBirth   time.Time  `json:"date_of_birth" db:"date_of_birth"`
	NationalID    *string    `json:"national_id,omitempty" db:"national_id"`
	PhoneNumber   string     `json:"phone_number" db:"phone_number"`
	AlternatePhone string    `json:"alternate_phone,omitempty" db:"alternate_phone"`

	County    string `json:"county" db:"county"`
	SubCounty string `json:"sub_county" db:"sub_county"`
	Ward      string `json:"ward" db:"ward"`
	Village   string `json:"village,omitempty" db:"village"`

	// FacilityName is the health facility where the mother is registered.
	// Rendered into reminder messages.
	FacilityName string `json:"facility_name" db:"facility_name"`
	RegisteredBy string `json:"registered_by,omitempty" db:"registered_by"`

	NextOfKinName         string `json:"next_of_kin_name,omitempty" db:"next_of_kin_name"`
	NextOfKinPhone        string `json:"next_of_kin_phone,omitempty" db:"next_of_kin_phone"`
	NextOfKinRelationship string `json:"next_of_kin_relationship,omitempty" db:"next_of_kin_relationship"`

	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the mother's display name.
func (m *Mother) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Age returns the mother's age in completed years as of today.
func (m *Mother) Age(today time.Time) int {
	years := today.Year() - m.DateOfBirth.Year()
	anniversary := m.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(today) {
		years--
	}
	return years
}

// Location returns the comma-joined location parts, most specific first.
func (m *Mother) Location() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{m.Village, m.Ward, m.SubCounty, m.County} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
