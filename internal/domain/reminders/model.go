package reminders

import (
	"time"

	"github.com/google/uuid"
)

// Reminder kinds. Each kind has at most one active template.
const (
	KindANCUpcoming         = "ANC_UPCOMING"
	KindANCToday            = "ANC_TODAY"
	KindANCMissed           = "ANC_MISSED"
	KindVaccineUpcoming     = "VACCINE_UPCOMING"
	KindVaccineToday        = "VACCINE_TODAY"
	KindVaccineMissed       = "VACCINE_MISSED"
	KindPNCUpcoming         = "PNC_UPCOMING"
	KindDangerSigns         = "DANGER_SIGNS"
	KindDeliveryApproaching = "DELIVERY_APPROACHING"
	KindOverduePregnancy    = "OVERDUE_PREGNANCY"
	KindGeneral             = "GENERAL"
)

// SMS delivery lifecycle.
const (
	StatusPending       = "PENDING"
	StatusSent          = "SENT"
	StatusDelivered     = "DELIVERED"
	StatusFailed        = "FAILED"
	StatusInvalidNumber = "INVALID_NUMBER"
	StatusRejected      = "REJECTED"
)

// DefaultMaxRetries bounds how often a failed SMS is retried.
const DefaultMaxRetries = 3

// Template is an editable SMS text with `{placeholder}` slots.
type Template struct {
	ID              uuid.UUID `json:"id"`
	Kind            string    `json:"kind"`
	Name            string    `json:"name"`
	MessageTemplate string    `json:"message_template"`
	DaysBefore      int       `json:"days_before"`
	SendTime        string    `json:"send_time"`
	Active          bool      `json:"active"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SentReminder logs one SMS from composition through delivery. The context
// refs record what the message was about; at most one of them is set.
type SentReminder struct {
	ID             uuid.UUID  `json:"id"`
	MotherID       uuid.UUID  `json:"mother_id"`
	PhoneNumber    string     `json:"phone_number"`
	Kind           string     `json:"kind"`
	MessageContent string     `json:"message_content"`
	TemplateID     *uuid.UUID `json:"template_id,omitempty"`

	PregnancyID    *uuid.UUID `json:"pregnancy_id,omitempty"`
	VisitID        *uuid.UUID `json:"visit_id,omitempty"`
	BabyID         *uuid.UUID `json:"baby_id,omitempty"`
	ImmunizationID *uuid.UUID `json:"immunization_id,omitempty"`

	ScheduledAt time.Time  `json:"scheduled_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	DeliveryStatus   string `json:"delivery_status"`
	GatewayResponse  string `json:"gateway_response,omitempty"`
	GatewayMessageID string `json:"gateway_message_id,omitempty"`

	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`

	FacilityName string    `json:"facility_name,omitempty"`
	IsManual     bool      `json:"is_manual"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NeedsRetry reports whether a failed SMS is due for another attempt.
// INVALID_NUMBER and REJECTED are terminal.
func (r *SentReminder) NeedsRetry(now time.Time) bool {
	if r.DeliveryStatus != StatusFailed {
		return false
	}
	if r.RetryCount >= r.MaxRetries {
		return false
	}
	return r.NextRetryAt != nil && !now.Before(*r.NextRetryAt)
}

// RunStats counts what one scheduler pass found per kind.
type RunStats struct {
	ANCUpcoming         int `json:"anc_upcoming"`
	ANCToday            int `json:"anc_today"`
	ANCMissed           int `json:"anc_missed"`
	VaccineUpcoming     int `json:"vaccine_upcoming"`
	VaccineToday        int `json:"vaccine_today"`
	VaccineMissed       int `json:"vaccine_missed"`
	DeliveryApproaching int `json:"delivery_approaching"`
	OverduePregnancy    int `json:"overdue_pregnancy"`
	DangerSigns         int `json:"danger_signs"`
}

func (s *RunStats) Total() int {
	return s.ANCUpcoming + s.ANCToday + s.ANCMissed +
		s.VaccineUpcoming + s.VaccineToday + s.VaccineMissed +
		s.DeliveryApproaching + s.OverduePregnancy + s.DangerSigns
}
