package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TemplateRepository interface {
	// Upsert inserts the template or refreshes the existing row for its
	// kind. Used by the seed command.
	Upsert(ctx context.Context, t *Template) error
	GetActiveByKind(ctx context.Context, kind string) (*Template, error)
	List(ctx context.Context) ([]*Template, error)
	Update(ctx context.Context, t *Template) error
}

type SentRepository interface {
	Create(ctx context.Context, r *SentReminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*SentReminder, error)
	GetByGatewayMessageID(ctx context.Context, messageID string) (*SentReminder, error)
	Update(ctx context.Context, r *SentReminder) error
	List(ctx context.Context, motherID uuid.UUID, status string, limit, offset int) ([]*SentReminder, int, error)

	// ExistsForRef reports whether a reminder of this kind was ever created
	// for the obligation. Ref is the visit, immunization, or pregnancy id,
	// whichever the kind is about.
	ExistsForRef(ctx context.Context, kind string, ref uuid.UUID) (bool, error)
	// ExistsForRefSince is the cooldown variant: only reminders created at
	// or after since count.
	ExistsForRefSince(ctx context.Context, kind string, ref uuid.UUID, since time.Time) (bool, error)

	ListPending(ctx context.Context, before time.Time) ([]*SentReminder, error)
	ListRetryable(ctx context.Context, now time.Time) ([]*SentReminder, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountByKind(ctx context.Context) (map[string]int, error)
}

// VisitCandidate is an ANC visit joined with everything needed to compose
// and address its SMS.
type VisitCandidate struct {
	VisitID       uuid.UUID
	VisitNumber   int
	ScheduledDate time.Time
	PregnancyID   uuid.UUID
	MotherID      uuid.UUID
	FirstName     string
	PhoneNumber   string
	FacilityName  string
}

// DoseCandidate is an immunization dose joined with baby and mother details.
type DoseCandidate struct {
	ScheduleID    uuid.UUID
	VaccineName   string
	ScheduledDate time.Time
	BabyID        uuid.UUID
	BabyName      string
	MotherID      uuid.UUID
	FirstName     string
	PhoneNumber   string
	FacilityName  string
}

// PregnancyCandidate is an active pregnancy joined with mother details, for
// the gestation-driven kinds.
type PregnancyCandidate struct {
	PregnancyID  uuid.UUID
	MotherID     uuid.UUID
	FirstName    string
	PhoneNumber  string
	FacilityName string
	LMP          time.Time
	EDD          time.Time
}

// CandidateRepository runs the cross-table scans the scheduler needs. All
// visit and pregnancy queries are scoped to ACTIVE pregnancies; closed ones
// never generate reminders.
type CandidateRepository interface {
	// ANCVisitsOn returns pending visits scheduled exactly on day.
	ANCVisitsOn(ctx context.Context, day time.Time) ([]*VisitCandidate, error)
	// MissedANCVisits returns visits flagged missed and still unattended.
	MissedANCVisits(ctx context.Context) ([]*VisitCandidate, error)
	// DangerSignVisits returns attended visits where danger signs were
	// recorded, for follow-up alerts.
	DangerSignVisits(ctx context.Context) ([]*VisitCandidate, error)

	DosesOn(ctx context.Context, day time.Time) ([]*DoseCandidate, error)
	MissedDoses(ctx context.Context) ([]*DoseCandidate, error)

	// PregnanciesAtWeeks returns active pregnancies at or past minWeeks of
	// gestation on the given day.
	PregnanciesAtWeeks(ctx context.Context, day time.Time, minWeeks int) ([]*PregnancyCandidate, error)
}
