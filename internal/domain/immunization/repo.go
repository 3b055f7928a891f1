package immunization

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type VaccineRepository interface {
	// CreateIfAbsent inserts the vaccine unless one with the same name
	// exists. Reports whether a row was created.
	CreateIfAbsent(ctx context.Context, v *VaccineType) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*VaccineType, error)
	GetByName(ctx context.Context, name string) (*VaccineType, error)
	ListActive(ctx context.Context) ([]*VaccineType, error)
	Update(ctx context.Context, v *VaccineType) error
}

type ScheduleRepository interface {
	// CreateIfAbsent inserts the dose unless one already exists for the
	// same (baby, vaccine). Reports whether a row was created.
	CreateIfAbsent(ctx context.Context, s *ImmunizationSchedule) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ImmunizationSchedule, error)
	ListByBaby(ctx context.Context, babyID uuid.UUID) ([]*ImmunizationSchedule, error)
	// RecordAdministration persists the completion facts. Reports false
	// when the dose was already administered.
	RecordAdministration(ctx context.Context, s *ImmunizationSchedule) (bool, error)
	// ListUnresolvedBefore returns unadministered, unmissed doses scheduled
	// on or before cutoff.
	ListUnresolvedBefore(ctx context.Context, cutoff time.Time) ([]*ImmunizationSchedule, error)
	MarkMissed(ctx context.Context, id uuid.UUID) error
	ListDueOn(ctx context.Context, day time.Time) ([]*ImmunizationSchedule, error)
}
