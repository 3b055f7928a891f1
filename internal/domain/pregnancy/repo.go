package pregnancy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PregnancyRepository interface {
	Create(ctx context.Context, p *Pregnancy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pregnancy, error)
	GetActiveByMother(ctx context.Context, motherID uuid.UUID) (*Pregnancy, error)
	Update(ctx context.Context, p *Pregnancy) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Pregnancy, int, error)
	ListByMother(ctx context.Context, motherID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error)
}

type VisitRepository interface {
	// CreateIfAbsent inserts the visit unless one already exists for the
	// same (pregnancy, visit_number). Reports whether a row was created.
	CreateIfAbsent(ctx context.Context, v *ANCVisit) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ANCVisit, error)
	ListByPregnancy(ctx context.Context, pregnancyID uuid.UUID) ([]*ANCVisit, error)
	// RecordAttendance persists the completion facts. Reports false when the
	// visit was already attended; the write is guarded in the store so a
	// racing sweep cannot clobber it.
	RecordAttendance(ctx context.Context, v *ANCVisit) (bool, error)
	// ListUnresolvedBefore returns unattended, unmissed visits of ACTIVE
	// pregnancies scheduled on or before cutoff.
	ListUnresolvedBefore(ctx context.Context, cutoff time.Time) ([]*ANCVisit, error)
	MarkMissed(ctx context.Context, id uuid.UUID) error
}
