package pregnancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyamama/afyamama/internal/domain/schedule"
	"github.com/afyamama/afyamama/internal/platform/audit"
	"github.com/afyamama/afyamama/internal/platform/clock"
)

// ErrAlreadyAttended is returned when staff try to record a visit twice.
var ErrAlreadyAttended = errors.New("visit already attended")

var validStatuses = map[string]bool{
	StatusActive: true, StatusDelivered: true, StatusMiscarriage: true,
	StatusStillbirth: true, StatusTransferred: true,
}

var validRiskLevels = map[string]bool{
	RiskLow: true, RiskMedium: true, RiskHigh: true,
}

type Service struct {
	pregnancies PregnancyRepository
	visits      VisitRepository
	clk         clock.Clock
	auditor     audit.Sink
	logger      zerolog.Logger
}

func NewService(pregnancies PregnancyRepository, visits VisitRepository, clk clock.Clock, auditor audit.Sink, logger zerolog.Logger) *Service {
	return &Service{
		pregnancies: pregnancies,
		visits:      visits,
		clk:         clk,
		auditor:     auditor,
		logger:      logger,
	}
}

// Register validates and persists a pregnancy, then generates its ANC visit
// schedule. Generation is an explicit step of registration, not a side effect
// of persistence, and is idempotent.
func (s *Service) Register(ctx context.Context, p *Pregnancy) error {
	if p.MotherID == uuid.Nil {
		return fmt.Errorf("mother_id is required")
	}
	if p.Gravida < 1 {
		return fmt.Errorf("gravida must be at least 1")
	}
	if p.Parity < 0 {
		return fmt.Errorf("parity cannot be negative")
	}
	if p.Parity >= p.Gravida {
		return fmt.Errorf("parity (%d) must be less than gravida (%d)", p.Parity, p.Gravida)
	}
	if p.Gravida == 1 && p.Parity != 0 {
		return fmt.Errorf("first pregnancy must have parity 0")
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if !validStatuses[p.Status] {
		return fmt.Errorf("invalid pregnancy status: %s", p.Status)
	}
	if p.RiskLevel == "" {
		p.RiskLevel = RiskLow
	}
	if !validRiskLevels[p.RiskLevel] {
		return fmt.Errorf("invalid risk level: %s", p.RiskLevel)
	}
	if p.Status == StatusActive {
		if existing, err := s.pregnancies.GetActiveByMother(ctx, p.MotherID); err == nil && existing != nil {
			return fmt.Errorf("mother already has an active pregnancy")
		}
	}
	if !p.LMP.IsZero() {
		p.EDD = schedule.EDD(p.LMP)
	}

	if err := s.pregnancies.Create(ctx, p); err != nil {
		return err
	}

	if _, err := s.GenerateVisitSchedule(ctx, p); err != nil {
		return fmt.Errorf("generate visit schedule: %w", err)
	}

	s.auditor.Record(ctx, audit.EventPregnancyRegistered,
		fmt.Sprintf("pregnancy G%dP%d registered", p.Gravida, p.Parity),
		map[string]any{"pregnancy_id": p.ID.String(), "mother_id": p.MotherID.String()})
	return nil
}

// GenerateVisitSchedule creates the 8 ANC contacts from the LMP. Calling it
// again for the same pregnancy creates nothing new. A pregnancy without an
// LMP gets no schedule at all.
func (s *Service) GenerateVisitSchedule(ctx context.Context, p *Pregnancy) (int, error) {
	created := 0
	for _, entry := range schedule.Generate(p.LMP, schedule.ANCContacts) {
		v := &ANCVisit{
			PregnancyID:   p.ID,
			VisitNumber:   entry.Sequence,
			ScheduledDate: entry.Date,
		}
		ok, err := s.visits.CreateIfAbsent(ctx, v)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Pregnancy, error) {
	return s.pregnancies.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Pregnancy) error {
	if p.Status != "" && !validStatuses[p.Status] {
		return fmt.Errorf("invalid pregnancy status: %s", p.Status)
	}
	if p.RiskLevel != "" && !validRiskLevels[p.RiskLevel] {
		return fmt.Errorf("invalid risk level: %s", p.RiskLevel)
	}
	if !p.LMP.IsZero() {
		p.EDD = schedule.EDD(p.LMP)
	}
	return s.pregnancies.Update(ctx, p)
}

// CloseOut flips an active pregnancy to a terminal status, removing it from
// visit sweeps and reminder matching.
func (s *Service) CloseOut(ctx context.Context, id uuid.UUID, status string) error {
	if !validStatuses[status] || status == StatusActive {
		return fmt.Errorf("invalid close-out status: %s", status)
	}
	p, err := s.pregnancies.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Status = status
	return s.pregnancies.Update(ctx, p)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Pregnancy, int, error) {
	return s.pregnancies.List(ctx, limit, offset)
}

func (s *Service) ListByMother(ctx context.Context, motherID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error) {
	return s.pregnancies.ListByMother(ctx, motherID, limit, offset)
}

func (s *Service) ListVisits(ctx context.Context, pregnancyID uuid.UUID) ([]*ANCVisit, error) {
	return s.visits.ListByPregnancy(ctx, pregnancyID)
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*ANCVisit, error) {
	return s.visits.GetByID(ctx, id)
}

// RecordAttendance marks a visit attended with its clinical payload. A visit
// can be recorded once; repeat attempts return ErrAlreadyAttended. A missed
// flag set earlier by the sweep is overridden by attendance in the status
// derivation.
func (s *Service) RecordAttendance(ctx context.Context, visitID uuid.UUID, v *ANCVisit) (*ANCVisit, error) {
	existing, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if existing.Attended {
		return nil, ErrAlreadyAttended
	}

	v.ID = visitID
	if v.AttendanceDate == nil {
		today := s.clk.Today()
		v.AttendanceDate = &today
	}
	ok, err := s.visits.RecordAttendance(ctx, v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyAttended
	}

	if v.HasDangerSigns {
		s.auditor.Record(ctx, audit.EventDangerSign,
			fmt.Sprintf("danger signs recorded at ANC contact %d", existing.VisitNumber),
			map[string]any{"visit_id": visitID.String(), "pregnancy_id": existing.PregnancyID.String()})
	}

	return s.visits.GetByID(ctx, visitID)
}

// SweepMissed flags every unattended visit of an active pregnancy whose
// scheduled date is more than the grace period in the past. One failing visit
// is logged and skipped, not allowed to abort the sweep.
func (s *Service) SweepMissed(ctx context.Context, today time.Time) (int, error) {
	cutoff := clock.Midnight(today).Add(-schedule.ANCMissedGrace)
	visits, err := s.visits.ListUnresolvedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, v := range visits {
		if err := s.visits.MarkMissed(ctx, v.ID); err != nil {
			s.logger.Error().Err(err).Str("visit_id", v.ID.String()).Msg("mark visit missed failed")
			continue
		}
		count++
		s.auditor.Record(ctx, audit.EventMissedVisit,
			fmt.Sprintf("ANC contact %d marked missed", v.VisitNumber),
			map[string]any{"visit_id": v.ID.String(), "pregnancy_id": v.PregnancyID.String()})
	}
	return count, nil
}
