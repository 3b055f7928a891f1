package immunization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyamama/afyamama/internal/domain/delivery"
	"github.com/afyamama/afyamama/internal/domain/schedule"
	"github.com/afyamama/afyamama/internal/platform/audit"
	"github.com/afyamama/afyamama/internal/platform/clock"
)

// ErrAlreadyAdministered is returned when staff try to record a dose twice.
var ErrAlreadyAdministered = errors.New("vaccine already administered")

type Service struct {
	vaccines  VaccineRepository
	schedules ScheduleRepository
	babies    delivery.BabyRepository
	clk       clock.Clock
	auditor   audit.Sink
	logger    zerolog.Logger
}

func NewService(vaccines VaccineRepository, schedules ScheduleRepository, babies delivery.BabyRepository, clk clock.Clock, auditor audit.Sink, logger zerolog.Logger) *Service {
	return &Service{
		vaccines:  vaccines,
		schedules: schedules,
		babies:    babies,
		clk:       clk,
		auditor:   auditor,
		logger:    logger,
	}
}

// GenerateForBaby creates one scheduled dose per active vaccine, dated from
// the birth date. Re-running it creates nothing new. A baby without a birth
// date gets no schedule.
func (s *Service) GenerateForBaby(ctx context.Context, babyID uuid.UUID) (int, error) {
	baby, err := s.babies.GetByID(ctx, babyID)
	if err != nil {
		return 0, fmt.Errorf("baby not found: %w", err)
	}

	vaccines, err := s.vaccines.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	offsets := make([]schedule.Offset, len(vaccines))
	for i, v := range vaccines {
		offsets[i] = schedule.Offset{Sequence: i + 1, Weeks: v.RecommendedAgeWeeks}
	}

	created := 0
	for i, entry := range schedule.Generate(baby.BirthDate, offsets) {
		dose := &ImmunizationSchedule{
			BabyID:        babyID,
			VaccineID:     vaccines[i].ID,
			ScheduledDate: entry.Date,
			FacilityName:  baby.FacilityName,
		}
		ok, err := s.schedules.CreateIfAbsent(ctx, dose)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// SeedCatalog loads the default vaccine list, skipping names that already
// exist. Returns how many were inserted.
func (s *Service) SeedCatalog(ctx context.Context) (int, error) {
	created := 0
	for _, v := range DefaultVaccines() {
		vaccine := v
		ok, err := s.vaccines.CreateIfAbsent(ctx, &vaccine)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *Service) ListVaccines(ctx context.Context) ([]*VaccineType, error) {
	return s.vaccines.ListActive(ctx)
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*ImmunizationSchedule, error) {
	return s.schedules.GetByID(ctx, id)
}

func (s *Service) ListByBaby(ctx context.Context, babyID uuid.UUID) ([]*ImmunizationSchedule, error) {
	return s.schedules.ListByBaby(ctx, babyID)
}

func (s *Service) ListDueOn(ctx context.Context, day time.Time) ([]*ImmunizationSchedule, error) {
	return s.schedules.ListDueOn(ctx, clock.Midnight(day))
}

// RecordAdministration marks a dose given. A dose can be recorded once;
// repeat attempts return ErrAlreadyAdministered.
func (s *Service) RecordAdministration(ctx context.Context, scheduleID uuid.UUID, dose *ImmunizationSchedule) (*ImmunizationSchedule, error) {
	existing, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if existing.Administered {
		return nil, ErrAlreadyAdministered
	}

	dose.ID = scheduleID
	if dose.AdministeredDate == nil {
		today := s.clk.Today()
		dose.AdministeredDate = &today
	}
	ok, err := s.schedules.RecordAdministration(ctx, dose)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyAdministered
	}
	return s.schedules.GetByID(ctx, scheduleID)
}

// SweepMissed flags every unadministered dose whose scheduled date is more
// than the grace period in the past.
func (s *Service) SweepMissed(ctx context.Context, today time.Time) (int, error) {
	cutoff := clock.Midnight(today).Add(-schedule.VaccineMissedGrace)
	doses, err := s.schedules.ListUnresolvedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, d := range doses {
		if err := s.schedules.MarkMissed(ctx, d.ID); err != nil {
			s.logger.Error().Err(err).Str("schedule_id", d.ID.String()).Msg("mark dose missed failed")
			continue
		}
		count++
		s.auditor.Record(ctx, audit.EventMissedVaccine,
			fmt.Sprintf("%s dose marked missed", d.VaccineName),
			map[string]any{"schedule_id": d.ID.String(), "baby_id": d.BabyID.String()})
	}
	return count, nil
}
