package delivery

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyamama/afyamama/internal/domain/pregnancy"
	"github.com/afyamama/afyamama/internal/platform/audit"
)

// ErrAlreadyRecorded is returned when a pregnancy already has a delivery.
var ErrAlreadyRecorded = errors.New("delivery already recorded for pregnancy")

var validTypes = map[string]bool{
	TypeSVD: true, TypeAssisted: true, TypeCSection: true, TypeBreech: true,
}

var validOutcomes = map[string]bool{
	OutcomeLive: true, OutcomeStillbirth: true, OutcomeNeonatalDeath: true,
}

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ScheduleGenerator produces the vaccine schedule for a newborn. Satisfied by
// the immunization service; injected to keep the dependency one-way.
type ScheduleGenerator interface {
	GenerateForBaby(ctx context.Context, babyID uuid.UUID) (int, error)
}

type Service struct {
	deliveries  DeliveryRepository
	babies      BabyRepository
	pregnancies pregnancy.PregnancyRepository
	schedules   ScheduleGenerator
	auditor     audit.Sink
	logger      zerolog.Logger
}

func NewService(deliveries DeliveryRepository, babies BabyRepository, pregnancies pregnancy.PregnancyRepository, schedules ScheduleGenerator, auditor audit.Sink, logger zerolog.Logger) *Service {
	return &Service{
		deliveries:  deliveries,
		babies:      babies,
		pregnancies: pregnancies,
		schedules:   schedules,
		auditor:     auditor,
		logger:      logger,
	}
}

// RecordDelivery persists the birth event and flips the pregnancy status in
// the same flow: a live birth closes the pregnancy as DELIVERED, a stillbirth
// as STILLBIRTH. A second delivery against the same pregnancy is rejected.
func (s *Service) RecordDelivery(ctx context.Context, d *Delivery) error {
	if d.PregnancyID == uuid.Nil {
		return fmt.Errorf("pregnancy_id is required")
	}
	if d.DeliveryDate.IsZero() {
		return fmt.Errorf("delivery_date is required")
	}
	if d.DeliveryTime != "" && !timePattern.MatchString(d.DeliveryTime) {
		return fmt.Errorf("delivery_time must be HH:MM (24-hour)")
	}
	if !validTypes[d.DeliveryType] {
		return fmt.Errorf("invalid delivery type: %s", d.DeliveryType)
	}
	if !validOutcomes[d.DeliveryOutcome] {
		return fmt.Errorf("invalid delivery outcome: %s", d.DeliveryOutcome)
	}
	if d.NumberOfBabies < 1 {
		d.NumberOfBabies = 1
	}

	p, err := s.pregnancies.GetByID(ctx, d.PregnancyID)
	if err != nil {
		return fmt.Errorf("pregnancy not found: %w", err)
	}

	created, err := s.deliveries.Create(ctx, d)
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadyRecorded
	}

	switch d.DeliveryOutcome {
	case OutcomeLive, OutcomeNeonatalDeath:
		p.Status = pregnancy.StatusDelivered
	case OutcomeStillbirth:
		p.Status = pregnancy.StatusStillbirth
	}
	if err := s.pregnancies.Update(ctx, p); err != nil {
		return fmt.Errorf("close out pregnancy: %w", err)
	}

	s.auditor.Record(ctx, audit.EventDeliveryRecorded,
		fmt.Sprintf("%s delivery recorded, outcome %s", d.DeliveryType, d.DeliveryOutcome),
		map[string]any{"delivery_id": d.ID.String(), "pregnancy_id": d.PregnancyID.String()})
	return nil
}

// RegisterBaby persists the newborn and generates its vaccine schedule from
// the birth date. Generation is idempotent, so re-registration retries are
// safe.
func (s *Service) RegisterBaby(ctx context.Context, b *Baby) error {
	if b.DeliveryID == uuid.Nil {
		return fmt.Errorf("delivery_id is required")
	}
	if b.Gender != GenderMale && b.Gender != GenderFemale {
		return fmt.Errorf("gender must be M or F")
	}
	if b.BirthWeightGrams <= 0 {
		return fmt.Errorf("birth_weight_grams must be positive")
	}
	if b.ApgarScore1Min != nil && (*b.ApgarScore1Min < 0 || *b.ApgarScore1Min > 10) {
		return fmt.Errorf("apgar_score_1min must be 0-10")
	}
	if b.ApgarScore5Min != nil && (*b.ApgarScore5Min < 0 || *b.ApgarScore5Min > 10) {
		return fmt.Errorf("apgar_score_5min must be 0-10")
	}
	if b.BirthOrder < 1 {
		b.BirthOrder = 1
	}

	d, err := s.deliveries.GetByID(ctx, b.DeliveryID)
	if err != nil {
		return fmt.Errorf("delivery not found: %w", err)
	}
	if b.BirthDate.IsZero() {
		b.BirthDate = d.DeliveryDate
	}
	if b.MotherID == uuid.Nil {
		p, err := s.pregnancies.GetByID(ctx, d.PregnancyID)
		if err != nil {
			return fmt.Errorf("pregnancy not found: %w", err)
		}
		b.MotherID = p.MotherID
	}

	if err := s.babies.Create(ctx, b); err != nil {
		return err
	}

	count, err := s.schedules.GenerateForBaby(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("generate immunization schedule: %w", err)
	}
	s.logger.Info().Str("baby_id", b.ID.String()).Int("doses", count).Msg("immunization schedule generated")
	return nil
}

func (s *Service) GetDelivery(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	return s.deliveries.GetByID(ctx, id)
}

func (s *Service) GetDeliveryByPregnancy(ctx context.Context, pregnancyID uuid.UUID) (*Delivery, error) {
	return s.deliveries.GetByPregnancy(ctx, pregnancyID)
}

func (s *Service) ListDeliveries(ctx context.Context, limit, offset int) ([]*Delivery, int, error) {
	return s.deliveries.List(ctx, limit, offset)
}

func (s *Service) UpdateDelivery(ctx context.Context, d *Delivery) error {
	if d.DeliveryType != "" && !validTypes[d.DeliveryType] {
		return fmt.Errorf("invalid delivery type: %s", d.DeliveryType)
	}
	if d.DeliveryOutcome != "" && !validOutcomes[d.DeliveryOutcome] {
		return fmt.Errorf("invalid delivery outcome: %s", d.DeliveryOutcome)
	}
	return s.deliveries.Update(ctx, d)
}

func (s *Service) GetBaby(ctx context.Context, id uuid.UUID) (*Baby, error) {
	return s.babies.GetByID(ctx, id)
}

func (s *Service) UpdateBaby(ctx context.Context, b *Baby) error {
	if b.Gender != "" && b.Gender != GenderMale && b.Gender != GenderFemale {
		return fmt.Errorf("gender must be M or F")
	}
	return s.babies.Update(ctx, b)
}

func (s *Service) ListBabiesByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]*Baby, error) {
	return s.babies.ListByDelivery(ctx, deliveryID)
}

func (s *Service) ListBabiesByMother(ctx context.Context, motherID uuid.UUID) ([]*Baby, error) {
	return s.babies.ListByMother(ctx, motherID)
}

func (s *Service) ListBabies(ctx context.Context, limit, offset int) ([]*Baby, int, error) {
	return s.babies.List(ctx, limit, offset)
}
