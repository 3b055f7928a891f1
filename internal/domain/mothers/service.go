package mothers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/afyamama/afyamama/internal/platform/sms"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, m *Mother) error {
	if m.FirstName == "" || m.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if m.DateOfBirth.IsZero() {
		return fmt.Errorf("date_of_birth is required")
	}
	if m.PhoneNumber == "" {
		return fmt.Errorf("phone_number is required")
	}
	if !sms.ValidNumber(m.PhoneNumber) {
		return fmt.Errorf("invalid phone_number: %s (expected +254XXXXXXXXX)", m.PhoneNumber)
	}
	if m.FacilityName == "" {
		return fmt.Errorf("facility_name is required")
	}
	m.Active = true
	return s.repo.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Mother, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByPhone(ctx context.Context, phone string) (*Mother, error) {
	return s.repo.GetByPhone(ctx, phone)
}

func (s *Service) Update(ctx context.Context, m *Mother) error {
	if m.PhoneNumber != "" && !sms.ValidNumber(m.PhoneNumber) {
		return fmt.Errorf("invalid phone_number: %s", m.PhoneNumber)
	}
	return s.repo.Update(ctx, m)
}

// Deactivate retires a record without deleting it; inactive mothers drop out
// of all reminder matching.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.Active = false
	return s.repo.Update(ctx, m)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Mother, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByCounty(ctx context.Context, county string, limit, offset int) ([]*Mother, int, error) {
	return s.repo.ListByCounty(ctx, county, limit, offset)
}
