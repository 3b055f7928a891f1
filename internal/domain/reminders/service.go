package reminders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/afyamama/afyamama/internal/platform/clock"
	"github.com/afyamama/afyamama/internal/platform/sms"
)

// Service covers the template, manual-send and log surface of the reminders
// API. The scan-and-compose work lives in Scheduler, gateway traffic in
// Tracker.
type Service struct {
	templates TemplateRepository
	sent      SentRepository
	clk       clock.Clock
}

func NewService(templates TemplateRepository, sent SentRepository, clk clock.Clock) *Service {
	return &Service{templates: templates, sent: sent, clk: clk}
}

// SeedTemplates loads or refreshes the shipped template set.
func (s *Service) SeedTemplates(ctx context.Context) (int, error) {
	count := 0
	for _, t := range DefaultTemplates() {
		tpl := t
		if err := s.templates.Upsert(ctx, &tpl); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Service) ListTemplates(ctx context.Context) ([]*Template, error) {
	return s.templates.List(ctx)
}

func (s *Service) UpdateTemplate(ctx context.Context, t *Template) error {
	if t.MessageTemplate == "" {
		return fmt.Errorf("message_template is required")
	}
	if t.DaysBefore < 0 {
		return fmt.Errorf("days_before cannot be negative")
	}
	if t.SendTime == "" {
		t.SendTime = "09:00"
	}
	return s.templates.Update(ctx, t)
}

// ManualReminder is a staff-composed SMS. PNC follow-ups and ad-hoc messages
// arrive here; no scheduler check covers them.
type ManualReminder struct {
	MotherID     uuid.UUID         `json:"mother_id"`
	PhoneNumber  string            `json:"phone_number"`
	Kind         string            `json:"kind"`
	Message      string            `json:"message"`
	Params       map[string]string `json:"params"`
	FacilityName string            `json:"facility_name"`
}

// CreateManual logs a pending manual reminder. With an empty Message the
// active template for the kind is rendered with the given params.
func (s *Service) CreateManual(ctx context.Context, req *ManualReminder) (*SentReminder, error) {
	if req.MotherID == uuid.Nil {
		return nil, fmt.Errorf("mother_id is required")
	}
	if !sms.ValidNumber(req.PhoneNumber) {
		return nil, fmt.Errorf("phone_number is not a valid Kenyan mobile number")
	}
	if req.Kind == "" {
		req.Kind = KindGeneral
	}

	message := req.Message
	var templateID *uuid.UUID
	scheduledAt := s.clk.Now()
	if message == "" {
		tpl, err := s.templates.GetActiveByKind(ctx, req.Kind)
		if err != nil {
			return nil, fmt.Errorf("no active template for %s: %w", req.Kind, err)
		}
		message = Render(tpl.MessageTemplate, req.Params)
		templateID = &tpl.ID
		scheduledAt = SendAt(tpl, s.clk.Today(), s.clk.Now())
	}

	r := &SentReminder{
		MotherID:       req.MotherID,
		PhoneNumber:    req.PhoneNumber,
		Kind:           req.Kind,
		MessageContent: message,
		TemplateID:     templateID,
		ScheduledAt:    scheduledAt,
		FacilityName:   req.FacilityName,
		IsManual:       true,
	}
	if err := s.sent.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) GetReminder(ctx context.Context, id uuid.UUID) (*SentReminder, error) {
	return s.sent.GetByID(ctx, id)
}

func (s *Service) ListReminders(ctx context.Context, motherID uuid.UUID, status string, limit, offset int) ([]*SentReminder, int, error) {
	return s.sent.List(ctx, motherID, status, limit, offset)
}

// Stats aggregates the reminder log by delivery status and by kind.
type Stats struct {
	ByStatus map[string]int `json:"by_status"`
	ByKind   map[string]int `json:"by_kind"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	byStatus, err := s.sent.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byKind, err := s.sent.CountByKind(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{ByStatus: byStatus, ByKind: byKind}, nil
}
