package pregnancy

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyamama/afyamama/internal/domain/schedule"
	"github.com/afyamama/afyamama/internal/platform/audit"
	"github.com/afyamama/afyamama/internal/platform/clock"
)

type mockPregnancyRepo struct {
	records map[uuid.UUID]*Pregnancy
}

func (m *mockPregnancyRepo) Create(_ context.Context, p *Pregnancy) error {
	p.ID = uuid.New()
	m.records[p.ID] = p
	return nil
}

func (m *mockPregnancyRepo) GetByID(_ context.Context, id uuid.UUID) (*Pregnancy, error) {
	p, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockPregnancyRepo) GetActiveByMother(_ context.Context, motherID uuid.UUID) (*Pregnancy, error) {
	for _, p := range m.records {
		if p.MotherID == motherID && p.Status == StatusActive {
			return p, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockPregnancyRepo) Update(_ context.Context, p *Pregnancy) error {
	if _, ok := m.records[p.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.records[p.ID] = p
	return nil
}

func (m *mockPregnancyRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.records, id)
	return nil
}

func (m *mockPregnancyRepo) List(_ context.Context, limit, offset int) ([]*Pregnancy, int, error) {
	var items []*Pregnancy
	for _, p := range m.records {
		items = append(items, p)
	}
	return items, len(items), nil
}

func (m *mockPregnancyRepo) ListByMother(_ context.Context, motherID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error) {
	var items []*Pregnancy
	for _, p := range m.records {
		if p.MotherID == motherID {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

type mockVisitRepo struct {
	records     map[uuid.UUID]*ANCVisit
	pregnancies *mockPregnancyRepo
}

func (m *mockVisitRepo) CreateIfAbsent(_ context.Context, v *ANCVisit) (bool, error) {
	for _, existing := range m.records {
		if existing.PregnancyID == v.PregnancyID && existing.VisitNumber == v.VisitNumber {
			return false, nil
		}
	}
	v.ID = uuid.New()
	m.records[v.ID] = v
	return true, nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, id uuid.UUID) (*ANCVisit, error) {
	v, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return v, nil
}

func (m *mockVisitRepo) ListByPregnancy(_ context.Context, pregnancyID uuid.UUID) ([]*ANCVisit, error) {
	var items []*ANCVisit
	for _, v := range m.records {
		if v.PregnancyID == pregnancyID {
			items = append(items, v)
		}
	}
	return items, nil
}

func (m *mockVisitRepo) RecordAttendance(_ context.Context, v *ANCVisit) (bool, error) {
	existing, ok := m.records[v.ID]
	if !ok {
		return false, fmt.Errorf("not found")
	}
	if existing.Attended {
		return false, nil
	}
	v.PregnancyID = existing.PregnancyID
	v.VisitNumber = existing.VisitNumber
	v.ScheduledDate = existing.ScheduledDate
	v.Missed = existing.Missed
	v.Attended = true
	m.records[v.ID] = v
	return true, nil
}

func (m *mockVisitRepo) ListUnresolvedBefore(_ context.Context, cutoff time.Time) ([]*ANCVisit, error) {
	var items []*ANCVisit
	for _, v := range m.records {
		if v.Attended || v.Missed || v.ScheduledDate.After(cutoff) {
			continue
		}
		if p, ok := m.pregnancies.records[v.PregnancyID]; !ok || p.Status != StatusActive {
			continue
		}
		items = append(items, v)
	}
	return items, nil
}

func (m *mockVisitRepo) MarkMissed(_ context.Context, id uuid.UUID) error {
	v, ok := m.records[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	if !v.Attended {
		v.Missed = true
	}
	return nil
}

func newTestService(today time.Time) (*Service, *mockPregnancyRepo, *mockVisitRepo, *audit.MemorySink) {
	pregs := &mockPregnancyRepo{records: make(map[uuid.UUID]*Pregnancy)}
	visits := &mockVisitRepo{records: make(map[uuid.UUID]*ANCVisit), pregnancies: pregs}
	sink := &audit.MemorySink{}
	svc := NewService(pregs, visits, clock.NewFixed(today), sink, zerolog.Nop())
	return svc, pregs, visits, sink
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validPregnancy() *Pregnancy {
	return &Pregnancy{
		MotherID: uuid.New(),
		Gravida:  2,
		Parity:   1,
		LMP:      date(2025, 1, 1),
	}
}

func TestRegister_GeneratesSchedule(t *testing.T) {
	svc, _, visits, _ := newTestService(date(2025, 2, 1))

	p := validPregnancy()
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !p.EDD.Equal(date(2025, 10, 8)) {
		t.Errorf("EDD = %v, want 2025-10-08", p.EDD)
	}
	if len(visits.records) != 8 {
		t.Fatalf("expected 8 generated visits, got %d", len(visits.records))
	}

	byNumber := make(map[int]*ANCVisit)
	for _, v := range visits.records {
		byNumber[v.VisitNumber] = v
	}
	if !byNumber[1].ScheduledDate.Equal(date(2025, 3, 12)) {
		t.Errorf("contact 1 scheduled %v, want 2025-03-12", byNumber[1].ScheduledDate)
	}
	if !byNumber[8].ScheduledDate.Equal(date(2025, 10, 15)) {
		t.Errorf("contact 8 scheduled %v, want 2025-10-15", byNumber[8].ScheduledDate)
	}
}

func TestRegister_GenerationIsIdempotent(t *testing.T) {
	svc, _, visits, _ := newTestService(date(2025, 2, 1))

	p := validPregnancy()
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created, err := svc.GenerateVisitSchedule(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 0 {
		t.Errorf("second generation created %d visits, want 0", created)
	}
	if len(visits.records) != 8 {
		t.Errorf("expected 8 visits after regeneration, got %d", len(visits.records))
	}
}

func TestRegister_NoLMPNoSchedule(t *testing.T) {
	svc, _, visits, _ := newTestService(date(2025, 2, 1))

	p := validPregnancy()
	p.LMP = time.Time{}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visits.records) != 0 {
		t.Errorf("expected no visits without an LMP, got %d", len(visits.records))
	}
}

func TestRegister_ParityValidation(t *testing.T) {
	svc, _, _, _ := newTestService(date(2025, 2, 1))

	cases := []struct {
		gravida, parity int
		wantErr         bool
	}{
		{1, 0, false},
		{1, 1, true},
		{2, 1, false},
		{2, 2, true},
		{3, 5, true},
		{0, 0, true},
		{2, -1, true},
	}
	for _, tc := range cases {
		p := validPregnancy()
		p.Gravida = tc.gravida
		p.Parity = tc.parity
		err := svc.Register(context.Background(), p)
		if tc.wantErr && err == nil {
			t.Errorf("G%dP%d: expected error", tc.gravida, tc.parity)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("G%dP%d: unexpected error: %v", tc.gravida, tc.parity, err)
		}
	}
}

func TestRegister_OneActivePregnancyPerMother(t *testing.T) {
	svc, _, _, _ := newTestService(date(2025, 2, 1))

	p := validPregnancy()
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := validPregnancy()
	second.MotherID = p.MotherID
	second.Gravida = 3
	second.Parity = 1
	if err := svc.Register(context.Background(), second); err == nil {
		t.Fatal("expected error for second active pregnancy")
	}
}

func TestRecordAttendance(t *testing.T) {
	today := date(2025, 4, 1)
	svc, _, visits, sink := newTestService(today)

	p := validPregnancy()
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var visit *ANCVisit
	for _, v := range visits.records {
		if v.VisitNumber == 1 {
			visit = v
		}
	}

	payload := &ANCVisit{HasDangerSigns: true, DangerSignsNote: "severe headache"}
	updated, err := svc.RecordAttendance(context.Background(), visit.ID, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Attended {
		t.Error("expected visit to be attended")
	}
	if updated.AttendanceDate == nil || !updated.AttendanceDate.Equal(today) {
		t.Errorf("attendance date = %v, want %v", updated.AttendanceDate, today)
	}

	// Double completion is rejected.
	if _, err := svc.RecordAttendance(context.Background(), visit.ID, &ANCVisit{}); err != ErrAlreadyAttended {
		t.Fatalf("expected ErrAlreadyAttended, got %v", err)
	}

	// Danger signs were audited.
	found := false
	for _, e := range sink.Events() {
		if e.Kind == audit.EventDangerSign {
			found = true
		}
	}
	if !found {
		t.Error("expected a DANGER_SIGN audit event")
	}
}

func TestRecordAttendance_OverridesMissed(t *testing.T) {
	today := date(2025, 6, 1)
	svc, _, visits, _ := newTestService(today)

	p := validPregnancy()
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var visit *ANCVisit
	for _, v := range visits.records {
		if v.VisitNumber == 1 {
			visit = v
		}
	}
	visit.Missed = true

	updated, err := svc.RecordAttendance(context.Background(), visit.ID, &ANCVisit{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := updated.Status(today); got != schedule.StatusAttended {
		t.Errorf("status after attendance = %s, want ATTENDED", got)
	}
}

func TestSweepMissed(t *testing.T) {
	today := date(2025, 6, 1)
	svc, _, visits, sink := newTestService(today)

	p := validPregnancy()
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Rewrite scheduled dates to straddle the 7-day grace period.
	var old, recent *ANCVisit
	for _, v := range visits.records {
		switch v.VisitNumber {
		case 1:
			v.ScheduledDate = today.AddDate(0, 0, -8)
			old = v
		case 2:
			v.ScheduledDate = today.AddDate(0, 0, -6)
			recent = v
		default:
			v.ScheduledDate = today.AddDate(0, 0, 30)
		}
	}

	count, err := svc.SweepMissed(context.Background(), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 visit swept, got %d", count)
	}
	if !old.Missed {
		t.Error("expected 8-day-old visit to be missed")
	}
	if recent.Missed {
		t.Error("6-day-old visit should not be missed yet")
	}
	if got := recent.Status(today); got != schedule.StatusOverdue {
		t.Errorf("recent visit status = %s, want OVERDUE", got)
	}

	if len(sink.Events()) == 0 {
		t.Error("expected MISSED_VISIT audit events")
	}
}

func TestSweepMissed_SkipsClosedPregnancies(t *testing.T) {
	today := date(2025, 6, 1)
	svc, pregs, visits, _ := newTestService(today)

	p := validPregnancy()
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range visits.records {
		v.ScheduledDate = today.AddDate(0, 0, -30)
	}
	pregs.records[p.ID].Status = StatusDelivered

	count, err := svc.SweepMissed(context.Background(), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no sweeps for a delivered pregnancy, got %d", count)
	}
}

func TestPregnancyDerivations(t *testing.T) {
	p := &Pregnancy{LMP: date(2025, 1, 1), EDD: schedule.EDD(date(2025, 1, 1)), Status: StatusActive}
	today := date(2025, 6, 1)

	if got := p.GestationalWeeks(today); got != 21 {
		t.Errorf("GestationalWeeks = %d, want 21", got)
	}
	if got := p.Trimester(today); got != 2 {
		t.Errorf("Trimester = %d, want 2", got)
	}
	if p.IsOverdue(today) {
		t.Error("pregnancy should not be overdue at 21 weeks")
	}
	if !p.IsOverdue(date(2025, 10, 9)) {
		t.Error("pregnancy should be overdue the day after the EDD")
	}
}
