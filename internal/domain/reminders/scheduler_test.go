package reminders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyamama/afyamama/internal/platform/audit"
	"github.com/afyamama/afyamama/internal/platform/clock"
)

type mockTemplateRepo struct {
	byKind map[string]*Template
}

func newMockTemplateRepo() *mockTemplateRepo {
	m := &mockTemplateRepo{byKind: make(map[string]*Template)}
	for _, t := range DefaultTemplates() {
		tpl := t
		tpl.ID = uuid.New()
		m.byKind[tpl.Kind] = &tpl
	}
	return m
}

func (m *mockTemplateRepo) Upsert(_ context.Context, t *Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.byKind[t.Kind] = t
	return nil
}

func (m *mockTemplateRepo) GetActiveByKind(_ context.Context, kind string) (*Template, error) {
	t, ok := m.byKind[kind]
	if !ok || !t.Active {
		return nil, fmt.Errorf("not found")
	}
	return t, nil
}

func (m *mockTemplateRepo) List(_ context.Context) ([]*Template, error) {
	var items []*Template
	for _, t := range m.byKind {
		items = append(items, t)
	}
	return items, nil
}

func (m *mockTemplateRepo) Update(_ context.Context, t *Template) error {
	m.byKind[t.Kind] = t
	return nil
}

type mockSentRepo struct {
	records map[uuid.UUID]*SentReminder
	now     func() time.Time
}

func (m *mockSentRepo) Create(_ context.Context, r *SentReminder) error {
	r.ID = uuid.New()
	if r.DeliveryStatus == "" {
		r.DeliveryStatus = StatusPending
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = DefaultMaxRetries
	}
	r.CreatedAt = m.now()
	m.records[r.ID] = r
	return nil
}

func (m *mockSentRepo) GetByID(_ context.Context, id uuid.UUID) (*SentReminder, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return r, nil
}

func (m *mockSentRepo) GetByGatewayMessageID(_ context.Context, messageID string) (*SentReminder, error) {
	for _, r := range m.records {
		if r.GatewayMessageID == messageID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockSentRepo) Update(_ context.Context, r *SentReminder) error {
	if _, ok := m.records[r.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.records[r.ID] = r
	return nil
}

func (m *mockSentRepo) List(_ context.Context, motherID uuid.UUID, status string, limit, offset int) ([]*SentReminder, int, error) {
	var items []*SentReminder
	for _, r := range m.records {
		if motherID != uuid.Nil && r.MotherID != motherID {
			continue
		}
		if status != "" && r.DeliveryStatus != status {
			continue
		}
		items = append(items, r)
	}
	return items, len(items), nil
}

func (m *mockSentRepo) matchesRef(r *SentReminder, ref uuid.UUID) bool {
	return (r.VisitID != nil && *r.VisitID == ref) ||
		(r.ImmunizationID != nil && *r.ImmunizationID == ref) ||
		(r.PregnancyID != nil && *r.PregnancyID == ref)
}

func (m *mockSentRepo) ExistsForRef(_ context.Context, kind string, ref uuid.UUID) (bool, error) {
	for _, r := range m.records {
		if r.Kind == kind && m.matchesRef(r, ref) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSentRepo) ExistsForRefSince(_ context.Context, kind string, ref uuid.UUID, since time.Time) (bool, error) {
	for _, r := range m.records {
		if r.Kind == kind && m.matchesRef(r, ref) && !r.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSentRepo) ListPending(_ context.Context, before time.Time) ([]*SentReminder, error) {
	var items []*SentReminder
	for _, r := range m.records {
		if r.DeliveryStatus == StatusPending && !r.ScheduledAt.After(before) {
			items = append(items, r)
		}
	}
	return items, nil
}

func (m *mockSentRepo) ListRetryable(_ context.Context, now time.Time) ([]*SentReminder, error) {
	var items []*SentReminder
	for _, r := range m.records {
		if r.NeedsRetry(now) {
			items = append(items, r)
		}
	}
	return items, nil
}

func (m *mockSentRepo) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, r := range m.records {
		counts[r.DeliveryStatus]++
	}
	return counts, nil
}

func (m *mockSentRepo) CountByKind(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, r := range m.records {
		counts[r.Kind]++
	}
	return counts, nil
}

type mockCandidateRepo struct {
	visits      []*VisitCandidate
	missed      []*VisitCandidate
	dangerSigns []*VisitCandidate
	doses       []*DoseCandidate
	missedDoses []*DoseCandidate
	pregnancies []*PregnancyCandidate
}

func (m *mockCandidateRepo) ANCVisitsOn(_ context.Context, day time.Time) ([]*VisitCandidate, error) {
	var items []*VisitCandidate
	for _, v := range m.visits {
		if clock.SameDay(v.ScheduledDate, day) {
			items = append(items, v)
		}
	}
	return items, nil
}

func (m *mockCandidateRepo) MissedANCVisits(_ context.Context) ([]*VisitCandidate, error) {
	return m.missed, nil
}

func (m *mockCandidateRepo) DangerSignVisits(_ context.Context) ([]*VisitCandidate, error) {
	return m.dangerSigns, nil
}

func (m *mockCandidateRepo) DosesOn(_ context.Context, day time.Time) ([]*DoseCandidate, error) {
	var items []*DoseCandidate
	for _, d := range m.doses {
		if clock.SameDay(d.ScheduledDate, day) {
			items = append(items, d)
		}
	}
	return items, nil
}

func (m *mockCandidateRepo) MissedDoses(_ context.Context) ([]*DoseCandidate, error) {
	return m.missedDoses, nil
}

func (m *mockCandidateRepo) PregnanciesAtWeeks(_ context.Context, day time.Time, minWeeks int) ([]*PregnancyCandidate, error) {
	cutoff := day.AddDate(0, 0, -minWeeks*7)
	var items []*PregnancyCandidate
	for _, p := range m.pregnancies {
		if !p.LMP.After(cutoff) {
			items = append(items, p)
		}
	}
	return items, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestScheduler(today time.Time) (*Scheduler, *mockSentRepo, *mockCandidateRepo, *audit.MemorySink) {
	clk := clock.NewFixed(today)
	sent := &mockSentRepo{records: make(map[uuid.UUID]*SentReminder), now: clk.Now}
	candidates := &mockCandidateRepo{}
	sink := &audit.MemorySink{}
	s := NewScheduler(newMockTemplateRepo(), sent, candidates, clk, sink, zerolog.Nop(), DefaultLeadDays)
	return s, sent, candidates, sink
}

func visitCandidate(scheduled time.Time, number int) *VisitCandidate {
	return &VisitCandidate{
		VisitID:       uuid.New(),
		VisitNumber:   number,
		ScheduledDate: scheduled,
		PregnancyID:   uuid.New(),
		MotherID:      uuid.New(),
		FirstName:     "Mary",
		PhoneNumber:   "+254712345678",
		FacilityName:  "Kibera Health Centre",
	}
}

func TestRun_UpcomingMatchesLeadDay(t *testing.T) {
	today := day(2025, 5, 12)
	s, sent, candidates, _ := newTestScheduler(today)

	candidates.visits = []*VisitCandidate{
		visitCandidate(day(2025, 5, 15), 2), // today+3: matches
		visitCandidate(day(2025, 5, 16), 3), // today+4: no
	}

	stats, err := s.Run(context.Background(), today, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ANCUpcoming != 1 {
		t.Errorf("anc_upcoming = %d, want 1", stats.ANCUpcoming)
	}
	if stats.ANCToday != 0 {
		t.Errorf("anc_today = %d, want 0", stats.ANCToday)
	}
	if len(sent.records) != 1 {
		t.Fatalf("created %d reminders, want 1", len(sent.records))
	}

	for _, r := range sent.records {
		if r.Kind != KindANCUpcoming {
			t.Errorf("kind = %s", r.Kind)
		}
		if r.DeliveryStatus != StatusPending {
			t.Errorf("status = %s, want PENDING", r.DeliveryStatus)
		}
		want := "Dear Mary, this is a reminder for your ANC Contact 2 on 15 May 2025 at Kibera Health Centre."
		if !strings.HasPrefix(r.MessageContent, want) {
			t.Errorf("message = %q", r.MessageContent)
		}
		// days_before 3, send_time 09:00 puts it at today 09:00.
		wantAt := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
		if !r.ScheduledAt.Equal(wantAt) {
			t.Errorf("scheduled_at = %v, want %v", r.ScheduledAt, wantAt)
		}
	}
}

func TestRun_PermanentDedup(t *testing.T) {
	today := day(2025, 5, 12)
	s, sent, candidates, _ := newTestScheduler(today)
	candidates.visits = []*VisitCandidate{visitCandidate(day(2025, 5, 15), 2)}

	if _, err := s.Run(context.Background(), today, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats, err := s.Run(context.Background(), today, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ANCUpcoming != 0 {
		t.Errorf("second run anc_upcoming = %d, want 0", stats.ANCUpcoming)
	}
	if len(sent.records) != 1 {
		t.Errorf("total reminders = %d, want 1", len(sent.records))
	}
}

func TestRun_MissedCooldown(t *testing.T) {
	today := day(2025, 5, 12)
	s, sent, candidates, _ := newTestScheduler(today)
	candidates.missed = []*VisitCandidate{visitCandidate(day(2025, 4, 20), 1)}

	stats, err := s.Run(context.Background(), today, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ANCMissed != 1 {
		t.Fatalf("anc_missed = %d, want 1", stats.ANCMissed)
	}

	// Within the 7-day window nothing new is created.
	stats, _ = s.Run(context.Background(), today, false)
	if stats.ANCMissed != 0 {
		t.Errorf("anc_missed within cooldown = %d, want 0", stats.ANCMissed)
	}

	// Age the follow-up past the window and it fires again.
	for _, r := range sent.records {
		r.CreatedAt = today.AddDate(0, 0, -8)
	}
	stats, _ = s.Run(context.Background(), today, false)
	if stats.ANCMissed != 1 {
		t.Errorf("anc_missed after cooldown = %d, want 1", stats.ANCMissed)
	}
}

func TestRun_GestationKinds(t *testing.T) {
	today := day(2025, 5, 12)
	s, sent, candidates, _ := newTestScheduler(today)

	candidates.pregnancies = []*PregnancyCandidate{
		{
			PregnancyID:  uuid.New(),
			MotherID:     uuid.New(),
			FirstName:    "Grace",
			PhoneNumber:  "+254798765432",
			FacilityName: "Mbagathi Hospital",
			LMP:          today.AddDate(0, 0, -41*7),
			EDD:          today.AddDate(0, 0, -7),
		},
	}

	stats, err := s.Run(context.Background(), today, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 41 weeks is past both thresholds.
	if stats.DeliveryApproaching != 1 {
		t.Errorf("delivery_approaching = %d, want 1", stats.DeliveryApproaching)
	}
	if stats.OverduePregnancy != 1 {
		t.Errorf("overdue_pregnancy = %d, want 1", stats.OverduePregnancy)
	}

	var overdue *SentReminder
	for _, r := range sent.records {
		if r.Kind == KindOverduePregnancy {
			overdue = r
		}
	}
	if overdue == nil {
		t.Fatal("no overdue reminder created")
	}
	if !strings.Contains(overdue.MessageContent, "41 weeks pregnant") {
		t.Errorf("message = %q", overdue.MessageContent)
	}
	if !strings.Contains(overdue.MessageContent, "Mbagathi Hospital") {
		t.Errorf("message = %q", overdue.MessageContent)
	}
}

func TestRun_SkipsPregnanciesWithoutLMP(t *testing.T) {
	today := day(2025, 5, 12)
	s, sent, candidates, _ := newTestScheduler(today)

	// A pregnancy registered without an LMP must not produce gestation
	// reminders, whatever the candidate query returns.
	candidates.pregnancies = []*PregnancyCandidate{
		{
			PregnancyID:  uuid.New(),
			MotherID:     uuid.New(),
			FirstName:    "Grace",
			PhoneNumber:  "+254798765432",
			FacilityName: "Mbagathi Hospital",
		},
	}

	stats, err := s.Run(context.Background(), today, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.DeliveryApproaching != 0 {
		t.Errorf("delivery_approaching = %d, want 0", stats.DeliveryApproaching)
	}
	if stats.OverduePregnancy != 0 {
		t.Errorf("overdue_pregnancy = %d, want 0", stats.OverduePregnancy)
	}
	if len(sent.records) != 0 {
		t.Errorf("created %d reminders for a pregnancy with no LMP", len(sent.records))
	}
}

func TestRun_BackdatedRunDedupsAgainstThatDay(t *testing.T) {
	// The wall clock is a month past the day being re-processed. Cooldowns
	// must anchor to that day, not to now.
	today := day(2025, 5, 12)
	clk := clock.NewFixed(day(2025, 6, 11))
	sent := &mockSentRepo{records: make(map[uuid.UUID]*SentReminder), now: clk.Now}
	candidates := &mockCandidateRepo{}
	s := NewScheduler(newMockTemplateRepo(), sent, candidates, clk, &audit.MemorySink{}, zerolog.Nop(), DefaultLeadDays)

	v := visitCandidate(day(2025, 4, 20), 1)
	candidates.missed = []*VisitCandidate{v}
	visitID := v.VisitID
	sent.records[uuid.New()] = &SentReminder{
		MotherID:    v.MotherID,
		Kind:        KindANCMissed,
		VisitID:     &visitID,
		PhoneNumber: v.PhoneNumber,
		CreatedAt:   today.AddDate(0, 0, -3),
	}

	stats, err := s.Run(context.Background(), today, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ANCMissed != 0 {
		t.Errorf("anc_missed = %d, want 0: follow-up from 3 days before is inside the cooldown", stats.ANCMissed)
	}
	if len(sent.records) != 1 {
		t.Errorf("total reminders = %d, want 1", len(sent.records))
	}
}

func TestRun_DryRunCreatesNothing(t *testing.T) {
	today := day(2025, 5, 12)
	s, sent, candidates, sink := newTestScheduler(today)
	candidates.visits = []*VisitCandidate{visitCandidate(day(2025, 5, 15), 2)}
	candidates.missedDoses = []*DoseCandidate{{
		ScheduleID: uuid.New(), VaccineName: "BCG", ScheduledDate: day(2025, 4, 1),
		BabyID: uuid.New(), BabyName: "Baby Girl", MotherID: uuid.New(),
		FirstName: "Mary", PhoneNumber: "+254712345678", FacilityName: "Kibera Health Centre",
	}}

	stats, err := s.Run(context.Background(), today, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ANCUpcoming != 1 || stats.VaccineMissed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(sent.records) != 0 {
		t.Errorf("dry run created %d reminders", len(sent.records))
	}
	for _, e := range sink.Events() {
		if e.Kind == audit.EventCronRun {
			t.Error("dry run should not audit a cron run")
		}
	}
}

func TestRun_AuditsCronRun(t *testing.T) {
	today := day(2025, 5, 12)
	s, _, _, sink := newTestScheduler(today)

	if _, err := s.Run(context.Background(), today, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range sink.Events() {
		if e.Kind == audit.EventCronRun {
			found = true
		}
	}
	if !found {
		t.Error("expected a CRON_RUN audit event")
	}
}
