package reminders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyamama/afyamama/internal/domain/schedule"
	"github.com/afyamama/afyamama/internal/platform/audit"
	"github.com/afyamama/afyamama/internal/platform/clock"
)

// DefaultLeadDays is how far ahead of an obligation the UPCOMING kinds fire.
const DefaultLeadDays = 3

const dateFormat = "02 Jan 2006"

// Scheduler is the daily fan-out pass: it scans the live obligation set once
// per kind and creates a pending SentReminder for every match the dedup
// policy allows. It never talks to the gateway; the Tracker does that.
type Scheduler struct {
	templates  TemplateRepository
	sent       SentRepository
	candidates CandidateRepository
	clk        clock.Clock
	auditor    audit.Sink
	logger     zerolog.Logger
	leadDays   int
}

func NewScheduler(templates TemplateRepository, sent SentRepository, candidates CandidateRepository, clk clock.Clock, auditor audit.Sink, logger zerolog.Logger, leadDays int) *Scheduler {
	if leadDays <= 0 {
		leadDays = DefaultLeadDays
	}
	return &Scheduler{
		templates:  templates,
		sent:       sent,
		candidates: candidates,
		clk:        clk,
		auditor:    auditor,
		logger:     logger,
		leadDays:   leadDays,
	}
}

// Run executes one scheduler pass for the given day. With dryRun set it
// counts matches without creating anything. A failing kind is logged and
// skipped; one broken scan must not silence the rest.
func (s *Scheduler) Run(ctx context.Context, today time.Time, dryRun bool) (*RunStats, error) {
	today = clock.Midnight(today)
	stats := &RunStats{}

	checks := []struct {
		name string
		run  func(context.Context, time.Time, bool) (int, error)
		dst  *int
	}{
		{"anc upcoming", s.checkANCUpcoming, &stats.ANCUpcoming},
		{"anc today", s.checkANCToday, &stats.ANCToday},
		{"anc missed", s.checkANCMissed, &stats.ANCMissed},
		{"vaccine upcoming", s.checkVaccineUpcoming, &stats.VaccineUpcoming},
		{"vaccine today", s.checkVaccineToday, &stats.VaccineToday},
		{"vaccine missed", s.checkVaccineMissed, &stats.VaccineMissed},
		{"delivery approaching", s.checkDeliveryApproaching, &stats.DeliveryApproaching},
		{"overdue pregnancy", s.checkOverduePregnancy, &stats.OverduePregnancy},
		{"danger signs", s.checkDangerSigns, &stats.DangerSigns},
	}
	for _, c := range checks {
		count, err := c.run(ctx, today, dryRun)
		if err != nil {
			s.logger.Error().Err(err).Str("check", c.name).Msg("reminder check failed")
			continue
		}
		*c.dst = count
	}

	if !dryRun {
		s.auditor.Record(ctx, audit.EventCronRun, "daily reminder check completed",
			map[string]any{"total": stats.Total(), "date": today.Format("2006-01-02")})
	}
	return stats, nil
}

// nowFor anchors the pass clock to the day being processed. A backdated run
// must dedup and stamp send times against that day, not the wall clock.
func (s *Scheduler) nowFor(today time.Time) time.Time {
	now := s.clk.Now()
	if clock.SameDay(now, today) {
		return now
	}
	return today
}

// allowed consults the dedup policy for the kind against the obligation ref.
func (s *Scheduler) allowed(ctx context.Context, kind string, ref uuid.UUID, now time.Time) (bool, error) {
	p := PolicyFor(kind)
	if p.Permanent {
		exists, err := s.sent.ExistsForRef(ctx, kind, ref)
		return !exists, err
	}
	exists, err := s.sent.ExistsForRefSince(ctx, kind, ref, now.Add(-p.Cooldown))
	return !exists, err
}

func (s *Scheduler) checkANCUpcoming(ctx context.Context, today time.Time, dryRun bool) (int, error) {
	target := today.AddDate(0, 0, s.leadDays)
	visits, err := s.candidates.ANCVisitsOn(ctx, target)
	if err != nil {
		return 0, err
	}
	return s.createForVisits(ctx, KindANCUpcoming, visits, s.nowFor(today), dryRun)
}

func (s *Scheduler) checkANCToday(ctx context.Context, today time.Time, dryRun bool) (int, error) {
	visits, err := s.candidates.ANCVisitsOn(ctx, today)
	if err != nil {
		return 0, err
	}
	return s.createForVisits(ctx, KindANCToday, visits, s.nowFor(today), dryRun)
}

func (s *Scheduler) checkANCMissed(ctx context.Context, today time.Time, dryRun bool) (int, error) {
	visits, err := s.candidates.MissedANCVisits(ctx)
	if err != nil {
		return 0, err
	}
	return s.createForVisits(ctx, KindANCMissed, visits, s.nowFor(today), dryRun)
}

func (s *Scheduler) checkDangerSigns(ctx context.Context, today time.Time, dryRun bool) (int, error) {
	visits, err := s.candidates.DangerSignVisits(ctx)
	if err != nil {
		return 0, err
	}
	return s.createForVisits(ctx, KindDangerSigns, visits, s.nowFor(today), dryRun)
}

func (s *Scheduler) createForVisits(ctx context.Context, kind string, visits []*VisitCandidate, now time.Time, dryRun bool) (int, error) {
	tpl, err := s.templates.GetActiveByKind(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("no active template for %s: %w", kind, err)
	}

	count := 0
	for _, v := range visits {
		ok, err := s.allowed(ctx, kind, v.VisitID, now)
		if err != nil {
			return count, err
		}
		if !ok {
			continue
		}
		count++
		if dryRun {
			continue
		}

		message := Render(tpl.MessageTemplate, map[string]string{
			"name":         v.FirstName,
			"visit_number": strconv.Itoa(v.VisitNumber),
			"date":         v.ScheduledDate.Format(dateFormat),
			"facility":     v.FacilityName,
		})
		visitID := v.VisitID
		pregnancyID := v.PregnancyID
		r := &SentReminder{
			MotherID:       v.MotherID,
			PhoneNumber:    v.PhoneNumber,
			Kind:           kind,
			MessageContent: message,
			TemplateID:     &tpl.ID,
			PregnancyID:    &pregnancyID,
			VisitID:        &visitID,
			ScheduledAt:    SendAt(tpl, v.ScheduledDate, now),
			FacilityName:   v.FacilityName,
		}
		if err := s.sent.Create(ctx, r); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (s *Scheduler) checkVaccineUpcoming(ctx context.Context, today time.Time, dryRun bool) (int, error) {
	target := today.AddDate(0, 0, s.leadDays)
	doses, err := s.candidates.DosesOn(ctx, target)
	if err != nil {
		return 0, err
	}
	return s.createForDoses(ctx, KindVaccineUpcoming, doses, s.nowFor(today), dryRun)
}

func (s *Scheduler) checkVaccineToday(ctx context.Context, today time.Time, dryRun bool) (int, error) {
	doses, err := s.candidates.DosesOn(ctx, today)
	if err != nil {
		return 0, err
	}
	return s.createForDoses(ctx, KindVaccineToday, doses, s.nowFor(today), dryRun)
}

func (s *Scheduler) checkVaccineMissed(ctx context.Context, today time.Time, dryRun bool) (int, error) {
	doses, err := s.candidates.MissedDoses(ctx)
	if err != nil {
		return 0, err
	}
	return s.createForDoses(ctx, KindVaccineMissed, doses, s.nowFor(today), dryRun)
}

func (s *Scheduler) createForDoses(ctx context.Context, kind string, doses []*DoseCandidate, now time.Time, dryRun bool) (int, error) {
	tpl, err := s.templates.GetActiveByKind(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("no active template for %s: %w", kind, err)
	}

	count := 0
	for _, d := range doses {
		ok, err := s.allowed(ctx, kind, d.ScheduleID, now)
		if err != nil {
			return count, err
		}
		if !ok {
			continue
		}
		count++
		if dryRun {
			continue
		}

		message := Render(tpl.MessageTemplate, map[string]string{
			"name":         d.FirstName,
			"baby_name":    d.BabyName,
			"vaccine_name": d.VaccineName,
			"date":         d.ScheduledDate.Format(dateFormat),
			"facility":     d.FacilityName,
		})
		scheduleID := d.ScheduleID
		babyID := d.BabyID
		r := &SentReminder{
			MotherID:       d.MotherID,
			PhoneNumber:    d.PhoneNumber,
			Kind:           kind,
			MessageContent: message,
			TemplateID:     &tpl.ID,
			BabyID:         &babyID,
			ImmunizationID: &scheduleID,
			ScheduledAt:    SendAt(tpl, d.ScheduledDate, now),
			FacilityName:   d.FacilityName,
		}
		if err := s.sent.Create(ctx, r); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (s *Scheduler) checkDeliveryApproaching(ctx context.Context, today time.Time, dryRun bool) (int, error) {
	return s.createForPregnancies(ctx, KindDeliveryApproaching, today, schedule.DeliveryApproachingWeeks, dryRun)
}

func (s *Scheduler) checkOverduePregnancy(ctx context.Context, today time.Time, dryRun bool) (int, error) {
	return s.createForPregnancies(ctx, KindOverduePregnancy, today, schedule.OverdueWeeks, dryRun)
}

func (s *Scheduler) createForPregnancies(ctx context.Context, kind string, today time.Time, minWeeks int, dryRun bool) (int, error) {
	pregnancies, err := s.candidates.PregnanciesAtWeeks(ctx, today, minWeeks)
	if err != nil {
		return 0, err
	}
	tpl, err := s.templates.GetActiveByKind(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("no active template for %s: %w", kind, err)
	}

	now := s.nowFor(today)
	count := 0
	for _, p := range pregnancies {
		// Gestation cannot be computed without an LMP. The candidate query
		// filters these out, but a stale row must not become a week-0 SMS.
		if p.LMP.IsZero() {
			continue
		}
		ok, err := s.allowed(ctx, kind, p.PregnancyID, now)
		if err != nil {
			return count, err
		}
		if !ok {
			continue
		}
		count++
		if dryRun {
			continue
		}

		message := Render(tpl.MessageTemplate, map[string]string{
			"name":           p.FirstName,
			"weeks_pregnant": strconv.Itoa(schedule.WeeksSince(p.LMP, today)),
			"edd":            p.EDD.Format(dateFormat),
			"facility":       p.FacilityName,
		})
		pregnancyID := p.PregnancyID
		r := &SentReminder{
			MotherID:       p.MotherID,
			PhoneNumber:    p.PhoneNumber,
			Kind:           kind,
			MessageContent: message,
			TemplateID:     &tpl.ID,
			PregnancyID:    &pregnancyID,
			ScheduledAt:    SendAt(tpl, today, now),
			FacilityName:   p.FacilityName,
		}
		if err := s.sent.Create(ctx, r); err != nil {
			return count, err
		}
	}
	return count, nil
}
