package schedule

import (
	"time"

	"github.com/afyamama/afyamama/internal/platform/clock"
)

// GestationDays is the standard pregnancy length used to compute the
// estimated due date from the last menstrual period.
const GestationDays = 280

// Gestational thresholds (in completed weeks) for pregnancy-level reminders.
const (
	DeliveryApproachingWeeks = 38
	OverdueWeeks             = 40
)

// EDD returns the estimated due date for a pregnancy: LMP + 280 days.
func EDD(lmp time.Time) time.Time {
	return clock.Midnight(lmp).AddDate(0, 0, GestationDays)
}

// WeeksSince returns completed weeks between anchor and today, clamped to ≥ 0.
func WeeksSince(anchor, today time.Time) int {
	days := int(clock.Midnight(today).Sub(clock.Midnight(anchor)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 7
}

// Trimester maps gestational weeks to trimester 1, 2 or 3.
func Trimester(weeks int) int {
	switch {
	case weeks <= 12:
		return 1
	case weeks <= 26:
		return 2
	default:
		return 3
	}
}

// DaysUntil returns days from today to target, clamped to ≥ 0.
func DaysUntil(target, today time.Time) int {
	days := int(clock.Midnight(target).Sub(clock.Midnight(today)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
