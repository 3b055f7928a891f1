// Package schedule holds the date arithmetic shared by ANC visits and
// immunization schedules: generating obligation dates from an anchor date,
// deriving an obligation's status from a handful of persisted facts, and
// gestation math. Everything here is pure; persistence and transport live in
// the domain packages that call it.
package schedule

import (
	"time"

	"github.com/afyamama/afyamama/internal/platform/clock"
)

// Status is the derived lifecycle state of a scheduled obligation.
type Status string

const (
	StatusUpcoming Status = "UPCOMING"
	StatusDueToday Status = "DUE_TODAY"
	StatusOverdue  Status = "OVERDUE"
	StatusAttended Status = "ATTENDED"
	StatusMissed   Status = "MISSED"
)

// Grace periods before an unattended obligation is auto-marked missed.
const (
	ANCMissedGrace     = 7 * 24 * time.Hour
	VaccineMissedGrace = 28 * 24 * time.Hour
)

// Derive computes an obligation's status from its scheduled date, today, and
// the two persisted facts. Completion always wins; a missed flag is sticky
// until an explicit completion overrides it; the date-driven states are never
// stored.
func Derive(scheduledDate, today time.Time, completed, missed bool) Status {
	switch {
	case completed:
		return StatusAttended
	case missed:
		return StatusMissed
	}
	scheduledDate = clock.Midnight(scheduledDate)
	today = clock.Midnight(today)
	switch {
	case scheduledDate.Before(today):
		return StatusOverdue
	case scheduledDate.Equal(today):
		return StatusDueToday
	default:
		return StatusUpcoming
	}
}

// Offset places one obligation a fixed number of weeks after the anchor date.
type Offset struct {
	Sequence int
	Weeks    int
}

// Entry is a generated obligation: its sequence identity and scheduled date.
type Entry struct {
	Sequence int
	Date     time.Time
}

// ANCContacts is the 8-contact antenatal schedule (Kenya MoH 2022), in weeks
// from the last menstrual period.
var ANCContacts = []Offset{
	{Sequence: 1, Weeks: 10},
	{Sequence: 2, Weeks: 20},
	{Sequence: 3, Weeks: 26},
	{Sequence: 4, Weeks: 30},
	{Sequence: 5, Weeks: 34},
	{Sequence: 6, Weeks: 36},
	{Sequence: 7, Weeks: 38},
	{Sequence: 8, Weeks: 40},
}

// Generate expands an anchor date into dated entries, one per offset, in table
// order. A zero anchor yields no entries: a schedule is never partially
// generated.
func Generate(anchor time.Time, table []Offset) []Entry {
	if anchor.IsZero() {
		return nil
	}
	anchor = clock.Midnight(anchor)
	entries := make([]Entry, 0, len(table))
	for _, o := range table {
		entries = append(entries, Entry{
			Sequence: o.Sequence,
			Date:     anchor.AddDate(0, 0, o.Weeks*7),
		})
	}
	return entries
}
