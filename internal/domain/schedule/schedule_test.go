package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateANCContacts(t *testing.T) {
	lmp := date(2025, 1, 1)

	entries := Generate(lmp, ANCContacts)
	if len(entries) != 8 {
		t.Fatalf("expected 8 contacts, got %d", len(entries))
	}

	if !entries[0].Date.Equal(date(2025, 3, 12)) {
		t.Errorf("contact 1 scheduled %v, want 2025-03-12", entries[0].Date)
	}
	if !entries[7].Date.Equal(date(2025, 10, 15)) {
		t.Errorf("contact 8 scheduled %v, want 2025-10-15", entries[7].Date)
	}

	for i, e := range entries {
		if e.Sequence != i+1 {
			t.Errorf("entry %d has sequence %d", i, e.Sequence)
		}
	}
}

func TestGenerateZeroAnchorProducesNothing(t *testing.T) {
	if entries := Generate(time.Time{}, ANCContacts); entries != nil {
		t.Fatalf("expected no entries for zero anchor, got %d", len(entries))
	}
}

func TestDerive(t *testing.T) {
	today := date(2025, 6, 1)

	cases := []struct {
		name      string
		scheduled time.Time
		completed bool
		missed    bool
		want      Status
	}{
		{"past and unresolved", date(2025, 5, 20), false, false, StatusOverdue},
		{"due today", today, false, false, StatusDueToday},
		{"future", date(2025, 6, 10), false, false, StatusUpcoming},
		{"missed flag sticks", date(2025, 5, 20), false, true, StatusMissed},
		{"missed flag sticks for future date", date(2025, 6, 10), false, true, StatusMissed},
		{"completion wins over missed", date(2025, 5, 20), true, true, StatusAttended},
		{"completed upcoming", date(2025, 6, 10), true, false, StatusAttended},
	}

	for _, tc := range cases {
		if got := Derive(tc.scheduled, today, tc.completed, tc.missed); got != tc.want {
			t.Errorf("%s: Derive = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestDeriveIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2025, 6, 1, 17, 45, 0, 0, time.UTC)
	scheduled := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	if got := Derive(scheduled, today, false, false); got != StatusDueToday {
		t.Fatalf("Derive = %s, want DUE_TODAY", got)
	}
}

func TestEDD(t *testing.T) {
	if got := EDD(date(2025, 1, 1)); !got.Equal(date(2025, 10, 8)) {
		t.Fatalf("EDD = %v, want 2025-10-08", got)
	}
}

func TestWeeksSince(t *testing.T) {
	cases := []struct {
		anchor, today time.Time
		want          int
	}{
		{date(2025, 1, 1), date(2025, 1, 1), 0},
		{date(2025, 1, 1), date(2025, 1, 7), 0},
		{date(2025, 1, 1), date(2025, 1, 8), 1},
		{date(2025, 1, 1), date(2025, 6, 1), 21},
		{date(2025, 6, 1), date(2025, 1, 1), 0}, // future anchor clamps to zero
	}
	for _, tc := range cases {
		if got := WeeksSince(tc.anchor, tc.today); got != tc.want {
			t.Errorf("WeeksSince(%v, %v) = %d, want %d", tc.anchor, tc.today, got, tc.want)
		}
	}
}

func TestTrimester(t *testing.T) {
	cases := []struct{ weeks, want int }{
		{0, 1}, {12, 1}, {13, 2}, {26, 2}, {27, 3}, {40, 3},
	}
	for _, tc := range cases {
		if got := Trimester(tc.weeks); got != tc.want {
			t.Errorf("Trimester(%d) = %d, want %d", tc.weeks, got, tc.want)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	today := date(2025, 6, 1)
	if got := DaysUntil(date(2025, 6, 11), today); got != 10 {
		t.Errorf("DaysUntil = %d, want 10", got)
	}
	if got := DaysUntil(date(2025, 5, 1), today); got != 0 {
		t.Errorf("DaysUntil past date = %d, want 0", got)
	}
}
