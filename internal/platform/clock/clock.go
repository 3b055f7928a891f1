// Package clock abstracts "today" so that date-driven scheduling logic can be
// exercised against fixed dates in tests and against wall time in production.
package clock

import "time"

// Clock supplies the current civil date and instant.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// System is a Clock backed by the wall clock, in the given location.
type System struct {
	loc *time.Location
}

// NewSystem returns a wall-clock Clock. A nil location defaults to time.Local.
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.Local
	}
	return &System{loc: loc}
}

func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

// Today returns midnight of the current day.
func (s *System) Today() time.Time {
	return Midnight(s.Now())
}

// Fixed is a Clock pinned to a single instant.
type Fixed struct {
	T time.Time
}

// NewFixed returns a Clock that always reports t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{T: t}
}

func (f *Fixed) Now() time.Time { return f.T }

func (f *Fixed) Today() time.Time { return Midnight(f.T) }

// Midnight truncates t to the start of its day, preserving the location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same civil date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
