package reminders

import (
	"strconv"
	"strings"
	"time"

	"github.com/afyamama/afyamama/internal/platform/clock"
)

// Render substitutes `{key}` placeholders in the template text. Substitution
// is permissive: keys missing from the context stay verbatim in the message,
// so a half-filled context degrades to an awkward SMS instead of an error.
func Render(text string, context map[string]string) string {
	for key, value := range context {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text
}

// SendAt computes when a reminder composed today for an obligation on
// eventDate should leave: days_before days ahead of the event, at the
// template's send time. A send time in the past collapses to now so the
// dispatcher picks the message up on its next pass.
func SendAt(t *Template, eventDate, now time.Time) time.Time {
	day := clock.Midnight(eventDate).AddDate(0, 0, -t.DaysBefore)
	hour, minute := parseSendTime(t.SendTime)
	at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, eventDate.Location())
	if at.Before(now) {
		return now
	}
	return at
}

// parseSendTime reads "HH:MM", falling back to 09:00 on anything malformed.
func parseSendTime(s string) (hour, minute int) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return 9, 0
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 9, 0
	}
	return h, m
}
