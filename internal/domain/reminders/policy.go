package reminders

import "time"

// DedupPolicy decides when a kind may be sent again for the same obligation.
// Permanent kinds fire once per obligation, ever. Cooldown kinds may repeat
// after the window elapses.
type DedupPolicy struct {
	Permanent bool
	Cooldown  time.Duration
}

var policies = map[string]DedupPolicy{
	KindANCUpcoming:     {Permanent: true},
	KindANCToday:        {Permanent: true},
	KindVaccineUpcoming: {Permanent: true},
	KindVaccineToday:    {Permanent: true},
	KindPNCUpcoming:     {Permanent: true},

	KindANCMissed:     {Cooldown: 7 * 24 * time.Hour},
	KindVaccineMissed: {Cooldown: 7 * 24 * time.Hour},
	KindDangerSigns:   {Cooldown: 7 * 24 * time.Hour},

	// Weekly nudge from week 38, escalating to every 2 days past week 40.
	KindDeliveryApproaching: {Cooldown: 7 * 24 * time.Hour},
	KindOverduePregnancy:    {Cooldown: 2 * 24 * time.Hour},
}

// PolicyFor returns the dedup policy for a kind. Unknown kinds get a
// once-ever policy, the safe default.
func PolicyFor(kind string) DedupPolicy {
	if p, ok := policies[kind]; ok {
		return p
	}
	return DedupPolicy{Permanent: true}
}
