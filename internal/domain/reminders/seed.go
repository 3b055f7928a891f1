package reminders

// DefaultTemplates is the shipped template set, one per kind. The seed
// command loads these; facilities edit the texts afterwards through the API.
func DefaultTemplates() []Template {
	return []Template{
		{
			Kind:            KindANCUpcoming,
			Name:            "ANC Visit Upcoming (3 days before)",
			MessageTemplate: "Dear {name}, this is a reminder for your ANC Contact {visit_number} on {date} at {facility}. Please attend for your health and baby's wellbeing. Bring your Mother & Child booklet.",
			DaysBefore:      3,
			SendTime:        "09:00",
			Active:          true,
			Description:     "Sent 3 days before scheduled ANC visit",
		},
		{
			Kind:            KindANCToday,
			Name:            "ANC Visit Today",
			MessageTemplate: "Dear {name}, your ANC Contact {visit_number} is scheduled TODAY at {facility}. Please attend. For any issues, contact {facility}. Stay healthy!",
			DaysBefore:      0,
			SendTime:        "08:00",
			Active:          true,
			Description:     "Sent on the day of ANC visit",
		},
		{
			Kind:            KindANCMissed,
			Name:            "ANC Visit Missed (Follow-up)",
			MessageTemplate: "Dear {name}, we noticed you missed ANC Contact {visit_number} at {facility}. Your health and baby's wellbeing are important. Please visit us soon or call for rescheduling. We care about you.",
			DaysBefore:      0,
			SendTime:        "10:00",
			Active:          true,
			Description:     "Follow-up for missed ANC visit",
		},
		{
			Kind:            KindVaccineUpcoming,
			Name:            "Vaccination Upcoming (3 days before)",
			MessageTemplate: "Dear {name}, reminder: {baby_name} is due for {vaccine_name} vaccination on {date} at {facility}. Vaccines protect your baby from serious diseases. Please attend.",
			DaysBefore:      3,
			SendTime:        "09:00",
			Active:          true,
			Description:     "Sent 3 days before vaccination appointment",
		},
		{
			Kind:            KindVaccineToday,
			Name:            "Vaccination Today",
			MessageTemplate: "Dear {name}, {baby_name} is scheduled for {vaccine_name} vaccination TODAY at {facility}. Please come. Bring the vaccination card. Keep your baby healthy!",
			DaysBefore:      0,
			SendTime:        "08:00",
			Active:          true,
			Description:     "Sent on vaccination day",
		},
		{
			Kind:            KindVaccineMissed,
			Name:            "Vaccination Missed (Follow-up)",
			MessageTemplate: "Dear {name}, {baby_name} missed {vaccine_name} vaccination at {facility}. Vaccines are crucial for your baby's health. Please visit us to catch up. Call if you need help.",
			DaysBefore:      0,
			SendTime:        "10:00",
			Active:          true,
			Description:     "Follow-up for missed vaccination",
		},
		{
			Kind:            KindDeliveryApproaching,
			Name:            "Delivery Approaching (38+ weeks)",
			MessageTemplate: "Dear {name}, you are now {weeks_pregnant} weeks pregnant. Your delivery is near! Expected date: {edd}. Prepare your delivery bag and plan transport to {facility}. Come immediately if you experience labor signs.",
			DaysBefore:      0,
			SendTime:        "09:00",
			Active:          true,
			Description:     "Sent weekly from week 38 onwards",
		},
		{
			Kind:            KindOverduePregnancy,
			Name:            "Pregnancy Overdue (40+ weeks)",
			MessageTemplate: "Dear {name}, you are {weeks_pregnant} weeks pregnant (past your due date: {edd}). PLEASE VISIT {facility} IMMEDIATELY for assessment. Your and baby's safety is our priority. Come urgently or call us.",
			DaysBefore:      0,
			SendTime:        "08:00",
			Active:          true,
			Description:     "Urgent reminder for overdue pregnancy",
		},
		{
			Kind:            KindDangerSigns,
			Name:            "Danger Signs Alert",
			MessageTemplate: "Dear {name}, you were flagged with danger signs at your last visit. URGENT: Please come to {facility} immediately or call us. Your health needs immediate attention. Do not delay.",
			DaysBefore:      0,
			SendTime:        "08:00",
			Active:          true,
			Description:     "Urgent alert for danger signs",
		},
		{
			Kind:            KindPNCUpcoming,
			Name:            "Postnatal Care Upcoming",
			MessageTemplate: "Dear {name}, reminder for your postnatal check-up on {date} at {facility}. Bring {baby_name} for baby check-up too. Both mother and baby health checks are important. See you soon!",
			DaysBefore:      3,
			SendTime:        "09:00",
			Active:          true,
			Description:     "Reminder for postnatal care visit",
		},
		{
			Kind:            KindGeneral,
			Name:            "General Reminder",
			MessageTemplate: "Dear {name}, this is a reminder from {facility}. Please contact us if you need any assistance. Your health and your baby's health are our priority. Stay well!",
			DaysBefore:      0,
			SendTime:        "09:00",
			Active:          true,
			Description:     "Generic template for custom messages",
		},
	}
}
