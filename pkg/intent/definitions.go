package intent

import (
	"fmt"
	"strings"
)

// Canonical intent labels. These feed the transfer policy, so the
// classifier must never invent labels outside this set.
const (
	ScheduleAppointment   = "schedule_appointment"
	RescheduleAppointment = "reschedule_appointment"
	CancelAppointment     = "cancel_appointment"
	CheckInsurance        = "check_insurance"
	BillingInquiry        = "billing_inquiry"
	Emergency             = "emergency"
	SpeakToHuman          = "speak_to_human"
	GeneralInquiry        = "general_inquiry"
)

type definition struct {
	description string
	examples    []string
}

var definitions = map[string]definition{
	ScheduleAppointment: {
		description: "Patient wants to schedule a new appointment",
		examples: []string{
			"I'd like to schedule a cleaning",
			"Can I make an appointment for next week",
			"I need to see the dentist",
		},
	},
	RescheduleAppointment: {
		description: "Patient wants to change existing appointment",
		examples: []string{
			"I need to reschedule my appointment",
			"Can we move my appointment to a different day",
			"I can't make it on Tuesday, can we change it",
		},
	},
	CancelAppointment: {
		description: "Patient wants to cancel appointment",
		examples: []string{
			"I need to cancel my appointment",
			"Please cancel my visit",
			"I won't be able to come in",
		},
	},
	CheckInsurance: {
		description: "Patient has insurance questions",
		examples: []string{
			"Do you accept my insurance",
			"What's my coverage",
			"Is this procedure covered",
		},
	},
	BillingInquiry: {
		description: "Patient has billing questions",
		examples: []string{
			"I have a question about my bill",
			"How much do I owe",
			"Can I set up a payment plan",
		},
	},
	Emergency: {
		description: "Patient has a dental emergency",
		examples: []string{
			"I'm in severe pain",
			"My tooth broke",
			"It's an emergency",
		},
	},
	SpeakToHuman: {
		description: "Patient wants to speak to a person",
		examples: []string{
			"Can I speak to someone",
			"Transfer me to a person",
			"I want to talk to a human",
		},
	},
}

// intentOrder pins the prompt layout so classification requests are
// byte-stable across runs.
var intentOrder = []string{
	ScheduleAppointment,
	RescheduleAppointment,
	CancelAppointment,
	CheckInsurance,
	BillingInquiry,
	Emergency,
	SpeakToHuman,
}

func knownIntent(label string) bool {
	if label == GeneralInquiry {
		return true
	}
	_, ok := definitions[label]
	return ok
}

func describeIntents() string {
	var b strings.Builder
	for _, key := range intentOrder {
		def := definitions[key]
		fmt.Fprintf(&b, "  - %s: %s\n    Examples:\n", key, def.description)
		for _, ex := range def.examples {
			fmt.Fprintf(&b, "    - %s\n", ex)
		}
	}
	return b.String()
}

var requiresHuman = map[string]bool{
	Emergency:    true,
	SpeakToHuman: true,
}

var suggestedResponses = map[string]string{
	ScheduleAppointment:   "I'd be happy to help you schedule an appointment. What day works best for you?",
	RescheduleAppointment: "Of course, I can help you reschedule. When would you like to move your appointment to?",
	CancelAppointment:     "I can help you cancel your appointment. Can you confirm the date of the appointment you'd like to cancel?",
	CheckInsurance:        "I can look into your insurance coverage. What is your insurance provider?",
	BillingInquiry:        "I can help with billing questions. Can you provide your patient ID or date of birth?",
	Emergency:             "I'm transferring you to our emergency line right away. Please hold.",
	SpeakToHuman:          "Let me connect you with one of our team members. Please hold.",
	GeneralInquiry:        "I'd be happy to help. Could you provide more details about your question?",
}

// SuggestedResponse returns the canned line for an intent, falling back
// to the general inquiry line for unknown labels.
func SuggestedResponse(label string) string {
	if r, ok := suggestedResponses[label]; ok {
		return r
	}
	return suggestedResponses[GeneralInquiry]
}

// RequiresHuman reports whether the intent always routes to staff.
func RequiresHuman(label string) bool {
	return requiresHuman[label]
}
