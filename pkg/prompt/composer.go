// Package prompt assembles the system prompt, greeting, and situational
// messages for the voice receptionist. Output is deterministic for a
// given practice, patient context, and clock reading.
package prompt

import (
	"fmt"
	"strings"
	"time"
)

// Composer builds prompts for one practice. The clock is injectable so
// time-of-day behavior is testable.
type Composer struct {
	practice PracticeInfo
	now      func() time.Time
}

func NewComposer(practice PracticeInfo) *Composer {
	return &Composer{practice: practice, now: time.Now}
}

// NewComposerWithClock pins the clock. Tests use this to exercise
// morning, afternoon, and evening variants.
func NewComposerWithClock(practice PracticeInfo, now func() time.Time) *Composer {
	return &Composer{practice: practice, now: now}
}

func (c *Composer) Practice() PracticeInfo { return c.practice }

// SystemPrompt produces the full behavioral prompt: identity, practice
// facts, the current clock reading, patient context when verified, the
// HIPAA rules, and an intent-specific focus section when one applies.
func (c *Composer) SystemPrompt(patient *PatientContext, intent Intent) string {
	now := c.now()
	var b strings.Builder

	fmt.Fprintf(&b, "You are a friendly and professional AI receptionist for %s.\n", c.practice.Name)
	b.WriteString("Your role is to assist callers with scheduling appointments, answering questions about the practice,\n")
	b.WriteString("and providing helpful information while maintaining HIPAA compliance.\n\n")

	b.WriteString("PRACTICE INFORMATION:\n")
	fmt.Fprintf(&b, "- Name: %s\n", c.practice.Name)
	fmt.Fprintf(&b, "- Phone: %s\n", c.practice.Phone)
	fmt.Fprintf(&b, "- Address: %s\n", c.practice.Address)
	fmt.Fprintf(&b, "- Hours: %s\n", c.practice.FormatHours())
	if p := c.practice.providerList(); p != "" {
		b.WriteString(p + "\n")
	}

	fmt.Fprintf(&b, "\nCURRENT TIME: %s\n", now.Format("Monday, January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&b, "TIME OF DAY: %s\n", timeOfDay(now))

	if patient != nil && patient.Verified {
		b.WriteString("\nCURRENT PATIENT CONTEXT:\n")
		fmt.Fprintf(&b, "- Patient Name: %s\n", patient.Name)
		b.WriteString("- Identity Verified: Yes\n")
		fmt.Fprintf(&b, "- Has Upcoming Appointment: %t\n", patient.HasUpcoming)
		if patient.HasUpcoming {
			fmt.Fprintf(&b, "- Next Appointment: %s at %s with %s\n",
				patient.UpcomingDate, patient.UpcomingTime, patient.UpcomingProvider)
		}
		if patient.HasBalance {
			fmt.Fprintf(&b, "- Balance Due: $%.2f\n", patient.BalanceDue)
		}
		fmt.Fprintf(&b, "- Insurance on File: %s\n", yesNo(patient.InsuranceOnFile))
	}

	b.WriteString(`
CORE RESPONSIBILITIES:
1. APPOINTMENT SCHEDULING
   - Help callers book, reschedule, or cancel appointments
   - Check provider availability before confirming
   - Collect necessary information (name, date of birth, contact info, reason for visit)
   - Confirm appointment details clearly

2. PATIENT INQUIRIES
   - Answer questions about office hours, location, and services
   - Provide general information about procedures (without medical advice)
   - Help with insurance and billing questions (general guidance only)
   - Transfer to appropriate staff for complex matters

3. IDENTITY VERIFICATION (REQUIRED FOR PHI)
   - Before discussing any personal health information, verify:
     a) Full name
     b) Date of birth
   - Do NOT disclose appointment details, balance, or medical info without verification

STRICT GUIDELINES - YOU MUST FOLLOW:
1. NEVER provide medical diagnoses or treatment recommendations
2. NEVER guarantee insurance coverage or specific costs
3. NEVER discuss other patients' information
4. ALWAYS verify identity before sharing PHI
5. For emergencies, direct to 911 or emergency services immediately
6. When uncertain, offer to transfer to a staff member

COMMUNICATION STYLE:
- Be warm, friendly, and professional
- Speak naturally as if having a phone conversation
- Keep responses concise (2-3 sentences for voice)
- Use the caller's name when verified
- Confirm important details by repeating them back
- End interactions positively

AVAILABLE FUNCTIONS:
You can use these functions to help callers:
- book_appointment: Schedule a new appointment
- check_availability: Check available time slots
- reschedule_appointment: Change an existing appointment
- cancel_appointment: Cancel an appointment
- lookup_patient: Find patient information (requires verification)
- get_insurance_info: Get insurance details on file
- transfer_to_human: Connect to a staff member
- end_call: End the conversation politely

Remember: You are the first point of contact for the practice. Your goal is to provide
excellent service while protecting patient privacy and ensuring appropriate care.`)

	if focus := c.IntentInstructions(intent); focus != "" {
		b.WriteString("\n\nCURRENT CONVERSATION FOCUS:\n")
		b.WriteString(focus)
	}
	return b.String()
}

// Greeting is the opening line pushed to the caller before any input.
func (c *Composer) Greeting(patient *PatientContext) string {
	greeting := timeGreeting(timeOfDay(c.now()))
	if patient != nil && patient.Verified && patient.FirstName != "" {
		return fmt.Sprintf("%s! Welcome back, %s. Thank you for calling %s. How can I help you today?",
			greeting, patient.FirstName, c.practice.Name)
	}
	name := c.practice.AssistantName
	if name == "" {
		name = "Ava"
	}
	return fmt.Sprintf("%s! Thank you for calling %s. My name is %s, your virtual dental assistant. How may I help you today?",
		greeting, c.practice.Name, name)
}

// IntentInstructions returns stepwise guidance for the detected intent,
// or empty when the intent needs no special handling.
func (c *Composer) IntentInstructions(intent Intent) string {
	switch intent {
	case IntentAppointmentBooking:
		return `The caller wants to book an appointment. Guide them through:
1. Ask what type of appointment they need (cleaning, checkup, specific concern)
2. Ask for their preferred date and time
3. Use check_availability to find open slots
4. Once a time is selected, collect/verify their information
5. Use book_appointment to schedule
6. Confirm all details before ending`
	case IntentAppointmentReschedule:
		return `The caller wants to reschedule. Steps:
1. Verify their identity (name and DOB)
2. Look up their current appointment
3. Ask for their new preferred date/time
4. Check availability
5. Use reschedule_appointment
6. Confirm the change`
	case IntentAppointmentCancel:
		return `The caller wants to cancel. Steps:
1. Verify their identity
2. Confirm which appointment they want to cancel
3. Ask if they'd like to reschedule instead
4. If they confirm cancellation, use cancel_appointment
5. Let them know they can call back anytime to reschedule`
	case IntentInsuranceInquiry:
		return `The caller has insurance questions. Remember:
- You can tell them what insurance info we have on file (after verification)
- You CANNOT guarantee coverage amounts
- You CANNOT confirm what procedures are covered
- For specific coverage questions, offer to transfer to billing staff
- You can help them update their insurance information`
	case IntentBillingInquiry:
		return `The caller has billing questions. Remember:
- After verification, you can tell them their current balance
- You CANNOT negotiate payment amounts
- You CANNOT waive fees
- For payment plans or disputes, transfer to billing staff
- You can confirm if a payment was received (general terms only)`
	case IntentEmergency:
		return `EMERGENCY DETECTED. Immediately:
1. Ask if they need to call 911 (life-threatening situations)
2. For dental emergencies during office hours, try to get them an urgent appointment
3. For after-hours dental emergencies, provide the emergency contact number
4. Stay calm and reassuring
5. If it's a medical emergency (not dental), direct to 911 or ER`
	case IntentHumanHandoff:
		return `The caller wants to speak with a human.
1. Acknowledge their request politely
2. Let them know you'll transfer them
3. Use transfer_to_human function
4. If no one is available, take a message or offer a callback`
	case IntentClosing:
		return `Ending the conversation:
1. Summarize any actions taken (appointments booked, etc.)
2. Ask if there's anything else they need
3. Thank them for calling
4. Remind them of any upcoming appointments
5. Use end_call function`
	default:
		return ""
	}
}

// VerificationPrompt returns the line for a verification step: name,
// dob, confirm, or failed.
func (c *Composer) VerificationPrompt(step string) string {
	switch step {
	case "dob":
		return "Thank you. And for verification, could you please provide your date of birth?"
	case "confirm":
		return "Thank you for verifying. I can now access your information."
	case "failed":
		return "I apologize, but I wasn't able to verify your identity with that information. Would you like to try again, or would you prefer I transfer you to our front desk staff?"
	default:
		return "To access your account information, I'll need to verify your identity. May I have your full name as it appears in our records?"
	}
}

func (c *Composer) HoldMessage() string {
	return "Let me check on that for you. This will just take a moment."
}

func (c *Composer) NoAvailabilityMessage(date string) string {
	return fmt.Sprintf("I apologize, but we don't have any availability on %s. Would you like me to check some alternative dates, or would you prefer the next available appointment?", date)
}

func (c *Composer) AppointmentConfirmation(date, timeOfSlot, provider, appointmentType string) string {
	return fmt.Sprintf("I've booked your %s appointment with %s on %s at %s. You should receive a confirmation text and email shortly. Is there anything else I can help you with?",
		appointmentType, provider, date, timeOfSlot)
}

// TransferMessage returns the line spoken before handing off. Unknown
// departments fall back to the generic staff message.
func (c *Composer) TransferMessage(department string) string {
	switch department {
	case "billing":
		return "I'll connect you with our billing department. One moment please."
	case "clinical":
		return "Let me transfer you to our clinical team. Please hold."
	case "manager":
		return "I'll connect you with a manager. Please hold while I transfer your call."
	default:
		return "I'll transfer you to one of our team members now. Please hold for just a moment."
	}
}

func (c *Composer) AfterHoursMessage() string {
	return fmt.Sprintf(`Thank you for calling %s.
Our office is currently closed. Our regular hours are %s.

If this is a dental emergency, please call our emergency line or go to your nearest emergency room.
Otherwise, I'd be happy to help you schedule an appointment for when we're open.
Would you like to book an appointment?`, c.practice.Name, c.practice.FormatHours())
}

// EmergencyResponse returns the medical variant for severity "medical"
// and the dental workflow otherwise.
func (c *Composer) EmergencyResponse(severity string) string {
	if severity == "medical" {
		return "This sounds like a medical emergency. Please hang up and call 911 immediately, or have someone take you to the nearest emergency room right away."
	}
	return fmt.Sprintf(`I understand this is urgent. For dental emergencies, here's what I can do:
If we're currently open, let me see if we can get you in for an emergency appointment today.
If this is after hours, our emergency line is %s.

Can you tell me briefly what's happening so I can help you appropriately?`, c.practice.Phone)
}

func (c *Composer) ClosingMessage(patientName string, appointmentBooked bool) string {
	namePart := ""
	if patientName != "" {
		namePart = ", " + patientName
	}
	if appointmentBooked {
		return fmt.Sprintf("You're all set%s! We look forward to seeing you. If you have any questions before your appointment, don't hesitate to call. Have a great day!", namePart)
	}
	return fmt.Sprintf("Thank you for calling %s%s. Have a wonderful day, and we hope to see you soon!", c.practice.Name, namePart)
}

func timeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

func timeGreeting(timeOfDay string) string {
	switch timeOfDay {
	case "morning":
		return "Good morning"
	case "afternoon":
		return "Good afternoon"
	case "evening":
		return "Good evening"
	default:
		return "Hello"
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
