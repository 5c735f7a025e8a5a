package prompt

import (
	"fmt"
	"strings"
)

// Intent routes turn-specific behavioral instructions.
type Intent string

const (
	IntentGreeting              Intent = "greeting"
	IntentAppointmentBooking    Intent = "appointment_booking"
	IntentAppointmentReschedule Intent = "appointment_reschedule"
	IntentAppointmentCancel     Intent = "appointment_cancel"
	IntentAppointmentInquiry    Intent = "appointment_inquiry"
	IntentInsuranceInquiry      Intent = "insurance_inquiry"
	IntentBillingInquiry        Intent = "billing_inquiry"
	IntentEmergency             Intent = "emergency"
	IntentGeneralInquiry        Intent = "general_inquiry"
	IntentHumanHandoff          Intent = "human_handoff"
	IntentClosing               Intent = "closing"
)

type Provider struct {
	Name  string `mapstructure:"name"`
	Title string `mapstructure:"title"`
}

type HoursEntry struct {
	Days  string `mapstructure:"days"`
	Hours string `mapstructure:"hours"`
}

// PracticeInfo is the static per-tenant configuration injected into
// every system prompt.
type PracticeInfo struct {
	Name           string       `mapstructure:"name"`
	Phone          string       `mapstructure:"phone"`
	Address        string       `mapstructure:"address"`
	Hours          []HoursEntry `mapstructure:"hours"`
	Website        string       `mapstructure:"website"`
	Specialties    []string     `mapstructure:"specialties"`
	Providers      []Provider   `mapstructure:"providers"`
	TransferNumber string       `mapstructure:"transfer_number"`
	AssistantName  string       `mapstructure:"assistant_name"`
}

// FormatHours renders office hours for voice readout.
func (p PracticeInfo) FormatHours() string {
	if len(p.Hours) == 0 {
		return "Please call for our current hours."
	}
	lines := make([]string, 0, len(p.Hours))
	for _, h := range p.Hours {
		lines = append(lines, fmt.Sprintf("%s: %s", h.Days, h.Hours))
	}
	return strings.Join(lines, ". ")
}

func (p PracticeInfo) providerList() string {
	if len(p.Providers) == 0 {
		return ""
	}
	names := make([]string, 0, len(p.Providers))
	for _, pr := range p.Providers {
		names = append(names, fmt.Sprintf("%s (%s)", pr.Name, pr.Title))
	}
	return "Our providers include: " + strings.Join(names, ", ") + "."
}

// DefaultPracticeInfo is the fallback used when a tenant has no
// registered configuration.
func DefaultPracticeInfo() PracticeInfo {
	return PracticeInfo{
		Name:    "Your Dental Practice",
		Phone:   "(555) 123-4567",
		Address: "123 Main Street, Suite 100",
		Hours: []HoursEntry{
			{Days: "Monday-Thursday", Hours: "8 AM to 5 PM"},
			{Days: "Friday", Hours: "8 AM to 2 PM"},
			{Days: "Saturday-Sunday", Hours: "Closed"},
		},
		Specialties: []string{"General Dentistry", "Cosmetic Dentistry", "Orthodontics"},
		Providers: []Provider{
			{Name: "Dr. Smith", Title: "General Dentist"},
			{Name: "Dr. Johnson", Title: "Orthodontist"},
		},
		AssistantName: "Ava",
	}
}

// PatientContext carries verified-caller details for personalization.
// Fields beyond Verified are only rendered into prompts when Verified
// is true.
type PatientContext struct {
	Name              string
	FirstName         string
	Verified          bool
	HasUpcoming       bool
	UpcomingDate      string
	UpcomingTime      string
	UpcomingProvider  string
	BalanceDue        float64
	HasBalance        bool
	InsuranceOnFile   bool
	LastVisit         string
}
