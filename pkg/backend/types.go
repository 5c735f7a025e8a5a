// Package backend defines the practice-management collaborators the
// voice agent depends on: patient directory, provider schedules, the
// approval queue, and the hybrid voice+web registration flow.
package backend

import "time"

type Patient struct {
	ID        string
	FirstName string
	LastName  string
	DOB       string
	Phone     string
}

func (p Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// DayHours is a provider's working window for one weekday, as local
// clock times ("08:00", "17:00").
type DayHours struct {
	Start string `mapstructure:"start" json:"start"`
	End   string `mapstructure:"end" json:"end"`
}

// Provider keys WorkingHours by lowercase weekday name ("monday").
type Provider struct {
	ID           string
	Name         string
	WorkingHours map[string]DayHours
	Active       bool
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

type Appointment struct {
	ID           string
	PatientID    string
	ProviderID   string
	ProviderName string
	Start        time.Time
	End          time.Time
	Duration     int
	Type         string
	Status       AppointmentStatus
	Notes        string
}

// ApprovalAction distinguishes what the pending approval would do.
type ApprovalAction string

const (
	ActionCreate     ApprovalAction = "create"
	ActionReschedule ApprovalAction = "reschedule"
	ActionCancel     ApprovalAction = "cancel"
)

// Approval is a staff-review request. The voice agent never mutates the
// schedule directly; every change lands here as a pending record.
type Approval struct {
	ID         string
	TenantID   string
	EntityType string
	EntityID   string
	AfterState map[string]any
	Rationale  string
	Status     string
	CreatedAt  time.Time
}

// RegistrationStage values reported by the practice backend.
const (
	StageVoiceIntake    = "voice_intake"
	StageSMSSent        = "sms_sent"
	StageFormStarted    = "form_started"
	StageFormIncomplete = "form_incomplete"
)

type RegistrationStatus struct {
	Active bool
	Stage  string
}

// RegistrationIntake is the voice-collected subset of a new patient
// record. The rest is filled in on the web form.
type RegistrationIntake struct {
	Phone          string
	FirstName      string
	LastName       string
	DateOfBirth    string
	ReasonForVisit string
	CallID         string
	AgentID        string
}

type RegistrationResult struct {
	TokenID string
	URL     string
}
