package backend

import (
	"context"
	"strings"
	"time"
)

// Directory is the read/write surface over practice data. Production
// wires the practice-management API; tests use the in-memory variant.
type Directory interface {
	// FindPatient matches by fuzzy name and, when dob is non-empty, exact
	// date of birth. Returns nil when no patient matches.
	FindPatient(ctx context.Context, tenantID, name, dob string) (*Patient, error)
	// DefaultProvider returns the tenant's first active provider, or nil.
	DefaultProvider(ctx context.Context, tenantID string) (*Provider, error)
	// AppointmentsOn lists non-cancelled appointments for a provider on
	// one calendar day, ordered by start time.
	AppointmentsOn(ctx context.Context, tenantID, providerID string, day time.Time) ([]Appointment, error)
	// FindAppointmentByDate returns the patient's latest active
	// appointment on the given day, or today's when day is zero.
	FindAppointmentByDate(ctx context.Context, tenantID, patientID string, day time.Time) (*Appointment, error)
	// CreateApproval enqueues a pending schedule change for staff review.
	CreateApproval(ctx context.Context, approval Approval) error
	// HasInsurance reports whether any policy is on file for the patient.
	HasInsurance(ctx context.Context, tenantID, patientID string) (bool, error)
}

// Registrar drives the hybrid voice+web registration flow on the
// practice backend.
type Registrar interface {
	CreateRegistration(ctx context.Context, tenantID string, intake RegistrationIntake) (RegistrationResult, error)
	RegistrationStatus(ctx context.Context, tenantID, phone string) (RegistrationStatus, error)
	ResendRegistrationLink(ctx context.Context, tenantID, phone string) error
}

// SplitName breaks a spoken full name into first/last. Middle tokens
// fold into the last name so "Mary Jo Smith" matches "Jo Smith".
func SplitName(name string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) == 0 {
		return "", ""
	}
	first = parts[0]
	if len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	return first, last
}

// NormalizePhone coerces spoken digits into E.164, assuming US numbers
// for bare 10-digit strings.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 10 {
		return "+1" + d
	}
	if strings.HasPrefix(strings.TrimSpace(phone), "+") {
		return "+" + d
	}
	if d == "" {
		return ""
	}
	return "+" + d
}

// ParseDate accepts the date shapes callers produce: ISO, US slashed,
// and long-form month names.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layouts := []string{
		"2006-01-02",
		"01/02/2006",
		"1/2/2006",
		"January 2, 2006",
		"January 2 2006",
		"Jan 2, 2006",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
