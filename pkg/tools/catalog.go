package tools

import "github.com/dentaldesk/voicedesk/pkg/llm"

// Tool names exposed to the model. These must match the function list
// in the system prompt.
const (
	NameBookAppointment       = "book_appointment"
	NameCheckAvailability     = "check_availability"
	NameRescheduleAppointment = "reschedule_appointment"
	NameCancelAppointment     = "cancel_appointment"
	NameLookupPatient         = "lookup_patient"
	NameGetInsuranceInfo      = "get_insurance_info"
	NameCollectNewPatient     = "collect_new_patient_info"
	NameCheckRegistration     = "check_registration_status"
	NameResendRegistration    = "resend_registration_link"
	NameTransferToHuman       = "transfer_to_human"
	NameEndCall               = "end_call"
)

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

// Catalog returns the full tool list sent with every generation
// request.
func Catalog() []llm.Tool {
	return []llm.Tool{
		{
			Name:        NameBookAppointment,
			Description: "Schedule a new appointment for an existing patient. Creates a request for staff confirmation.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"patient_name":     stringProp("Patient's full name"),
					"patient_dob":      stringProp("Patient's date of birth"),
					"appointment_type": stringProp("Type of visit, e.g. cleaning, checkup, filling"),
					"preferred_date":   stringProp("Requested date, e.g. 2025-03-10 or March 10, 2025"),
					"preferred_time":   stringProp("Requested time of day, e.g. morning, 2:00 PM"),
					"notes":            stringProp("Anything the patient mentioned about the visit"),
				},
				"required": []string{"patient_name", "appointment_type", "preferred_date"},
			},
		},
		{
			Name:        NameCheckAvailability,
			Description: "List open appointment slots on a date.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date":             stringProp("Date to check"),
					"appointment_type": stringProp("Type of visit"),
				},
				"required": []string{"date"},
			},
		},
		{
			Name:        NameRescheduleAppointment,
			Description: "Move an existing appointment to a new date or time. Requires patient name and date of birth.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"patient_name": stringProp("Patient's full name"),
					"patient_dob":  stringProp("Patient's date of birth"),
					"current_date": stringProp("Date of the appointment being moved"),
					"new_date":     stringProp("Requested new date"),
					"new_time":     stringProp("Requested new time"),
				},
				"required": []string{"patient_name", "patient_dob", "new_date"},
			},
		},
		{
			Name:        NameCancelAppointment,
			Description: "Cancel an existing appointment. Requires patient name and date of birth.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"patient_name":     stringProp("Patient's full name"),
					"patient_dob":      stringProp("Patient's date of birth"),
					"appointment_date": stringProp("Date of the appointment to cancel"),
					"reason":           stringProp("Why the patient is cancelling"),
				},
				"required": []string{"patient_name", "patient_dob"},
			},
		},
		{
			Name:        NameLookupPatient,
			Description: "Find a patient record by name and date of birth. Verifies the caller's identity on success.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"patient_name": stringProp("Patient's full name"),
					"patient_dob":  stringProp("Patient's date of birth"),
				},
				"required": []string{"patient_name", "patient_dob"},
			},
		},
		{
			Name:        NameGetInsuranceInfo,
			Description: "Report whether insurance is on file for a verified patient. Identity must be verified first.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"patient_name":   stringProp("Patient's full name"),
					"patient_dob":    stringProp("Patient's date of birth"),
					"procedure_type": stringProp("Procedure the patient is asking about"),
				},
				"required": []string{"patient_name", "patient_dob"},
			},
		},
		{
			Name:        NameCollectNewPatient,
			Description: "Start new patient registration: collect name, date of birth, and phone, then text a secure link to finish online.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"first_name":       stringProp("Patient's first name"),
					"last_name":        stringProp("Patient's last name"),
					"date_of_birth":    stringProp("Patient's date of birth"),
					"phone":            stringProp("Mobile number for the registration link"),
					"reason_for_visit": stringProp("Why the patient wants to come in"),
				},
				"required": []string{"first_name", "last_name", "date_of_birth", "phone"},
			},
		},
		{
			Name:        NameCheckRegistration,
			Description: "Check whether a phone number has a pending registration.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"phone": stringProp("Phone number to check"),
				},
				"required": []string{"phone"},
			},
		},
		{
			Name:        NameResendRegistration,
			Description: "Resend the registration link text message.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"phone": stringProp("Phone number to resend to"),
				},
				"required": []string{"phone"},
			},
		},
		{
			Name:        NameTransferToHuman,
			Description: "Connect the caller to a staff member.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reason":     stringProp("Why the caller needs a human"),
					"department": stringProp("staff, billing, clinical, or manager"),
				},
			},
		},
		{
			Name:        NameEndCall,
			Description: "End the call politely once the caller is done.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reason": stringProp("Why the call is ending"),
				},
			},
		},
	}
}
