// Package tools implements the functions the model can invoke during a
// call. Every schedule change goes through the approval queue; nothing
// here writes to the practice calendar directly.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/dentaldesk/voicedesk/pkg/backend"
	"github.com/dentaldesk/voicedesk/pkg/errorsx"
	"github.com/dentaldesk/voicedesk/pkg/llm"
	"github.com/dentaldesk/voicedesk/pkg/notify"
)

// Session is the per-call state the dispatcher reads and updates. The
// call session type implements it.
type Session interface {
	TenantID() string
	CallID() string
	AgentID() string
	Verified() bool
	MarkVerified(patientID, patientName string)
}

// Result is the structured outcome handed back to the model. EndCall
// and Transfer are terminal signals the controller acts on directly.
type Result struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	Data           map[string]any `json:"data,omitempty"`
	EndCall        bool           `json:"-"`
	Transfer       bool           `json:"-"`
	TransferReason string         `json:"-"`
	Department     string         `json:"-"`
}

type Dispatcher struct {
	directory backend.Directory
	registrar backend.Registrar
	sms       notify.Sender
	logger    *slog.Logger

	// PracticeName resolves a tenant's display name for SMS copy.
	PracticeName func(tenantID string) string

	now   func() time.Time
	newID func() string
}

func NewDispatcher(directory backend.Directory, registrar backend.Registrar, sms notify.Sender, logger *slog.Logger) *Dispatcher {
	if sms == nil {
		sms = notify.NoopSender{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		directory:    directory,
		registrar:    registrar,
		sms:          sms,
		logger:       logger,
		PracticeName: func(string) string { return "Your Dental Practice" },
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

func (d *Dispatcher) Tools() []llm.Tool { return Catalog() }

// Handle routes one tool invocation. Unknown names and undecodable
// arguments are errors; domain outcomes (patient not found, day full)
// are successful Results the model phrases back to the caller.
func (d *Dispatcher) Handle(ctx context.Context, name string, args map[string]any, sess Session) (Result, error) {
	switch name {
	case NameBookAppointment:
		return d.bookAppointment(ctx, args, sess)
	case NameCheckAvailability:
		return d.checkAvailability(ctx, args, sess)
	case NameRescheduleAppointment:
		return d.rescheduleAppointment(ctx, args, sess)
	case NameCancelAppointment:
		return d.cancelAppointment(ctx, args, sess)
	case NameLookupPatient:
		return d.lookupPatient(ctx, args, sess)
	case NameGetInsuranceInfo:
		return d.getInsuranceInfo(ctx, args, sess)
	case NameCollectNewPatient:
		return d.collectNewPatient(ctx, args, sess)
	case NameCheckRegistration:
		return d.checkRegistration(ctx, args, sess)
	case NameResendRegistration:
		return d.resendRegistration(ctx, args, sess)
	case NameTransferToHuman:
		return d.transferToHuman(args)
	case NameEndCall:
		return Result{Success: true, Message: "Call ended.", EndCall: true}, nil
	default:
		return Result{}, errorsx.Wrap(fmt.Errorf("no handler for %q", name), errorsx.ReasonToolUnknown)
	}
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonToolBadArgument)
	}
	if err := dec.Decode(args); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonToolBadArgument)
	}
	return nil
}

func requireFields(pairs map[string]string) error {
	for field, value := range pairs {
		if strings.TrimSpace(value) == "" {
			return errorsx.Wrap(fmt.Errorf("missing %s", field), errorsx.ReasonToolBadArgument)
		}
	}
	return nil
}

type bookArgs struct {
	PatientName     string `mapstructure:"patient_name"`
	PatientDOB      string `mapstructure:"patient_dob"`
	AppointmentType string `mapstructure:"appointment_type"`
	PreferredDate   string `mapstructure:"preferred_date"`
	PreferredTime   string `mapstructure:"preferred_time"`
	Notes           string `mapstructure:"notes"`
}

func (d *Dispatcher) bookAppointment(ctx context.Context, raw map[string]any, sess Session) (Result, error) {
	var args bookArgs
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireFields(map[string]string{
		"patient_name":     args.PatientName,
		"appointment_type": args.AppointmentType,
		"preferred_date":   args.PreferredDate,
	}); err != nil {
		return Result{}, err
	}

	patient, err := d.directory.FindPatient(ctx, sess.TenantID(), args.PatientName, args.PatientDOB)
	if err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	if patient == nil {
		return Result{
			Message: fmt.Sprintf("I couldn't find a patient named %s in our system. Would you like me to help you register as a new patient, or should I transfer you to our staff?", args.PatientName),
		}, nil
	}

	date, err := backend.ParseDate(args.PreferredDate)
	if err != nil {
		return Result{Message: "I'm having trouble with that date. Could you say it again, like 'March 10th' or '2025-03-10'?"}, nil
	}

	provider, slots, unavailable, err := d.openSlots(ctx, sess.TenantID(), date)
	if err != nil {
		return Result{}, err
	}
	if unavailable != "" {
		return Result{Message: unavailable}, nil
	}
	if len(slots) == 0 {
		return Result{
			Message: fmt.Sprintf("Unfortunately, we don't have any openings on %s. Would you like me to check a different date?", args.PreferredDate),
		}, nil
	}

	selected := slots[0]
	if args.PreferredTime != "" {
		selected = MatchSlot(slots, args.PreferredTime)
	}
	start := CombineDateTime(date, selected.Time)
	end := start.Add(time.Duration(selected.Duration) * time.Minute)

	appointmentID := d.newID()
	if err := d.createApproval(ctx, sess.TenantID(), approvalInput{
		appointmentID: appointmentID,
		patientID:     patient.ID,
		providerID:    provider.ID,
		providerName:  provider.Name,
		start:         start,
		end:           end,
		duration:      selected.Duration,
		apptType:      args.AppointmentType,
		status:        string(backend.StatusScheduled),
		notes:         args.Notes,
		action:        backend.ActionCreate,
	}); err != nil {
		return Result{}, err
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("I've submitted a scheduling request for %s on %s at %s. Our team will confirm shortly.", args.PatientName, args.PreferredDate, selected.Time),
		Data: map[string]any{
			"date":                 args.PreferredDate,
			"time":                 selected.Time,
			"type":                 args.AppointmentType,
			"patient_name":         args.PatientName,
			"confirmation_pending": true,
		},
	}, nil
}

type availabilityArgs struct {
	Date            string `mapstructure:"date"`
	AppointmentType string `mapstructure:"appointment_type"`
}

func (d *Dispatcher) checkAvailability(ctx context.Context, raw map[string]any, sess Session) (Result, error) {
	var args availabilityArgs
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireFields(map[string]string{"date": args.Date}); err != nil {
		return Result{}, err
	}
	date, err := backend.ParseDate(args.Date)
	if err != nil {
		return Result{Message: "I couldn't understand that date. Could you say it again?"}, nil
	}

	provider, slots, unavailable, err := d.openSlots(ctx, sess.TenantID(), date)
	if err != nil {
		return Result{}, err
	}
	if unavailable != "" {
		return Result{Message: unavailable, Data: map[string]any{"date": args.Date, "slots": []Slot{}}}, nil
	}

	times := make([]string, 0, len(slots))
	for _, s := range slots {
		times = append(times, s.Time)
	}
	msg := fmt.Sprintf("We have %d open times on %s.", len(slots), args.Date)
	if len(slots) == 0 {
		msg = fmt.Sprintf("We're fully booked on %s.", args.Date)
	}
	return Result{
		Success: true,
		Message: msg,
		Data: map[string]any{
			"date":     args.Date,
			"provider": provider.Name,
			"slots":    times,
		},
	}, nil
}

type rescheduleArgs struct {
	PatientName string `mapstructure:"patient_name"`
	PatientDOB  string `mapstructure:"patient_dob"`
	CurrentDate string `mapstructure:"current_date"`
	NewDate     string `mapstructure:"new_date"`
	NewTime     string `mapstructure:"new_time"`
}

func (d *Dispatcher) rescheduleAppointment(ctx context.Context, raw map[string]any, sess Session) (Result, error) {
	var args rescheduleArgs
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireFields(map[string]string{
		"patient_name": args.PatientName,
		"patient_dob":  args.PatientDOB,
		"new_date":     args.NewDate,
	}); err != nil {
		return Result{}, err
	}

	patient, err := d.directory.FindPatient(ctx, sess.TenantID(), args.PatientName, args.PatientDOB)
	if err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	if patient == nil {
		return Result{Message: "I couldn't verify your patient information. Could you please confirm your date of birth?"}, nil
	}

	var currentDay time.Time
	if args.CurrentDate != "" {
		if currentDay, err = backend.ParseDate(args.CurrentDate); err != nil {
			return Result{Message: "I couldn't understand the date of your current appointment. Could you say it again?"}, nil
		}
	}
	appt, err := d.directory.FindAppointmentByDate(ctx, sess.TenantID(), patient.ID, currentDay)
	if err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	if appt == nil {
		return Result{Message: "I couldn't find the appointment you're trying to reschedule."}, nil
	}

	newDate, err := backend.ParseDate(args.NewDate)
	if err != nil {
		return Result{Message: "I couldn't understand the new date. Could you say it again?"}, nil
	}
	_, slots, unavailable, err := d.openSlots(ctx, sess.TenantID(), newDate)
	if err != nil {
		return Result{}, err
	}
	if unavailable != "" {
		return Result{Message: unavailable}, nil
	}
	if len(slots) == 0 {
		return Result{Message: fmt.Sprintf("Unfortunately, %s is fully booked. Would you like to try a different date?", args.NewDate)}, nil
	}

	selected := slots[0]
	if args.NewTime != "" {
		selected = MatchSlot(slots, args.NewTime)
	}
	start := CombineDateTime(newDate, selected.Time)
	end := start.Add(time.Duration(appt.Duration) * time.Minute)

	if err := d.createApproval(ctx, sess.TenantID(), approvalInput{
		appointmentID: appt.ID,
		patientID:     patient.ID,
		providerID:    appt.ProviderID,
		providerName:  appt.ProviderName,
		start:         start,
		end:           end,
		duration:      appt.Duration,
		apptType:      appt.Type,
		status:        string(appt.Status),
		notes:         appt.Notes,
		action:        backend.ActionReschedule,
	}); err != nil {
		return Result{}, err
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("I've submitted a reschedule request for %s at %s. Our team will confirm shortly.", args.NewDate, selected.Time),
	}, nil
}

type cancelArgs struct {
	PatientName     string `mapstructure:"patient_name"`
	PatientDOB      string `mapstructure:"patient_dob"`
	AppointmentDate string `mapstructure:"appointment_date"`
	Reason          string `mapstructure:"reason"`
}

func (d *Dispatcher) cancelAppointment(ctx context.Context, raw map[string]any, sess Session) (Result, error) {
	var args cancelArgs
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireFields(map[string]string{
		"patient_name": args.PatientName,
		"patient_dob":  args.PatientDOB,
	}); err != nil {
		return Result{}, err
	}

	patient, err := d.directory.FindPatient(ctx, sess.TenantID(), args.PatientName, args.PatientDOB)
	if err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	if patient == nil {
		return Result{Message: "I couldn't verify your information. Could you please confirm your date of birth?"}, nil
	}

	var day time.Time
	if args.AppointmentDate != "" {
		if day, err = backend.ParseDate(args.AppointmentDate); err != nil {
			return Result{Message: "I couldn't understand that date. Could you say it again?"}, nil
		}
	}
	appt, err := d.directory.FindAppointmentByDate(ctx, sess.TenantID(), patient.ID, day)
	if err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	if appt == nil {
		return Result{Message: "I couldn't find the appointment you're trying to cancel."}, nil
	}

	if err := d.createApproval(ctx, sess.TenantID(), approvalInput{
		appointmentID: appt.ID,
		patientID:     patient.ID,
		providerID:    appt.ProviderID,
		providerName:  appt.ProviderName,
		start:         appt.Start,
		end:           appt.End,
		duration:      appt.Duration,
		apptType:      appt.Type,
		status:        string(backend.StatusCancelled),
		notes:         appt.Notes,
		action:        backend.ActionCancel,
		metadata:      map[string]any{"reason": args.Reason},
	}); err != nil {
		return Result{}, err
	}

	return Result{
		Success: true,
		Message: "I've submitted a cancellation request. Our team will confirm shortly.",
	}, nil
}

type lookupArgs struct {
	PatientName string `mapstructure:"patient_name"`
	PatientDOB  string `mapstructure:"patient_dob"`
}

func (d *Dispatcher) lookupPatient(ctx context.Context, raw map[string]any, sess Session) (Result, error) {
	var args lookupArgs
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireFields(map[string]string{
		"patient_name": args.PatientName,
		"patient_dob":  args.PatientDOB,
	}); err != nil {
		return Result{}, err
	}

	patient, err := d.directory.FindPatient(ctx, sess.TenantID(), args.PatientName, args.PatientDOB)
	if err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	if patient == nil {
		return Result{
			Message: fmt.Sprintf("I couldn't find a record for %s with that date of birth. Would you like to register as a new patient, or should I transfer you to our staff to help locate your record?", args.PatientName),
			Data:    map[string]any{"found": false},
		}, nil
	}

	sess.MarkVerified(patient.ID, patient.FullName())
	return Result{
		Success: true,
		Message: fmt.Sprintf("I found your record, %s. How can I help you today?", args.PatientName),
		Data:    map[string]any{"found": true, "patient_id": patient.ID},
	}, nil
}

type insuranceArgs struct {
	PatientName   string `mapstructure:"patient_name"`
	PatientDOB    string `mapstructure:"patient_dob"`
	ProcedureType string `mapstructure:"procedure_type"`
}

func (d *Dispatcher) getInsuranceInfo(ctx context.Context, raw map[string]any, sess Session) (Result, error) {
	// PHI gate: insurance details require a verified identity, which only
	// a successful lookup_patient establishes.
	if !sess.Verified() {
		return Result{
			Message: "Before I can share insurance details, I need to verify your identity. Could you give me your full name and date of birth so I can look up your record?",
			Data:    map[string]any{"requires_verification": true},
		}, nil
	}

	var args insuranceArgs
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	patient, err := d.directory.FindPatient(ctx, sess.TenantID(), args.PatientName, args.PatientDOB)
	if err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	if patient == nil {
		return Result{Message: "I couldn't verify your insurance without confirming your patient record."}, nil
	}

	has, err := d.directory.HasInsurance(ctx, sess.TenantID(), patient.ID)
	if err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	msg := "I don't see active insurance on file. Our billing team can help update this if needed."
	if has {
		msg = "I can see insurance on file. For coverage details and estimates, our billing team can provide exact information. Would you like me to transfer you?"
	}
	return Result{
		Success: true,
		Message: msg,
		Data:    map[string]any{"has_insurance": has},
	}, nil
}

type intakeArgs struct {
	FirstName      string `mapstructure:"first_name"`
	LastName       string `mapstructure:"last_name"`
	DateOfBirth    string `mapstructure:"date_of_birth"`
	Phone          string `mapstructure:"phone"`
	ReasonForVisit string `mapstructure:"reason_for_visit"`
}

func (d *Dispatcher) collectNewPatient(ctx context.Context, raw map[string]any, sess Session) (Result, error) {
	var args intakeArgs
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireFields(map[string]string{
		"first_name":    args.FirstName,
		"last_name":     args.LastName,
		"date_of_birth": args.DateOfBirth,
		"phone":         args.Phone,
	}); err != nil {
		return Result{}, err
	}
	if _, err := backend.ParseDate(args.DateOfBirth); err != nil {
		return Result{
			Message: "I'm having trouble with that date of birth. Could you please say it again, like 'January 15th, 1985'?",
		}, nil
	}

	existing, err := d.directory.FindPatient(ctx, sess.TenantID(), args.FirstName+" "+args.LastName, args.DateOfBirth)
	if err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	if existing != nil {
		return Result{
			Message: fmt.Sprintf("It looks like %s is already in our system. Would you like to schedule an appointment instead, or should I transfer you to our staff to help with your account?", args.FirstName),
			Data:    map[string]any{"already_exists": true},
		}, nil
	}

	if d.registrar == nil {
		return Result{}, errorsx.Wrap(errors.New("registration backend not configured"), errorsx.ReasonBackendCall)
	}
	reg, err := d.registrar.CreateRegistration(ctx, sess.TenantID(), backend.RegistrationIntake{
		Phone:          args.Phone,
		FirstName:      args.FirstName,
		LastName:       args.LastName,
		DateOfBirth:    args.DateOfBirth,
		ReasonForVisit: args.ReasonForVisit,
		CallID:         sess.CallID(),
		AgentID:        sess.AgentID(),
	})
	if err != nil {
		return Result{}, err
	}

	// SMS failure is not fatal; the link can be resent later.
	body := notify.RegistrationLinkBody(d.PracticeName(sess.TenantID()), reg.URL)
	if err := d.sms.Send(ctx, backend.NormalizePhone(args.Phone), body); err != nil {
		d.logger.Warn("registration sms failed", "call_id", sess.CallID(), "error", err)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Perfect, %s! I've collected your basic information. I'm sending a text message to %s with a secure link to complete your registration. The link will let you fill in your address, medical history, and insurance info at your convenience. It expires in 24 hours. Would you like to schedule a tentative appointment now, or would you prefer to complete registration first and then call back?", args.FirstName, args.Phone),
		Data:    map[string]any{"registration_token_id": reg.TokenID},
	}, nil
}

type phoneArgs struct {
	Phone string `mapstructure:"phone"`
}

func (d *Dispatcher) checkRegistration(ctx context.Context, raw map[string]any, sess Session) (Result, error) {
	var args phoneArgs
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireFields(map[string]string{"phone": args.Phone}); err != nil {
		return Result{}, err
	}
	if d.registrar == nil {
		return Result{Success: true, Message: "No pending registration found.", Data: map[string]any{"has_pending_registration": false}}, nil
	}
	status, err := d.registrar.RegistrationStatus(ctx, sess.TenantID(), args.Phone)
	if err != nil {
		// Status lookups degrade quietly; the caller just proceeds as new.
		d.logger.Warn("registration status lookup failed", "error", err)
		status = backend.RegistrationStatus{}
	}
	if !status.Active {
		return Result{Success: true, Message: "No pending registration found.", Data: map[string]any{"has_pending_registration": false}}, nil
	}

	var msg string
	switch status.Stage {
	case backend.StageVoiceIntake, backend.StageSMSSent:
		msg = "I see we sent you a registration link earlier. Did you get a chance to complete it? I can resend the link if you'd like."
	case backend.StageFormStarted, backend.StageFormIncomplete:
		msg = "I can see you started your registration. Would you like me to resend the link so you can finish it?"
	default:
		msg = "Your registration is being processed. Our team will contact you shortly."
	}
	return Result{
		Success: true,
		Message: msg,
		Data:    map[string]any{"has_pending_registration": true, "stage": status.Stage},
	}, nil
}

func (d *Dispatcher) resendRegistration(ctx context.Context, raw map[string]any, sess Session) (Result, error) {
	var args phoneArgs
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireFields(map[string]string{"phone": args.Phone}); err != nil {
		return Result{}, err
	}
	if d.registrar == nil {
		return Result{Message: "I couldn't resend the link. Would you like to start a new registration?"}, nil
	}
	if err := d.registrar.ResendRegistrationLink(ctx, sess.TenantID(), args.Phone); err != nil {
		return Result{Message: "I couldn't resend the link. Would you like to start a new registration?"}, nil
	}
	return Result{
		Success: true,
		Message: "I've resent the registration link to your phone. You should receive it in a moment.",
	}, nil
}

func (d *Dispatcher) transferToHuman(raw map[string]any) (Result, error) {
	reason, _ := raw["reason"].(string)
	department, _ := raw["department"].(string)
	if department == "" {
		department = "staff"
	}
	return Result{
		Success:        true,
		Message:        "Transferring to staff.",
		Transfer:       true,
		TransferReason: reason,
		Department:     department,
	}, nil
}

// openSlots resolves the tenant's default provider and enumerates open
// slots. The unavailable string is a caller-facing message set when no
// provider or working hours cover the date.
func (d *Dispatcher) openSlots(ctx context.Context, tenantID string, date time.Time) (*backend.Provider, []Slot, string, error) {
	provider, err := d.directory.DefaultProvider(ctx, tenantID)
	if err != nil {
		return nil, nil, "", errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	if provider == nil {
		return nil, nil, "No providers are configured for scheduling right now.", nil
	}
	start, end, ok := WorkingWindow(provider, date)
	if !ok {
		return provider, nil, "Provider availability is not configured for that date.", nil
	}
	booked, err := d.directory.AppointmentsOn(ctx, tenantID, provider.ID, date)
	if err != nil {
		return nil, nil, "", errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	return provider, ComputeSlots(start, end, DefaultSlotDuration, booked), "", nil
}

type approvalInput struct {
	appointmentID string
	patientID     string
	providerID    string
	providerName  string
	start         time.Time
	end           time.Time
	duration      int
	apptType      string
	status        string
	notes         string
	action        backend.ApprovalAction
	metadata      map[string]any
}

func (d *Dispatcher) createApproval(ctx context.Context, tenantID string, in approvalInput) error {
	if in.apptType == "" {
		in.apptType = "treatment"
	}
	after := map[string]any{
		"id":              in.appointmentID,
		"tenantId":        tenantID,
		"patientId":       in.patientID,
		"providerId":      in.providerID,
		"provider":        in.providerName,
		"startTime":       in.start.Format(time.RFC3339),
		"endTime":         in.end.Format(time.RFC3339),
		"duration":        in.duration,
		"appointmentType": in.apptType,
		"status":          in.status,
		"notes":           in.notes,
	}
	if in.metadata != nil {
		after["metadata"] = in.metadata
	}
	err := d.directory.CreateApproval(ctx, backend.Approval{
		ID:         d.newID(),
		TenantID:   tenantID,
		EntityType: "appointment",
		EntityID:   in.appointmentID,
		AfterState: after,
		Rationale:  fmt.Sprintf("AI receptionist requested %s", in.action),
		Status:     "pending",
		CreatedAt:  d.now(),
	})
	return errorsx.Wrap(err, errorsx.ReasonBackendCall)
}
