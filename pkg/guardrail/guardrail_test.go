package guardrail

import (
	"strings"
	"testing"
)

func TestCheckMessageEmergencyPriority(t *testing.T) {
	e := NewEngine()
	// Matches both emergency and diagnosis families; emergency must win.
	res := e.CheckMessage("I think I have a severe infection, what's wrong with me?")
	if !res.Blocked {
		t.Fatalf("expected blocked")
	}
	if res.Kind != KindEmergency {
		t.Fatalf("expected emergency, got %s", res.Kind)
	}
	if res.Severity != SeverityHigh {
		t.Fatalf("expected high severity, got %s", res.Severity)
	}
	if res.Message == "" {
		t.Fatalf("expected canned response")
	}
}

func TestCheckMessageDiagnosis(t *testing.T) {
	e := NewEngine()
	res := e.CheckMessage("Can you diagnose what this spot on my gums is?")
	if !res.Blocked || res.Kind != KindDiagnosis {
		t.Fatalf("expected diagnosis block, got %+v", res)
	}
	if res.Severity != SeverityMedium {
		t.Fatalf("expected medium severity, got %s", res.Severity)
	}
}

func TestCheckMessageCoverageGuarantee(t *testing.T) {
	e := NewEngine()
	res := e.CheckMessage("Will my insurance cover the crown?")
	if !res.Blocked || res.Kind != KindCoverageGuarantee {
		t.Fatalf("expected coverage block, got %+v", res)
	}
	if res.Severity != SeverityLow {
		t.Fatalf("expected low severity, got %s", res.Severity)
	}
}

func TestCheckMessagePassThrough(t *testing.T) {
	e := NewEngine()
	for _, msg := range []string{
		"I want to schedule a cleaning next Tuesday morning",
		"What are your office hours?",
		"",
	} {
		res := e.CheckMessage(msg)
		if res.Blocked {
			t.Fatalf("expected %q to pass, got %+v", msg, res)
		}
		if res.Kind != KindNone {
			t.Fatalf("expected no kind, got %s", res.Kind)
		}
	}
}

func TestCheckResponseFlagsDiagnosisPhrasing(t *testing.T) {
	e := NewEngine()
	check := e.CheckResponse("You probably have a gum infection and definitely need antibiotics")
	if check.Safe {
		t.Fatalf("expected unsafe response")
	}
	if len(check.Warnings) == 0 {
		t.Fatalf("expected warnings")
	}
}

func TestCheckResponseSafe(t *testing.T) {
	e := NewEngine()
	check := e.CheckResponse("We have openings Tuesday at 9 AM and 10:30 AM. Which works best?")
	if !check.Safe || len(check.Warnings) != 0 {
		t.Fatalf("expected safe response, got %+v", check)
	}
}

func TestScrubPIIIdempotent(t *testing.T) {
	e := NewEngine()
	in := "My SSN is 123-45-6789 and my email is jane@example.com"
	once := e.ScrubPII(in)
	if once == in {
		t.Fatalf("expected scrubbing")
	}
	if e.ScrubPII(once) != once {
		t.Fatalf("expected idempotent scrub")
	}
	if strings.Contains(once, "123-45-6789") {
		t.Fatalf("ssn leaked: %q", once)
	}
}

func TestValidateIdentityVerificationStepwise(t *testing.T) {
	e := NewEngine()

	res := e.ValidateIdentityVerification("", "", false)
	if res.Verified || len(res.Missing) != 1 || res.Missing[0] != "name" {
		t.Fatalf("expected name missing, got %+v", res)
	}

	res = e.ValidateIdentityVerification("Jane Doe", "", false)
	if res.Verified || len(res.Missing) != 1 || res.Missing[0] != "dob" {
		t.Fatalf("expected dob missing, got %+v", res)
	}

	res = e.ValidateIdentityVerification("Jane Doe", "01/15/1985", false)
	if !res.Verified || res.Level != "basic" {
		t.Fatalf("expected basic verification, got %+v", res)
	}

	res = e.ValidateIdentityVerification("Jane Doe", "01/15/1985", true)
	if !res.Verified || res.Level != "confirmed" {
		t.Fatalf("expected confirmed verification, got %+v", res)
	}
}

func TestShouldTransferToHuman(t *testing.T) {
	e := NewEngine()

	d := e.ShouldTransferToHuman(0.9, "schedule_appointment", true)
	if !d.Transfer || d.Reason != TransferReasonPatientRequest {
		t.Fatalf("expected explicit request transfer, got %+v", d)
	}

	d = e.ShouldTransferToHuman(0.5, "general_inquiry", false)
	if !d.Transfer || d.Reason != TransferReasonLowConfidence {
		t.Fatalf("expected low confidence transfer, got %+v", d)
	}

	d = e.ShouldTransferToHuman(0.9, "billing_dispute", false)
	if !d.Transfer || d.Reason != TransferReasonHighStakes {
		t.Fatalf("expected high stakes transfer, got %+v", d)
	}

	d = e.ShouldTransferToHuman(0.9, "schedule_appointment", false)
	if d.Transfer {
		t.Fatalf("expected no transfer, got %+v", d)
	}
}
