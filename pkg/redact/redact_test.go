package redact

import (
	"strings"
	"testing"
)

func TestScrubTypedMarkers(t *testing.T) {
	in := "SSN 123-45-6789, call 555-123-4567, mail a@b.com, born 01/15/1985, card 4111-1111-1111-1111"
	got := Scrub(in)
	for _, want := range []string{
		"[SSN_REDACTED]",
		"[PHONE_REDACTED]",
		"[EMAIL_REDACTED]",
		"[DOB_REDACTED]",
		"[CREDIT_CARD_REDACTED]",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output, got %q", want, got)
		}
	}
}

func TestScrubIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"no pii here",
		"SSN 123-45-6789 and phone 555-123-4567",
		"card 4111 1111 1111 1111 email a@b.com dob 12/31/99",
	}
	for _, in := range inputs {
		once := Scrub(in)
		twice := Scrub(once)
		if once != twice {
			t.Fatalf("scrub not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestScrubLeavesPlainTextAlone(t *testing.T) {
	in := "I want to schedule a cleaning next Tuesday morning"
	if got := Scrub(in); got != in {
		t.Fatalf("expected no changes, got %q", got)
	}
}

func TestTextHonorsToggle(t *testing.T) {
	SetEnabled(false)
	in := "reach me at 555-123-4567"
	if got := Text(in); got != in {
		t.Fatalf("expected no redaction when disabled, got %q", got)
	}
	SetEnabled(true)
	if got := Text(in); !strings.Contains(got, "[PHONE_REDACTED]") {
		t.Fatalf("expected phone redacted, got %q", got)
	}
}
