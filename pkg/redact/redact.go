package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

type pattern struct {
	re     *regexp.Regexp
	marker string
}

// Ordered so that longer digit runs (card numbers) are claimed before the
// shorter phone/SSN shapes can partially match them.
var patterns = []pattern{
	{regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`), "[CREDIT_CARD_REDACTED]"},
	{regexp.MustCompile(`\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`), "[SSN_REDACTED]"},
	{regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`), "[PHONE_REDACTED]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[EMAIL_REDACTED]"},
	{regexp.MustCompile(`\b(0[1-9]|1[0-2])[-/](0[1-9]|[12]\d|3[01])[-/](\d{2}|\d{4})\b`), "[DOB_REDACTED]"},
}

// SetEnabled toggles PII redaction for log output.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled returns true when log redaction is active.
func Enabled() bool {
	return enabled.Load()
}

// Scrub replaces SSN, credit-card, phone, email, and date-of-birth matches
// with typed markers. It is idempotent: markers contain no digits, so a
// second pass finds nothing to replace.
func Scrub(in string) string {
	if strings.TrimSpace(in) == "" {
		return in
	}
	out := in
	for _, p := range patterns {
		out = p.re.ReplaceAllString(out, p.marker)
	}
	return out
}

// Text scrubs PII when log redaction is enabled, used on log and persistence
// paths only. Text spoken back to the caller is never redacted.
func Text(in string) string {
	if !enabled.Load() {
		return in
	}
	return Scrub(in)
}
