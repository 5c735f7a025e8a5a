// Package guardrail gates every inbound caller utterance and outbound
// AI utterance against a fixed safety policy: no medical diagnoses, no
// coverage guarantees, emergency routing, identity verification before
// PHI disclosure. The engine only returns decisions; the call controller
// acts on them.
package guardrail

import (
	"regexp"
	"strings"

	"github.com/dentaldesk/voicedesk/pkg/redact"
)

// Kind identifies which policy family blocked a message.
type Kind string

const (
	KindNone              Kind = ""
	KindEmergency         Kind = "emergency"
	KindDiagnosis         Kind = "diagnosis"
	KindCoverageGuarantee Kind = "coverage_guarantee"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// CheckResult is the per-message decision. It is consumed immediately by
// the controller and never persisted.
type CheckResult struct {
	Blocked  bool
	Kind     Kind
	Message  string
	Severity Severity
}

type Warning struct {
	Type     string
	Pattern  string
	Severity Severity
}

// ResponseCheck flags problematic AI output after generation. It never
// blocks; the caller decides whether to regenerate or just log.
type ResponseCheck struct {
	Safe     bool
	Warnings []Warning
}

type VerificationResult struct {
	Verified bool
	Message  string
	Missing  []string
	Level    string
}

type TransferDecision struct {
	Transfer bool
	Reason   string
	Message  string
}

const (
	TransferReasonPatientRequest = "patient_request"
	TransferReasonLowConfidence  = "low_confidence"
	TransferReasonHighStakes     = "high_stakes_intent"
	TransferReasonRepeatTriggers = "repeated_guardrail_triggers"
	TransferReasonFrustration    = "caller_frustration"
)

// DefaultConfidenceThreshold is the floor below which the agent hands the
// call to a human regardless of intent.
const DefaultConfidenceThreshold = 0.7

var emergencyPatterns = compile(
	`(can't breathe|chest pain|heart attack|stroke|unconscious)`,
	`(severe|extreme|intense).*(pain|bleeding|swelling|infection)`,
	`(emergency|urgent|immediately|right now)`,
	`(choking|allergic reaction|anaphylaxis)`,
	`(suicide|kill myself|want to die|harm myself)`,
)

var diagnosisPatterns = compile(
	`(do i have|diagnose|diagnosis|what('s| is) wrong|what condition)`,
	`(is it|could it be|might be|probably have).*(cancer|disease|infection|virus)`,
	`(what('s| is) causing|why do i have|why am i).*(pain|symptoms|problem)`,
	`should i (take|stop taking|change).*(medication|medicine|pills|drugs)`,
	`(prescription|prescribe|medication recommendation)`,
)

var coveragePatterns = compile(
	`(will|does).*(insurance|my plan).*(cover|pay for)`,
	`how much (will|does) (my|the) insurance (cover|pay)`,
	`(guarantee|promise).*(coverage|payment|cost)`,
	`exactly how much (will i|do i have to) pay`,
)

var diagnosisIndicators = compile(
	`you (have|might have|probably have|likely have)`,
	`(this is|it sounds like|appears to be).*(condition|disease|infection)`,
	`(definitely|certainly|clearly).*(need|should|must)`,
)

var guaranteeIndicators = compile(
	`(your insurance will|we guarantee|definitely covered)`,
	`(you'll pay|your cost will be|that will cost you) \$[\d,]+`,
)

var highStakesIntents = map[string]bool{
	"emergency":          true,
	"complaint":          true,
	"legal_question":     true,
	"insurance_dispute":  true,
	"billing_dispute":    true,
	"complex_scheduling": true,
}

var blockedResponses = map[Kind]string{
	KindEmergency:         "If this is a medical emergency, please hang up and call 911 immediately, or go to your nearest emergency room. For dental emergencies during office hours, I can try to get you in for an urgent appointment. Is this a life-threatening emergency?",
	KindDiagnosis:         "I'm not able to provide medical diagnoses. I'd recommend scheduling an appointment with one of our dentists who can properly examine you and provide a professional assessment. Would you like me to help you schedule an appointment?",
	KindCoverageGuarantee: "I can't guarantee specific coverage amounts as that depends on your individual plan and circumstances. Our billing team can give you accurate estimates once they review your insurance details. Would you like me to connect you with them?",
}

// Engine is a stateless pattern matcher; per-call state lives in the
// companion SafetyMonitor.
type Engine struct {
	confidenceThreshold float64
}

func NewEngine() *Engine {
	return &Engine{confidenceThreshold: DefaultConfidenceThreshold}
}

// NewEngineWithThreshold overrides the low-confidence transfer floor.
func NewEngineWithThreshold(threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Engine{confidenceThreshold: threshold}
}

// CheckMessage classifies a caller utterance. Families are evaluated in
// strict priority order: emergency, then diagnosis, then coverage
// guarantee. The first match wins; clinical urgency outranks the rest.
func (e *Engine) CheckMessage(text string) CheckResult {
	lower := strings.ToLower(text)
	if matchAny(emergencyPatterns, lower) {
		return CheckResult{Blocked: true, Kind: KindEmergency, Message: blockedResponses[KindEmergency], Severity: SeverityHigh}
	}
	if matchAny(diagnosisPatterns, lower) {
		return CheckResult{Blocked: true, Kind: KindDiagnosis, Message: blockedResponses[KindDiagnosis], Severity: SeverityMedium}
	}
	if matchAny(coveragePatterns, lower) {
		return CheckResult{Blocked: true, Kind: KindCoverageGuarantee, Message: blockedResponses[KindCoverageGuarantee], Severity: SeverityLow}
	}
	return CheckResult{}
}

// CheckResponse scans AI-generated text for diagnosis-like or
// coverage-guarantee-like phrasing as a second line of defense.
func (e *Engine) CheckResponse(text string) ResponseCheck {
	lower := strings.ToLower(text)
	var warnings []Warning
	for _, re := range diagnosisIndicators {
		if re.MatchString(lower) {
			warnings = append(warnings, Warning{Type: "potential_diagnosis", Pattern: re.String(), Severity: SeverityMedium})
		}
	}
	for _, re := range guaranteeIndicators {
		if re.MatchString(lower) {
			warnings = append(warnings, Warning{Type: "coverage_guarantee", Pattern: re.String(), Severity: SeverityMedium})
		}
	}
	return ResponseCheck{Safe: len(warnings) == 0, Warnings: warnings}
}

// ScrubPII replaces SSN, phone, email, date-of-birth, and credit-card
// matches with typed markers. Used only before persisting or logging,
// never on text spoken back to the caller.
func (e *Engine) ScrubPII(text string) string {
	return redact.Scrub(text)
}

// ValidateIdentityVerification is the single gate components must pass
// before disclosing PHI: name first, then date of birth.
func (e *Engine) ValidateIdentityVerification(name, dob string, verified bool) VerificationResult {
	if strings.TrimSpace(name) == "" {
		return VerificationResult{
			Message: "I need your name to look up your information. What is your full name?",
			Missing: []string{"name"},
		}
	}
	if strings.TrimSpace(dob) == "" {
		return VerificationResult{
			Message: "Thank you, " + name + ". For security purposes, I also need to verify your date of birth. What is your date of birth?",
			Missing: []string{"dob"},
		}
	}
	level := "basic"
	if verified {
		level = "confirmed"
	}
	return VerificationResult{Verified: true, Level: level}
}

// ShouldTransferToHuman applies the handoff policy in order: explicit
// request, low confidence, high-stakes intent. First true condition wins.
func (e *Engine) ShouldTransferToHuman(confidence float64, intent string, explicitRequest bool) TransferDecision {
	if explicitRequest {
		return TransferDecision{
			Transfer: true,
			Reason:   TransferReasonPatientRequest,
			Message:  "Of course! I'll transfer you to our staff right away.",
		}
	}
	if confidence < e.confidenceThreshold {
		return TransferDecision{
			Transfer: true,
			Reason:   TransferReasonLowConfidence,
			Message:  "I want to make sure you get the best help. Let me transfer you to our staff who can better assist you.",
		}
	}
	if highStakesIntents[intent] {
		return TransferDecision{
			Transfer: true,
			Reason:   TransferReasonHighStakes,
			Message:  "For this matter, I'd like to connect you with our team to ensure you get the assistance you need.",
		}
	}
	return TransferDecision{}
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	matched := false
	// Every pattern is evaluated even after a hit so a bad pattern in the
	// tail can never be silently skipped.
	for _, re := range patterns {
		if re.MatchString(text) {
			matched = true
		}
	}
	return matched
}
