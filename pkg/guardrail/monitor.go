package guardrail

import (
	"strings"
	"sync"
	"time"
)

// DefaultMaxTriggers is the per-call ceiling of blocked messages before
// the monitor unconditionally recommends a human transfer.
const DefaultMaxTriggers = 3

const frustrationCeiling = 2

var frustrationPatterns = compile(
	`(frustrated|angry|upset|annoyed|tired of)`,
	`(this is ridiculous|this is absurd|unacceptable)`,
	`(never mind|forget it|this is useless)`,
	`(let me speak to|get me a|transfer me to).*(manager|supervisor|human|person)`,
)

type Trigger struct {
	Kind Kind
	At   time.Time
}

type Recommendation struct {
	Transfer bool
	Reason   string
	Message  string
}

type Summary struct {
	TriggerCount      int
	TriggerKinds      []Kind
	FrustrationStreak int
	RecommendTransfer bool
}

// SafetyMonitor tracks cumulative guardrail triggers and frustration
// signals across one call. Its state is monotonic: once a ceiling is
// crossed the transfer recommendation never resets mid-call.
type SafetyMonitor struct {
	mu          sync.Mutex
	triggers    []Trigger
	maxTriggers int
	frustration int
	escalated   bool
}

func NewSafetyMonitor(maxTriggers int) *SafetyMonitor {
	if maxTriggers <= 0 {
		maxTriggers = DefaultMaxTriggers
	}
	return &SafetyMonitor{maxTriggers: maxTriggers}
}

// RecordTrigger notes a blocked message and returns a transfer
// recommendation once the ceiling is reached.
func (m *SafetyMonitor) RecordTrigger(kind Kind) Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, Trigger{Kind: kind, At: time.Now()})
	if len(m.triggers) >= m.maxTriggers {
		m.escalated = true
		return Recommendation{
			Transfer: true,
			Reason:   TransferReasonRepeatTriggers,
			Message:  "I've noticed you have some questions that I'm not the best equipped to answer. Let me transfer you to our staff who can better help you.",
		}
	}
	return Recommendation{}
}

// ObserveMessage tracks frustration language. Two consecutive matching
// messages escalate; a calm message resets the streak only while the
// monitor has not yet escalated.
func (m *SafetyMonitor) ObserveMessage(text string) Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if matchAny(frustrationPatterns, strings.ToLower(text)) {
		m.frustration++
	} else if !m.escalated {
		m.frustration = 0
	}
	if m.frustration >= frustrationCeiling {
		m.escalated = true
		return Recommendation{
			Transfer: true,
			Reason:   TransferReasonFrustration,
			Message:  "I understand this has been frustrating. Let me get you connected with our staff right away.",
		}
	}
	return Recommendation{}
}

// ShouldTransfer reports whether any ceiling has been crossed.
func (m *SafetyMonitor) ShouldTransfer() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.escalated || len(m.triggers) >= m.maxTriggers
}

func (m *SafetyMonitor) TriggerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.triggers)
}

func (m *SafetyMonitor) Summarize() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]Kind, 0, len(m.triggers))
	for _, t := range m.triggers {
		kinds = append(kinds, t.Kind)
	}
	return Summary{
		TriggerCount:      len(m.triggers),
		TriggerKinds:      kinds,
		FrustrationStreak: m.frustration,
		RecommendTransfer: m.escalated || len(m.triggers) >= m.maxTriggers,
	}
}

