package guardrail

import "testing"

func TestMonitorTriggerCeiling(t *testing.T) {
	m := NewSafetyMonitor(3)

	if rec := m.RecordTrigger(KindDiagnosis); rec.Transfer {
		t.Fatalf("unexpected transfer after 1 trigger")
	}
	if rec := m.RecordTrigger(KindCoverageGuarantee); rec.Transfer {
		t.Fatalf("unexpected transfer after 2 triggers")
	}
	rec := m.RecordTrigger(KindDiagnosis)
	if !rec.Transfer || rec.Reason != TransferReasonRepeatTriggers {
		t.Fatalf("expected transfer at ceiling, got %+v", rec)
	}

	// A benign follow-up never resets the recommendation.
	m.ObserveMessage("okay, can I book a cleaning instead?")
	if !m.ShouldTransfer() {
		t.Fatalf("expected monotonic transfer recommendation")
	}
}

func TestMonitorFrustrationEscalation(t *testing.T) {
	m := NewSafetyMonitor(3)

	if rec := m.ObserveMessage("this is ridiculous"); rec.Transfer {
		t.Fatalf("unexpected escalation after one match")
	}
	rec := m.ObserveMessage("I'm so frustrated with this")
	if !rec.Transfer || rec.Reason != TransferReasonFrustration {
		t.Fatalf("expected frustration escalation, got %+v", rec)
	}
	if !m.ShouldTransfer() {
		t.Fatalf("expected transfer recommendation")
	}
}

func TestMonitorCalmMessageResetsStreak(t *testing.T) {
	m := NewSafetyMonitor(3)
	m.ObserveMessage("I'm getting annoyed")
	m.ObserveMessage("actually, what are your hours?")
	if rec := m.ObserveMessage("tired of waiting though"); rec.Transfer {
		t.Fatalf("streak should have reset, got %+v", rec)
	}
}

func TestMonitorSummary(t *testing.T) {
	m := NewSafetyMonitor(2)
	m.RecordTrigger(KindEmergency)
	m.RecordTrigger(KindDiagnosis)
	s := m.Summarize()
	if s.TriggerCount != 2 || !s.RecommendTransfer {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.TriggerKinds[0] != KindEmergency || s.TriggerKinds[1] != KindDiagnosis {
		t.Fatalf("unexpected kinds %+v", s.TriggerKinds)
	}
}
