package intent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dentaldesk/voicedesk/pkg/llm"
)

type stubAdapter struct {
	text string
	err  error
}

func (s *stubAdapter) Generate(ctx context.Context, input llm.Context) (llm.Response, error) {
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Text: s.text}, nil
}

func (s *stubAdapter) Stream(ctx context.Context, input llm.Context) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

func (s *stubAdapter) Name() string { return "stub" }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassifyLLMPath(t *testing.T) {
	adapter := &stubAdapter{text: `{
		"intent": "schedule_appointment",
		"confidence": 0.92,
		"entities": [
			{"type": "procedure_type", "value": "cleaning", "confidence": 0.9},
			{"type": "date_reference", "value": "next_week", "confidence": 0.8}
		],
		"reasoning": "caller asked to book a cleaning"
	}`}
	c := NewClassifier(adapter, quietLogger())

	got := c.Classify(context.Background(), "I'd like to book a cleaning next week", nil)
	if got.Source != SourceLLM {
		t.Fatalf("expected llm source, got %s", got.Source)
	}
	if got.Intent != ScheduleAppointment || got.Confidence != 0.92 {
		t.Fatalf("unexpected classification %+v", got)
	}
	if got.Entities["procedure_type"] != "cleaning" {
		t.Fatalf("missing entity: %+v", got.Entities)
	}
	if got.RequiresHuman {
		t.Fatalf("scheduling must not require human")
	}
}

func TestClassifyFallsBackOnAdapterError(t *testing.T) {
	c := NewClassifier(&stubAdapter{err: errors.New("provider down")}, quietLogger())

	got := c.Classify(context.Background(), "I need to cancel my appointment", nil)
	if got.Source != SourceKeyword {
		t.Fatalf("expected keyword fallback, got %s", got.Source)
	}
	if got.Intent != CancelAppointment {
		t.Fatalf("expected cancel intent, got %s", got.Intent)
	}
	if got.Confidence != FallbackConfidence {
		t.Fatalf("expected fallback confidence, got %f", got.Confidence)
	}
}

func TestClassifyFallsBackOnBadJSON(t *testing.T) {
	c := NewClassifier(&stubAdapter{text: "sorry, I cannot help with that"}, quietLogger())
	got := c.Classify(context.Background(), "can I book an appointment", nil)
	if got.Source != SourceKeyword || got.Intent != ScheduleAppointment {
		t.Fatalf("expected keyword schedule fallback, got %+v", got)
	}
}

func TestClassifyRejectsUnknownLabel(t *testing.T) {
	c := NewClassifier(&stubAdapter{text: `{"intent": "order_pizza", "confidence": 0.99}`}, quietLogger())
	got := c.Classify(context.Background(), "what are your hours", nil)
	if got.Source != SourceKeyword || got.Intent != GeneralInquiry {
		t.Fatalf("unknown label must degrade to keywords, got %+v", got)
	}
}

func TestClassifyStripsMarkdownFence(t *testing.T) {
	c := NewClassifier(&stubAdapter{text: "```json\n{\"intent\": \"emergency\", \"confidence\": 0.97, \"reasoning\": \"pain\"}\n```"}, quietLogger())
	got := c.Classify(context.Background(), "my tooth is killing me", nil)
	if got.Source != SourceLLM || got.Intent != Emergency {
		t.Fatalf("expected llm emergency, got %+v", got)
	}
	if !got.RequiresHuman {
		t.Fatalf("emergency requires human")
	}
}

func TestKeywordPriorityOrder(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"I'm in pain and need to cancel", Emergency},
		{"cancel my cleaning appointment", CancelAppointment},
		{"can we move my appointment", RescheduleAppointment},
		{"do you accept Delta Dental", CheckInsurance},
		{"how much do I owe", BillingInquiry},
		{"get me a person", SpeakToHuman},
		{"what are your hours", GeneralInquiry},
	}
	for _, tc := range cases {
		if got := keywordIntent(tc.message); got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.message, tc.want, got)
		}
	}
}

func TestKeywordEntities(t *testing.T) {
	got := keywordEntities("I want a cleaning tomorrow morning")
	if got["procedure_type"] != "cleaning" || got["date_reference"] != "tomorrow" || got["time_preference"] != "morning" {
		t.Fatalf("unexpected entities %+v", got)
	}
}

func TestNilAdapterUsesKeywords(t *testing.T) {
	c := NewClassifier(nil, quietLogger())
	got := c.Classify(context.Background(), "book me in", nil)
	if got.Source != SourceKeyword {
		t.Fatalf("expected keyword source, got %s", got.Source)
	}
}
