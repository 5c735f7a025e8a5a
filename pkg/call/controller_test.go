package call

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dentaldesk/voicedesk/pkg/backend"
	"github.com/dentaldesk/voicedesk/pkg/llm"
	"github.com/dentaldesk/voicedesk/pkg/metrics"
	"github.com/dentaldesk/voicedesk/pkg/retell"
	"github.com/dentaldesk/voicedesk/pkg/session"
	"github.com/dentaldesk/voicedesk/pkg/store"
	"github.com/dentaldesk/voicedesk/pkg/tools"
)

type frameSender struct {
	frames []any
}

func (s *frameSender) Send(v any) error {
	s.frames = append(s.frames, v)
	return nil
}

func (s *frameSender) textFrames() []retell.TextResponse {
	var out []retell.TextResponse
	for _, f := range s.frames {
		if tr, ok := f.(retell.TextResponse); ok {
			out = append(out, tr)
		}
	}
	return out
}

type scriptedAdapter struct {
	responses []llm.Response
	errs      []error
	calls     int
	inputs    []llm.Context
}

func (a *scriptedAdapter) Generate(ctx context.Context, in llm.Context) (llm.Response, error) {
	a.inputs = append(a.inputs, in)
	i := a.calls
	a.calls++
	if i < len(a.errs) && a.errs[i] != nil {
		return llm.Response{}, a.errs[i]
	}
	if i < len(a.responses) {
		return a.responses[i], nil
	}
	return llm.Response{Text: "Okay."}, nil
}

func (a *scriptedAdapter) Stream(ctx context.Context, in llm.Context) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

func (a *scriptedAdapter) Name() string { return "scripted" }

type panicAdapter struct{}

func (panicAdapter) Generate(ctx context.Context, in llm.Context) (llm.Response, error) {
	panic("boom")
}

func (panicAdapter) Stream(ctx context.Context, in llm.Context) (<-chan string, error) {
	panic("boom")
}

func (panicAdapter) Name() string { return "panic" }

type fixture struct {
	handler  retell.Handler
	sender   *frameSender
	records  *store.MemoryStore
	sessions *session.Manager
	observer *metrics.MemoryObserver
	dir      *backend.MemoryDirectory
}

func newFixture(t *testing.T, adapter llm.Adapter) *fixture {
	t.Helper()
	dir := backend.NewMemoryDirectory()
	dir.AddPatient("t1", backend.Patient{ID: "p1", FirstName: "Jane", LastName: "Doe", DOB: "1985-01-15"})
	dir.AddProvider("t1", backend.Provider{
		ID: "prov1", Name: "Dr. Smith", Active: true,
		WorkingHours: map[string]backend.DayHours{
			"monday": {Start: "09:00", End: "11:00"},
		},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	records := store.NewMemoryStore()
	sessions := session.NewManager()
	observer := metrics.NewMemoryObserver()

	factory := NewHandlerFactory(Deps{
		Adapter:        adapter,
		Dispatcher:     tools.NewDispatcher(dir, nil, nil, logger),
		Records:        records,
		Sessions:       sessions,
		Logger:         logger,
		Observer:       observer,
		TransferNumber: "+15559990000",
	})
	sender := &frameSender{}
	return &fixture{
		handler:  factory("call-1", "t1", sender),
		sender:   sender,
		records:  records,
		sessions: sessions,
		observer: observer,
		dir:      dir,
	}
}

func responseRequired(id int, userMessages ...string) retell.Event {
	var transcript []retell.Utterance
	transcript = append(transcript, retell.Utterance{Role: "agent", Content: "How can I help?"})
	for _, m := range userMessages {
		transcript = append(transcript, retell.Utterance{Role: "user", Content: m})
	}
	return retell.Event{
		InteractionType: retell.InteractionResponseRequired,
		ResponseID:      id,
		Transcript:      transcript,
	}
}

func TestGreeting(t *testing.T) {
	f := newFixture(t, &scriptedAdapter{})
	g := f.handler.Greeting()
	if !strings.Contains(g, "Your Dental Practice") {
		t.Fatalf("greeting must name the practice: %q", g)
	}
}

func TestPlainTextTurn(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{{Text: "We are open until five."}}}
	f := newFixture(t, adapter)

	_ = f.handler.HandleEvent(context.Background(), responseRequired(1, "What are your hours?"))

	texts := f.sender.textFrames()
	if len(texts) != 1 {
		t.Fatalf("expected one response frame, got %d", len(texts))
	}
	if texts[0].ResponseID != 1 || !texts[0].ContentComplete || texts[0].EndCall {
		t.Fatalf("unexpected frame %+v", texts[0])
	}
	if texts[0].Content != "We are open until five." {
		t.Fatalf("unexpected content %q", texts[0].Content)
	}
	if adapter.calls != 1 {
		t.Fatalf("expected one model call, got %d", adapter.calls)
	}
}

func TestEmergencyBlockedWithoutModelCall(t *testing.T) {
	adapter := &scriptedAdapter{}
	f := newFixture(t, adapter)

	_ = f.handler.HandleEvent(context.Background(), responseRequired(1, "I'm having severe chest pain"))

	if adapter.calls != 0 {
		t.Fatalf("emergency must never reach the model, got %d calls", adapter.calls)
	}
	texts := f.sender.textFrames()
	if len(texts) != 1 {
		t.Fatalf("expected one canned response, got %d", len(texts))
	}
	if !strings.Contains(texts[0].Content, "911") {
		t.Fatalf("expected emergency guidance, got %q", texts[0].Content)
	}
}

func TestTriggerCeilingForcesTransferOnBenignTurn(t *testing.T) {
	adapter := &scriptedAdapter{}
	f := newFixture(t, adapter)

	blocked := []string{
		"do I have gum disease",
		"what is causing my pain",
		"should I stop taking my medication",
	}
	for i, msg := range blocked {
		_ = f.handler.HandleEvent(context.Background(), responseRequired(i+1, msg))
	}

	f.sender.frames = nil
	_ = f.handler.HandleEvent(context.Background(), responseRequired(4, "Can I book a cleaning next Tuesday?"))

	texts := f.sender.textFrames()
	if len(texts) != 1 {
		t.Fatalf("expected one frame, got %d", len(texts))
	}
	if texts[0].TransferNumber == "" {
		t.Fatalf("benign turn after the ceiling must still transfer: %+v", texts[0])
	}
	if adapter.calls != 0 {
		t.Fatalf("no model call expected after the ceiling, got %d", adapter.calls)
	}
}

func TestToolCallFlow(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID:   "tc-1",
			Name: tools.NameCheckAvailability,
			Arguments: map[string]any{
				"date": "2025-03-10",
			},
		}}},
		{Text: "We have nine A.M. open on Monday. Does that work?"},
	}}
	f := newFixture(t, adapter)

	_ = f.handler.HandleEvent(context.Background(), retell.Event{
		InteractionType: retell.InteractionCallDetails,
		Call:            map[string]any{"from_number": "+15551234567", "direction": "inbound"},
	})
	_ = f.handler.HandleEvent(context.Background(), responseRequired(1, "Anything open March tenth?"))

	var invocations []retell.ToolCallInvocation
	var results []retell.ToolCallResult
	for _, frame := range f.sender.frames {
		switch v := frame.(type) {
		case retell.ToolCallInvocation:
			invocations = append(invocations, v)
		case retell.ToolCallResult:
			results = append(results, v)
		}
	}
	if len(invocations) != 1 || invocations[0].Name != tools.NameCheckAvailability {
		t.Fatalf("expected one invocation, got %+v", invocations)
	}
	if len(results) != 1 || results[0].ToolCallID != invocations[0].ToolCallID {
		t.Fatalf("result must share the invocation id: %+v", results)
	}

	texts := f.sender.textFrames()
	if len(texts) != 1 || !texts[0].ContentComplete {
		t.Fatalf("expected one complete response, got %+v", texts)
	}
	if adapter.calls != 2 {
		t.Fatalf("expected tool follow-up round trip, got %d calls", adapter.calls)
	}

	// The invocation is audited.
	rec, ok := f.records.Record("t1", "call-1")
	if !ok {
		t.Fatalf("record missing")
	}
	calls := f.records.ToolCalls(rec.ID)
	if len(calls) != 1 || calls[0].ToolName != tools.NameCheckAvailability {
		t.Fatalf("tool call not audited: %+v", calls)
	}
}

func TestEndCallTerminal(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{
			Name:      tools.NameEndCall,
			Arguments: map[string]any{"message": "Thanks for calling. Goodbye!"},
		}}},
	}}
	f := newFixture(t, adapter)

	_ = f.handler.HandleEvent(context.Background(), responseRequired(1, "That's all, thanks"))

	texts := f.sender.textFrames()
	if len(texts) != 1 || !texts[0].EndCall || !texts[0].ContentComplete {
		t.Fatalf("expected terminal end_call frame, got %+v", texts)
	}
	if texts[0].Content != "Thanks for calling. Goodbye!" {
		t.Fatalf("unexpected farewell %q", texts[0].Content)
	}

	// Nothing more after end_call.
	f.sender.frames = nil
	_ = f.handler.HandleEvent(context.Background(), responseRequired(2, "hello?"))
	if len(f.sender.frames) != 0 {
		t.Fatalf("terminal call must ignore later turns, got %d frames", len(f.sender.frames))
	}
}

func TestTransferToolSetsTransferNumber(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{
			Name: tools.NameTransferToHuman,
			Arguments: map[string]any{
				"reason":  "billing question",
				"message": "Let me get our billing team.",
			},
		}}},
	}}
	f := newFixture(t, adapter)

	_ = f.handler.HandleEvent(context.Background(), responseRequired(1, "I have a question about my bill"))

	texts := f.sender.textFrames()
	if len(texts) != 1 {
		t.Fatalf("expected one frame, got %d", len(texts))
	}
	if texts[0].TransferNumber != "+15559990000" {
		t.Fatalf("transfer number not set: %+v", texts[0])
	}
	if adapter.calls != 1 {
		t.Fatalf("transfer needs no follow-up, got %d calls", adapter.calls)
	}
}

func TestModelErrorFallsBack(t *testing.T) {
	adapter := &scriptedAdapter{errs: []error{errors.New("upstream down")}}
	f := newFixture(t, adapter)

	_ = f.handler.HandleEvent(context.Background(), responseRequired(1, "hello"))

	texts := f.sender.textFrames()
	if len(texts) != 1 || texts[0].Content != fallbackMessage {
		t.Fatalf("expected fallback, got %+v", texts)
	}
}

func TestPanicRecoveredToFallback(t *testing.T) {
	f := newFixture(t, panicAdapter{})

	_ = f.handler.HandleEvent(context.Background(), responseRequired(1, "hello"))

	texts := f.sender.textFrames()
	if len(texts) != 1 || texts[0].Content != fallbackMessage {
		t.Fatalf("expected fallback after panic, got %+v", texts)
	}
}

func TestLongResponseChunked(t *testing.T) {
	long := strings.Repeat("we can absolutely help with that ", 8)
	adapter := &scriptedAdapter{responses: []llm.Response{{Text: long}}}
	f := newFixture(t, adapter)

	_ = f.handler.HandleEvent(context.Background(), responseRequired(1, "tell me everything"))

	texts := f.sender.textFrames()
	if len(texts) < 2 {
		t.Fatalf("long reply must be chunked, got %d frames", len(texts))
	}
	for i, frame := range texts {
		wantLast := i == len(texts)-1
		if frame.ContentComplete != wantLast {
			t.Fatalf("frame %d complete=%v", i, frame.ContentComplete)
		}
		if frame.ResponseID != 1 {
			t.Fatalf("chunk %d lost the response id", i)
		}
	}
}

func TestReminderAddsSyntheticPrompt(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{{Text: "Are you still there?"}}}
	f := newFixture(t, adapter)

	ev := responseRequired(1, "hi")
	ev.InteractionType = retell.InteractionReminderRequired
	_ = f.handler.HandleEvent(context.Background(), ev)

	if adapter.calls != 1 {
		t.Fatalf("expected one call, got %d", adapter.calls)
	}
	msgs := adapter.inputs[0].Messages
	last := msgs[len(msgs)-1]
	content, _ := last["content"].(string)
	if !strings.Contains(content, "silent") {
		t.Fatalf("reminder prompt missing, last message %v", last)
	}
}

func TestStaleResponseIDSkipped(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{{Text: "one"}, {Text: "two"}}}
	f := newFixture(t, adapter)

	_ = f.handler.HandleEvent(context.Background(), responseRequired(5, "hello"))
	f.sender.frames = nil
	_ = f.handler.HandleEvent(context.Background(), responseRequired(3, "older turn"))

	if len(f.sender.frames) != 0 {
		t.Fatalf("stale response id must be ignored, got %d frames", len(f.sender.frames))
	}
}

func TestCallDetailsActivatesSessionAndRecord(t *testing.T) {
	f := newFixture(t, &scriptedAdapter{})

	_ = f.handler.HandleEvent(context.Background(), retell.Event{
		InteractionType: retell.InteractionCallDetails,
		Call: map[string]any{
			"from_number":     "+15551234567",
			"direction":       "inbound",
			"agent_id":        "agent-7",
			"start_timestamp": float64(1700000000000),
		},
	})

	sess := f.sessions.Get("call-1")
	if sess == nil {
		t.Fatalf("session missing")
	}
	if sess.State() != session.StateActive {
		t.Fatalf("expected active session, got %s", sess.State())
	}
	if sess.CallerPhone() != "+15551234567" || sess.AgentID() != "agent-7" {
		t.Fatalf("call details not stored")
	}
	if _, ok := f.records.Record("t1", "call-1"); !ok {
		t.Fatalf("call record not created")
	}
}

func TestFinishStoresTranscriptAndFinalizes(t *testing.T) {
	f := newFixture(t, &scriptedAdapter{})

	_ = f.handler.HandleEvent(context.Background(), retell.Event{
		InteractionType: retell.InteractionCallDetails,
		Call:            map[string]any{"from_number": "+15551234567"},
	})
	_ = f.handler.HandleEvent(context.Background(), retell.Event{
		InteractionType: retell.InteractionUpdateOnly,
		Transcript: []retell.Utterance{
			{Role: "agent", Content: "Hello"},
			{Role: "user", Content: "My social is 123-45-6789"},
		},
	})
	f.handler.Finish("disconnect")

	rec, ok := f.records.Record("t1", "call-1")
	if !ok {
		t.Fatalf("record missing")
	}
	if rec.Status != store.StatusCompleted || rec.DisconnectReason != "disconnect" {
		t.Fatalf("record not finalized: %+v", rec)
	}
	entries := f.records.Transcript(rec.ID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 transcript lines, got %d", len(entries))
	}
	if !strings.Contains(entries[1].Content, "[SSN_REDACTED]") {
		t.Fatalf("SSN not scrubbed: %q", entries[1].Content)
	}
	if f.sessions.Get("call-1") != nil {
		t.Fatalf("session must be removed after finish")
	}
}

func TestVerifiedLookupFlowsIntoInsurance(t *testing.T) {
	f := newFixture(t, &scriptedAdapter{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{
			Name: tools.NameLookupPatient,
			Arguments: map[string]any{
				"patient_name": "Jane Doe",
				"patient_dob":  "01/15/1985",
			},
		}}},
		{Text: "I found your file, Jane."},
		{ToolCalls: []llm.ToolCall{{
			Name: tools.NameGetInsuranceInfo,
			Arguments: map[string]any{
				"patient_name": "Jane Doe",
				"patient_dob":  "01/15/1985",
			},
		}}},
		{Text: "You have coverage on file."},
	}})
	f.dir.SetInsurance("t1", "p1", true)

	_ = f.handler.HandleEvent(context.Background(), responseRequired(1, "It's Jane Doe, born January 15 1985"))

	sess := f.sessions.Get("call-1")
	if sess == nil || !sess.Verified() {
		t.Fatalf("lookup must verify the session")
	}

	f.sender.frames = nil
	_ = f.handler.HandleEvent(context.Background(), responseRequired(2, "Do you have my insurance on file?"))

	var result retell.ToolCallResult
	for _, frame := range f.sender.frames {
		if v, ok := frame.(retell.ToolCallResult); ok {
			result = v
		}
	}
	if result.Content == "" || strings.Contains(result.Content, "requires_verification") {
		t.Fatalf("verified caller must get insurance data, got %q", result.Content)
	}
}
