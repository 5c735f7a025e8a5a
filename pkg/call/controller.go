// Package call runs one voice conversation end to end: guardrail
// screening, prompt assembly, model turns, tool dispatch, and record
// keeping. One Controller lives on one websocket connection's
// goroutine; nothing here needs a lock.
package call

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dentaldesk/voicedesk/pkg/errorsx"
	"github.com/dentaldesk/voicedesk/pkg/guardrail"
	"github.com/dentaldesk/voicedesk/pkg/intent"
	"github.com/dentaldesk/voicedesk/pkg/llm"
	"github.com/dentaldesk/voicedesk/pkg/metrics"
	"github.com/dentaldesk/voicedesk/pkg/prompt"
	"github.com/dentaldesk/voicedesk/pkg/retell"
	"github.com/dentaldesk/voicedesk/pkg/session"
	"github.com/dentaldesk/voicedesk/pkg/store"
	"github.com/dentaldesk/voicedesk/pkg/tools"
)

// Spoken when a turn fails for any internal reason. The caller never
// hears provider or stack detail.
const fallbackMessage = "I apologize, I'm having a bit of trouble. Would you like me to transfer you to our staff?"

const defaultMaxHistory = 20

// Deps are the shared collaborators behind every call. All of them are
// safe for concurrent use across connections.
type Deps struct {
	Adapter    llm.Adapter
	Guard      *guardrail.Engine
	Prompts    *prompt.Registry
	Classifier *intent.Classifier
	Dispatcher *tools.Dispatcher
	Records    store.Store
	Sessions   *session.Manager
	Logger     *slog.Logger
	Observer   metrics.Observer

	// TransferNumber receives warm handoffs. Empty disables the
	// transfer_number field; the provider then just plays the message.
	TransferNumber string
	MaxHistory     int
	MaxTriggers    int
}

func (d Deps) withDefaults() Deps {
	if d.Guard == nil {
		d.Guard = guardrail.NewEngine()
	}
	if d.Prompts == nil {
		d.Prompts = prompt.NewRegistry()
	}
	if d.Sessions == nil {
		d.Sessions = session.NewManager()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Observer == nil {
		d.Observer = metrics.NoopObserver{}
	}
	if d.MaxHistory <= 0 {
		d.MaxHistory = defaultMaxHistory
	}
	if d.MaxTriggers <= 0 {
		d.MaxTriggers = guardrail.DefaultMaxTriggers
	}
	return d
}

// NewHandlerFactory builds the per-call handler the transport asks for
// on each new connection.
func NewHandlerFactory(deps Deps) retell.HandlerFactory {
	deps = deps.withDefaults()
	return func(callID, tenantID string, sender retell.Sender) retell.Handler {
		return newController(deps, callID, tenantID, sender)
	}
}

// Controller implements retell.Handler for one call.
type Controller struct {
	deps     Deps
	sess     *session.CallSession
	sender   retell.Sender
	composer *prompt.Composer
	monitor  *guardrail.SafetyMonitor
	logger   *slog.Logger

	recordID       string
	transcript     []retell.Utterance
	storedSeq      int
	lastResponseID int
	terminal       bool
	finished       bool
}

func newController(deps Deps, callID, tenantID string, sender retell.Sender) *Controller {
	sess := deps.Sessions.Create(callID, "", tenantID)
	return &Controller{
		deps:     deps,
		sess:     sess,
		sender:   sender,
		composer: deps.Prompts.Resolve(tenantID),
		monitor:  guardrail.NewSafetyMonitor(deps.MaxTriggers),
		logger:   deps.Logger.With("call_id", callID, "tenant_id", tenantID),
	}
}

func (c *Controller) Greeting() string {
	return c.composer.Greeting(nil)
}

func (c *Controller) HandleEvent(ctx context.Context, ev retell.Event) error {
	switch ev.InteractionType {
	case retell.InteractionCallDetails:
		return c.onCallDetails(ctx, ev)
	case retell.InteractionUpdateOnly:
		if ev.Transcript != nil {
			c.transcript = ev.Transcript
		}
		return nil
	case retell.InteractionResponseRequired, retell.InteractionReminderRequired:
		c.respond(ctx, ev, ev.InteractionType == retell.InteractionReminderRequired)
		return nil
	default:
		c.logger.Warn("unknown_interaction_type", "interaction_type", ev.InteractionType)
		return nil
	}
}

func (c *Controller) onCallDetails(ctx context.Context, ev retell.Event) error {
	call := ev.Call
	from := eventString(call, "from_number", "phone_number")
	direction := eventString(call, "direction")
	if agentID := eventString(call, "agent_id"); agentID != "" {
		c.sess.SetAgentID(agentID)
	}
	metadata, _ := call["metadata"].(map[string]any)
	c.sess.SetCallDetails(from, direction, metadata)
	if err := c.sess.Activate("call details received"); err != nil {
		c.logger.Warn("activate_failed", "error", err.Error())
	}

	recordID, err := c.deps.Records.EnsureCallRecord(ctx, c.sess.TenantID(), c.sess.CallID(), store.CallDetails{
		FromNumber:       from,
		Direction:        direction,
		StartTimestampMS: eventInt64(call, "start_timestamp"),
	})
	if err != nil {
		c.logger.Error("call_record_error",
			"reason_code", string(errorsx.Reason(err)), "error", err.Error())
	} else {
		c.recordID = recordID
	}

	c.deps.Observer.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventCallStarted,
		Time: time.Now(),
		Tags: map[string]string{"call_id": c.sess.CallID(), "tenant_id": c.sess.TenantID()},
	})
	c.logger.Info("call_details_received", "direction", direction)
	return nil
}

// respond drives one turn to completion. Any panic inside the turn is
// converted into the spoken fallback so the call keeps going.
func (c *Controller) respond(ctx context.Context, ev retell.Event, reminder bool) {
	if c.terminal {
		return
	}
	// A stale id means the caller already spoke again; answering it
	// would talk over the newer turn.
	if ev.ResponseID < c.lastResponseID {
		return
	}
	c.lastResponseID = ev.ResponseID
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("turn_panic", "panic", r)
			c.sendText(ev.ResponseID, fallbackMessage)
		}
	}()

	if ev.Transcript != nil {
		c.transcript = ev.Transcript
	}
	lastUser := lastUserMessage(c.transcript)

	if lastUser != "" {
		if check := c.deps.Guard.CheckMessage(lastUser); check.Blocked {
			c.onGuardrailBlock(ev.ResponseID, check)
			return
		}
		if rec := c.monitor.ObserveMessage(lastUser); rec.Transfer {
			c.logger.Info("transfer_recommended", "reason", rec.Reason)
			c.sendTransfer(ev.ResponseID, rec.Message, rec.Reason)
			return
		}
	}

	// Once the trigger ceiling has been crossed, every later turn goes
	// to staff even if the message itself is benign.
	if c.monitor.ShouldTransfer() {
		c.sendTransfer(ev.ResponseID,
			"Let me connect you with our staff who can better help you from here.",
			guardrail.TransferReasonRepeatTriggers)
		return
	}

	focus := prompt.IntentGreeting
	if lastUser != "" {
		focus = c.classifyFocus(ctx, ev.ResponseID, lastUser)
		if focus == "" {
			return // transfer already sent
		}
	}

	messages := c.buildMessages(focus, reminder)
	resp, err := c.deps.Adapter.Generate(ctx, llm.Context{
		Messages: messages,
		Tools:    c.deps.Dispatcher.Tools(),
	})
	if err != nil {
		c.logger.Error("llm_generate_failed",
			"reason_code", string(errorsx.Reason(err)), "error", err.Error())
		c.sendText(ev.ResponseID, fallbackMessage)
		return
	}

	if len(resp.ToolCalls) > 0 {
		c.runToolCall(ctx, ev.ResponseID, messages, resp.ToolCalls[0])
	} else {
		content := strings.TrimSpace(resp.Text)
		if content == "" {
			content = fallbackMessage
		}
		c.sendContent(ev.ResponseID, content)
	}

	c.deps.Observer.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventTurnCompleted,
		Time: time.Now(),
		Tags: map[string]string{"call_id": c.sess.CallID()},
	})
}

func (c *Controller) onGuardrailBlock(responseID int, check guardrail.CheckResult) {
	rec := c.monitor.RecordTrigger(check.Kind)
	c.deps.Observer.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventGuardrailTrigger,
		Time: time.Now(),
		Tags: map[string]string{
			"call_id":  c.sess.CallID(),
			"kind":     string(check.Kind),
			"severity": string(check.Severity),
		},
	})
	c.logger.Info("guardrail_triggered", "kind", string(check.Kind), "severity", string(check.Severity))
	if rec.Transfer {
		c.sendTransfer(responseID, rec.Message, rec.Reason)
		return
	}
	c.sendText(responseID, check.Message)
}

// classifyFocus picks the conversation focus for the system prompt and
// applies the handoff policy. It returns "" after sending a transfer.
func (c *Controller) classifyFocus(ctx context.Context, responseID int, lastUser string) prompt.Intent {
	if c.deps.Classifier == nil {
		return prompt.IntentGeneralInquiry
	}
	cls := c.deps.Classifier.Classify(ctx, lastUser, map[string]any{
		"call_id":   c.sess.CallID(),
		"tenant_id": c.sess.TenantID(),
	})
	decision := c.deps.Guard.ShouldTransferToHuman(cls.Confidence, cls.Intent, cls.RequiresHuman)
	if decision.Transfer {
		c.logger.Info("handoff_policy_transfer", "reason", decision.Reason, "intent", cls.Intent)
		c.sendTransfer(responseID, decision.Message, decision.Reason)
		return ""
	}
	return promptFocus(cls.Intent)
}

func (c *Controller) buildMessages(focus prompt.Intent, reminder bool) []map[string]any {
	messages := []map[string]any{
		{"role": "system", "content": c.composer.SystemPrompt(c.patientContext(), focus)},
	}
	window := c.transcript
	if len(window) > c.deps.MaxHistory {
		window = window[len(window)-c.deps.MaxHistory:]
	}
	for _, u := range window {
		if u.Content == "" {
			continue
		}
		role := "user"
		if u.Role == "agent" {
			role = "assistant"
		}
		messages = append(messages, map[string]any{"role": role, "content": u.Content})
	}
	if reminder {
		messages = append(messages, map[string]any{
			"role":    "user",
			"content": "(The caller has been silent for a while. Check if they need any help or are still there.)",
		})
	}
	return messages
}

func (c *Controller) patientContext() *prompt.PatientContext {
	if !c.sess.Verified() {
		return nil
	}
	return &prompt.PatientContext{
		Name:     c.sess.PatientName(),
		Verified: true,
	}
}

func (c *Controller) runToolCall(ctx context.Context, responseID int, messages []map[string]any, tc llm.ToolCall) {
	toolCallID := tc.ID
	if toolCallID == "" {
		toolCallID = uuid.NewString()
	}
	argsJSON := marshalJSON(tc.Arguments)
	_ = c.sender.Send(retell.NewToolCallInvocation(toolCallID, tc.Name, argsJSON))
	c.deps.Observer.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventToolInvoked,
		Time: time.Now(),
		Tags: map[string]string{"call_id": c.sess.CallID(), "tool": tc.Name},
	})

	result, err := c.deps.Dispatcher.Handle(ctx, tc.Name, tc.Arguments, c.sess)
	var payload map[string]any
	if err != nil {
		c.logger.Error("tool_failed", "tool", tc.Name,
			"reason_code", string(errorsx.Reason(err)), "error", err.Error())
		payload = map[string]any{"success": false, "error": "tool execution failed"}
	} else {
		payload = map[string]any{"success": result.Success, "message": result.Message}
		if len(result.Data) > 0 {
			payload["data"] = result.Data
		}
	}
	payloadJSON := marshalJSON(payload)
	_ = c.sender.Send(retell.NewToolCallResult(toolCallID, payloadJSON))

	if c.recordID != "" {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		_ = c.deps.Records.LogToolCall(ctx, c.recordID, tc.Name, tc.Arguments, payload, err == nil && result.Success, errMsg)
	}

	if err == nil && result.EndCall {
		msg := result.Message
		if msg == "" {
			msg = c.composer.ClosingMessage(c.sess.PatientName(), false)
		}
		_ = c.sender.Send(retell.NewTextResponse(responseID, msg, true, true))
		c.terminal = true
		c.sess.End("agent ended call")
		return
	}
	if err == nil && result.Transfer {
		msg := result.Message
		if msg == "" {
			msg = c.composer.TransferMessage(result.Department)
		}
		c.sendTransfer(responseID, msg, result.TransferReason)
		return
	}

	// One follow-up round trip lets the model phrase the result. More
	// tool calls in the follow-up are not honored this turn.
	messages = append(messages,
		map[string]any{
			"role": "assistant",
			"tool_calls": []map[string]any{{
				"id":   toolCallID,
				"type": "function",
				"function": map[string]any{
					"name":      tc.Name,
					"arguments": argsJSON,
				},
			}},
		},
		map[string]any{
			"role":         "tool",
			"tool_call_id": toolCallID,
			"content":      payloadJSON,
		},
	)
	follow, ferr := c.deps.Adapter.Generate(ctx, llm.Context{Messages: messages, Tools: c.deps.Dispatcher.Tools()})
	content := ""
	if ferr != nil {
		c.logger.Error("llm_followup_failed",
			"reason_code", string(errorsx.Reason(ferr)), "error", ferr.Error())
	} else {
		content = strings.TrimSpace(follow.Text)
	}
	if content == "" {
		if err == nil && result.Message != "" {
			content = result.Message
		} else {
			content = fallbackMessage
		}
	}
	c.sendContent(responseID, content)
}

func (c *Controller) sendContent(responseID int, content string) {
	chunks := chunkContent(content)
	for i, chunk := range chunks {
		last := i == len(chunks)-1
		_ = c.sender.Send(retell.NewTextResponse(responseID, chunk, last, false))
	}
}

func (c *Controller) sendText(responseID int, content string) {
	_ = c.sender.Send(retell.NewTextResponse(responseID, content, true, false))
}

func (c *Controller) sendTransfer(responseID int, message, reason string) {
	resp := retell.NewTextResponse(responseID, message, true, false)
	resp.TransferNumber = c.deps.TransferNumber
	_ = c.sender.Send(resp)
	c.deps.Observer.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventTransfer,
		Time: time.Now(),
		Tags: map[string]string{"call_id": c.sess.CallID(), "reason": reason},
	})
}

// Finish flushes the transcript and closes out the record. It runs on
// the connection goroutine after the read loop exits.
func (c *Controller) Finish(reason string) {
	if c.finished {
		return
	}
	c.finished = true
	c.sess.End(reason)

	ctx := context.Background()
	if c.recordID == "" && c.sess.TenantID() != "" {
		recordID, err := c.deps.Records.EnsureCallRecord(ctx, c.sess.TenantID(), c.sess.CallID(), store.CallDetails{
			FromNumber: c.sess.CallerPhone(),
			Direction:  c.sess.Direction(),
		})
		if err == nil {
			c.recordID = recordID
		}
	}
	if c.recordID != "" {
		entries := make([]store.Utterance, len(c.transcript))
		for i, u := range c.transcript {
			entries[i] = store.Utterance{Role: u.Role, Content: u.Content}
		}
		if seq, err := c.deps.Records.StoreTranscript(ctx, c.recordID, entries, c.storedSeq); err == nil {
			c.storedSeq = seq
		}
		_ = c.deps.Records.FinalizeCall(ctx, c.sess.TenantID(), c.sess.CallID(), store.CallDetails{
			DisconnectReason: reason,
		})
	}

	summary := c.monitor.Summarize()
	c.logger.Info("call_finished", "reason", reason,
		"guardrail_triggers", summary.TriggerCount,
		"transcript_lines", len(c.transcript))
	c.deps.Sessions.Remove(c.sess.CallID())
	c.deps.Observer.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventCallEnded,
		Time: time.Now(),
		Tags: map[string]string{"call_id": c.sess.CallID(), "reason": reason},
	})
}

func promptFocus(label string) prompt.Intent {
	switch label {
	case intent.ScheduleAppointment:
		return prompt.IntentAppointmentBooking
	case intent.RescheduleAppointment:
		return prompt.IntentAppointmentReschedule
	case intent.CancelAppointment:
		return prompt.IntentAppointmentCancel
	case intent.CheckInsurance:
		return prompt.IntentInsuranceInquiry
	case intent.BillingInquiry:
		return prompt.IntentBillingInquiry
	case intent.Emergency:
		return prompt.IntentEmergency
	case intent.SpeakToHuman:
		return prompt.IntentHumanHandoff
	default:
		return prompt.IntentGeneralInquiry
	}
}

func lastUserMessage(transcript []retell.Utterance) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == "user" {
			return transcript[i].Content
		}
	}
	return ""
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func eventString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func eventInt64(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
