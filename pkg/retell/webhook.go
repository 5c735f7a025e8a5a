package retell

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentaldesk/voicedesk/pkg/errorsx"
	"github.com/dentaldesk/voicedesk/pkg/metrics"
	"github.com/dentaldesk/voicedesk/pkg/store"
)

// Webhook event names.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
)

// WebhookEvent is the lifecycle notification posted by the platform.
type WebhookEvent struct {
	Event string         `json:"event"`
	Call  map[string]any `json:"call"`
}

// WebhookServer handles platform lifecycle webhooks and the agent
// provisioning REST surface.
type WebhookServer struct {
	records store.Store
	client  *Client
	logger  *slog.Logger
	obs     metrics.Observer
}

func NewWebhookServer(records store.Store, client *Client, logger *slog.Logger, obs metrics.Observer) *WebhookServer {
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = metrics.NoopObserver{}
	}
	return &WebhookServer{records: records, client: client, logger: logger, obs: obs}
}

// Routes mounts the webhook and agent endpoints.
func (s *WebhookServer) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/webhook", s.handleWebhook)
	r.Post("/agents", s.handleCreateAgent)
	r.Get("/agents/{tenant_id}", s.handleListAgents)
	return r
}

func (s *WebhookServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var ev WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil || ev.Event == "" {
		s.logger.Warn("webhook_invalid_payload",
			"reason_code", string(errorsx.ReasonWebhookInvalidPayload))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	callID := stringField(ev.Call, "call_id")
	tenantID := tenantFromCall(ev.Call)

	switch ev.Event {
	case EventCallStarted:
		s.logger.Info("webhook_call_started", "call_id", callID, "tenant_id", tenantID)

	case EventCallEnded:
		s.logger.Info("webhook_call_ended", "call_id", callID, "tenant_id", tenantID)
		if callID == "" || tenantID == "" {
			s.logger.Warn("webhook_call_record_missing_ids", "call_id", callID)
			break
		}
		details := detailsFromCall(ev.Call)
		if _, err := s.records.EnsureCallRecord(r.Context(), tenantID, callID, details); err != nil {
			s.fail(w, err)
			return
		}
		if err := s.records.FinalizeCall(r.Context(), tenantID, callID, details); err != nil {
			s.fail(w, err)
			return
		}
		s.obs.RecordEvent(metrics.MetricsEvent{
			Name: metrics.EventCallEnded,
			Time: time.Now(),
			Tags: map[string]string{"call_id": callID, "tenant_id": tenantID},
		})

	case EventCallAnalyzed:
		s.logger.Info("webhook_call_analyzed", "call_id", callID, "tenant_id", tenantID)
		if callID == "" || tenantID == "" {
			break
		}
		if err := s.records.RecordAnalysis(r.Context(), tenantID, callID, analysisFromCall(ev.Call)); err != nil {
			s.fail(w, err)
			return
		}

	default:
		s.logger.Warn("webhook_unknown_event", "event", ev.Event)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// CreateAgentRequest provisions an agent for one tenant.
type CreateAgentRequest struct {
	TenantID       string `json:"tenant_id"`
	AgentName      string `json:"agent_name"`
	VoiceID        string `json:"voice_id,omitempty"`
	Language       string `json:"language,omitempty"`
	TransferNumber string `json:"transfer_number,omitempty"`
}

func (s *WebhookServer) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	if s.client == nil {
		http.Error(w, "agent provisioning not configured", http.StatusServiceUnavailable)
		return
	}
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TenantID == "" || req.AgentName == "" {
		http.Error(w, "tenant_id and agent_name are required", http.StatusBadRequest)
		return
	}
	agent, err := s.client.CreateAgent(r.Context(), AgentParams{
		TenantID:       req.TenantID,
		AgentName:      req.AgentName,
		VoiceID:        req.VoiceID,
		Language:       req.Language,
		TransferNumber: req.TransferNumber,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(agent)
}

func (s *WebhookServer) handleListAgents(w http.ResponseWriter, r *http.Request) {
	if s.client == nil {
		http.Error(w, "agent provisioning not configured", http.StatusServiceUnavailable)
		return
	}
	agents, err := s.client.ListAgents(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("agents_listed", "tenant_id", chi.URLParam(r, "tenant_id"), "count", len(agents))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"agents": agents})
}

func (s *WebhookServer) fail(w http.ResponseWriter, err error) {
	s.logger.Error("webhook_handler_error",
		"reason_code", string(errorsx.Reason(err)), "error", err.Error())
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func int64Field(m map[string]any, key string) int64 {
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

func tenantFromCall(call map[string]any) string {
	if v := stringField(call, "tenant_id"); v != "" {
		return v
	}
	if meta, ok := call["metadata"].(map[string]any); ok {
		return stringField(meta, "tenant_id")
	}
	return ""
}

func detailsFromCall(call map[string]any) store.CallDetails {
	details := store.CallDetails{
		FromNumber:       stringField(call, "from_number", "phone_number"),
		Direction:        stringField(call, "direction"),
		StartTimestampMS: int64Field(call, "start_timestamp"),
		EndTimestampMS:   int64Field(call, "end_timestamp"),
		DisconnectReason: stringField(call, "disconnection_reason"),
	}
	if analysis, ok := call["call_analysis"].(map[string]any); ok {
		details.DurationMS = int64Field(analysis, "call_duration_ms")
	}
	return details
}

func analysisFromCall(call map[string]any) store.Analysis {
	analysis, _ := call["call_analysis"].(map[string]any)
	successful, _ := analysis["call_successful"].(bool)
	return store.Analysis{
		Summary:    stringField(analysis, "call_summary"),
		Sentiment:  stringField(analysis, "user_sentiment"),
		Successful: successful,
	}
}
