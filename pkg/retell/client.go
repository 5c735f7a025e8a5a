package retell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dentaldesk/voicedesk/pkg/errorsx"
)

const defaultBaseURL = "https://api.retellai.com"

// ClientConfig configures the Retell REST client. WebsocketURL is the
// public Custom LLM endpoint new agents are pointed at; the tenant id
// is appended as a query parameter so inbound connections route to the
// right practice.
type ClientConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	WebsocketURL string `mapstructure:"websocket_url"`
}

// Client provisions and lists voice agents on the Retell platform.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AgentParams describes the agent to create for a tenant.
type AgentParams struct {
	TenantID       string `json:"tenant_id"`
	AgentName      string `json:"agent_name"`
	VoiceID        string `json:"voice_id,omitempty"`
	Language       string `json:"language,omitempty"`
	TransferNumber string `json:"transfer_number,omitempty"`
}

// Agent is the provisioned agent as reported by the platform.
type Agent struct {
	AgentID         string `json:"agent_id"`
	AgentName       string `json:"agent_name"`
	LLMWebsocketURL string `json:"llm_websocket_url,omitempty"`
	VoiceID         string `json:"voice_id,omitempty"`
	Language        string `json:"language,omitempty"`
	Status          string `json:"status,omitempty"`
}

// CreateAgent registers a Custom LLM agent pointed at this server.
// Voice settings are tuned for healthcare reception: medical vocabulary
// specialization, backchannel on, a 30 minute call ceiling.
func (c *Client) CreateAgent(ctx context.Context, p AgentParams) (Agent, error) {
	if c.cfg.APIKey == "" {
		return Agent{}, errorsx.Wrap(fmt.Errorf("retell api key not configured"), errorsx.ReasonBackendCall)
	}
	voiceID := p.VoiceID
	if voiceID == "" {
		voiceID = "eleven_labs_rachel"
	}
	language := p.Language
	if language == "" {
		language = "en-US"
	}
	wsURL := c.cfg.WebsocketURL + "?tenant_id=" + p.TenantID

	body := map[string]any{
		"agent_name": p.AgentName,
		"response_engine": map[string]any{
			"type":              "retell-llm",
			"llm_websocket_url": wsURL,
		},
		"voice_id":                       voiceID,
		"language":                       language,
		"vocab_specialization":           "medical",
		"enable_backchannel":             true,
		"responsiveness":                 0.7,
		"interruption_sensitivity":       0.6,
		"reminder_trigger_ms":            8000,
		"reminder_max_count":             2,
		"end_call_after_silence_ms":      30000,
		"max_call_duration_ms":           1800000,
		"normalize_for_speech":           true,
		"opt_out_sensitive_data_storage": false,
	}

	var created struct {
		AgentID  string `json:"agent_id"`
		VoiceID  string `json:"voice_id"`
		Language string `json:"language"`
	}
	if err := c.do(ctx, http.MethodPost, "/create-agent", body, http.StatusCreated, &created); err != nil {
		return Agent{}, err
	}
	return Agent{
		AgentID:         created.AgentID,
		AgentName:       p.AgentName,
		LLMWebsocketURL: wsURL,
		VoiceID:         created.VoiceID,
		Language:        language,
		Status:          "active",
	}, nil
}

// ListAgents returns every agent on the account.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	if c.cfg.APIKey == "" {
		return nil, errorsx.Wrap(fmt.Errorf("retell api key not configured"), errorsx.ReasonBackendCall)
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/list-agents", nil, http.StatusOK, &raw); err != nil {
		return nil, err
	}

	// The platform returns either a bare array or {"agents": [...]}.
	var list []Agent
	if err := json.Unmarshal(raw, &list); err == nil {
		return normalizeAgents(list), nil
	}
	var wrapped struct {
		Agents []Agent `json:"agents"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	return normalizeAgents(wrapped.Agents), nil
}

func normalizeAgents(in []Agent) []Agent {
	for i := range in {
		if in[i].Status == "" {
			in[i].Status = "active"
		}
		if in[i].Language == "" {
			in[i].Language = "en-US"
		}
	}
	return in
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errorsx.Wrap(err, errorsx.ReasonBackendCall)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return errorsx.Wrap(fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(msg)), errorsx.ReasonBackendCall)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	return nil
}
