package retell

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateAgent(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create-agent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"agent_id": "agent-9",
			"voice_id": "eleven_labs_rachel",
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		APIKey:       "key",
		BaseURL:      srv.URL,
		WebsocketURL: "wss://voice.example.com/ws/retell",
	})
	agent, err := c.CreateAgent(context.Background(), AgentParams{
		TenantID:  "t1",
		AgentName: "Front Desk",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("missing bearer auth, got %q", gotAuth)
	}
	if agent.AgentID != "agent-9" {
		t.Fatalf("unexpected agent id %s", agent.AgentID)
	}
	if agent.LLMWebsocketURL != "wss://voice.example.com/ws/retell?tenant_id=t1" {
		t.Fatalf("tenant not routed in websocket url: %s", agent.LLMWebsocketURL)
	}

	engine, _ := gotBody["response_engine"].(map[string]any)
	if engine["type"] != "retell-llm" {
		t.Fatalf("unexpected response engine %v", engine)
	}
	if gotBody["vocab_specialization"] != "medical" {
		t.Fatalf("expected medical vocabulary specialization")
	}
	if gotBody["max_call_duration_ms"] != float64(1800000) {
		t.Fatalf("expected 30 minute call ceiling, got %v", gotBody["max_call_duration_ms"])
	}
}

func TestCreateAgentRequiresAPIKey(t *testing.T) {
	c := NewClient(ClientConfig{})
	if _, err := c.CreateAgent(context.Background(), AgentParams{TenantID: "t1", AgentName: "x"}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestCreateAgentNon201(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad voice", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "key", BaseURL: srv.URL})
	if _, err := c.CreateAgent(context.Background(), AgentParams{TenantID: "t1", AgentName: "x"}); err == nil {
		t.Fatalf("expected error on 400")
	}
}

func TestListAgentsWrappedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"agents": []map[string]any{
				{"agent_id": "a1", "agent_name": "Desk"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "key", BaseURL: srv.URL})
	agents, err := c.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(agents) != 1 || agents[0].AgentID != "a1" {
		t.Fatalf("unexpected agents %+v", agents)
	}
	if agents[0].Status != "active" || agents[0].Language != "en-US" {
		t.Fatalf("defaults not applied: %+v", agents[0])
	}
}

func TestListAgentsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"agent_id": "a1"}, {"agent_id": "a2"},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "key", BaseURL: srv.URL})
	agents, err := c.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
}
