// Package retell speaks the Retell AI Custom LLM websocket protocol
// and the Retell REST surface: the per-call websocket server, the
// lifecycle webhook, and agent provisioning.
package retell

// Inbound interaction types.
const (
	InteractionPingPong         = "ping_pong"
	InteractionCallDetails      = "call_details"
	InteractionUpdateOnly       = "update_only"
	InteractionResponseRequired = "response_required"
	InteractionReminderRequired = "reminder_required"
)

// Outbound response types.
const (
	ResponseTypeConfig             = "config"
	ResponseTypePingPong           = "ping_pong"
	ResponseTypeResponse           = "response"
	ResponseTypeToolCallInvocation = "tool_call_invocation"
	ResponseTypeToolCallResult     = "tool_call_result"
)

// Utterance is one transcript line. Role is "agent" or "user".
type Utterance struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Event is an inbound frame from Retell. Fields are populated per
// interaction type; unknown fields are ignored.
type Event struct {
	InteractionType         string           `json:"interaction_type"`
	ResponseID              int              `json:"response_id"`
	Transcript              []Utterance      `json:"transcript,omitempty"`
	TranscriptWithToolCalls []map[string]any `json:"transcript_with_tool_calls,omitempty"`
	Turntaking              string           `json:"turntaking,omitempty"`
	Call                    map[string]any   `json:"call,omitempty"`
	Timestamp               int64            `json:"timestamp,omitempty"`
}

// ConfigResponse is the handshake frame sent once after connect.
type ConfigResponse struct {
	ResponseType string        `json:"response_type"`
	Config       ConfigOptions `json:"config"`
}

type ConfigOptions struct {
	AutoReconnect           bool `json:"auto_reconnect"`
	CallDetails             bool `json:"call_details"`
	TranscriptWithToolCalls bool `json:"transcript_with_tool_calls"`
}

func NewConfigResponse() ConfigResponse {
	return ConfigResponse{
		ResponseType: ResponseTypeConfig,
		Config: ConfigOptions{
			AutoReconnect:           true,
			CallDetails:             true,
			TranscriptWithToolCalls: true,
		},
	}
}

// PongResponse answers a keep-alive ping.
type PongResponse struct {
	ResponseType string `json:"response_type"`
	Timestamp    int64  `json:"timestamp"`
}

func NewPongResponse(timestampMS int64) PongResponse {
	return PongResponse{ResponseType: ResponseTypePingPong, Timestamp: timestampMS}
}

// TextResponse is a spoken reply. ResponseID echoes the triggering
// event; the greeting uses id 0. A long reply is sent as several
// frames with ContentComplete set only on the last.
type TextResponse struct {
	ResponseType    string `json:"response_type"`
	ResponseID      int    `json:"response_id"`
	Content         string `json:"content"`
	ContentComplete bool   `json:"content_complete"`
	EndCall         bool   `json:"end_call"`
	TransferNumber  string `json:"transfer_number,omitempty"`
}

func NewTextResponse(responseID int, content string, complete, endCall bool) TextResponse {
	return TextResponse{
		ResponseType:    ResponseTypeResponse,
		ResponseID:      responseID,
		Content:         content,
		ContentComplete: complete,
		EndCall:         endCall,
	}
}

// ToolCallInvocation announces a tool call before it executes.
// Arguments is the JSON-encoded argument object.
type ToolCallInvocation struct {
	ResponseType string `json:"response_type"`
	ToolCallID   string `json:"tool_call_id"`
	Name         string `json:"name"`
	Arguments    string `json:"arguments"`
}

func NewToolCallInvocation(toolCallID, name, argumentsJSON string) ToolCallInvocation {
	return ToolCallInvocation{
		ResponseType: ResponseTypeToolCallInvocation,
		ToolCallID:   toolCallID,
		Name:         name,
		Arguments:    argumentsJSON,
	}
}

// ToolCallResult reports the outcome of a tool call. Content is the
// JSON-encoded result object.
type ToolCallResult struct {
	ResponseType string `json:"response_type"`
	ToolCallID   string `json:"tool_call_id"`
	Content      string `json:"content"`
}

func NewToolCallResult(toolCallID, contentJSON string) ToolCallResult {
	return ToolCallResult{
		ResponseType: ResponseTypeToolCallResult,
		ToolCallID:   toolCallID,
		Content:      contentJSON,
	}
}
