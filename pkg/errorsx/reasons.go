package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonLLMGenerate  ReasonCode = "llm_generate"
	ReasonLLMDecode    ReasonCode = "llm_decode"
	ReasonLLMRateLimit ReasonCode = "llm_rate_limit"

	ReasonBackendCall     ReasonCode = "backend_call"
	ReasonBackendNotFound ReasonCode = "backend_not_found"

	ReasonToolExec        ReasonCode = "tool_exec"
	ReasonToolUnknown     ReasonCode = "tool_unknown"
	ReasonToolPrereq      ReasonCode = "tool_precondition"
	ReasonToolBadArgument ReasonCode = "tool_bad_argument"

	ReasonTransportSend           ReasonCode = "transport_send"
	ReasonTransportInvalidPayload ReasonCode = "transport_invalid_payload"
	ReasonWebhookInvalidPayload   ReasonCode = "webhook_invalid_payload"

	ReasonNotifySend ReasonCode = "notify_send"
)
