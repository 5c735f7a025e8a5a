// Package llm defines the provider-neutral contract the call controller
// speaks. Providers live under pkg/providers.
package llm

import "context"

// Tool describes a callable function exposed to the model.
type Tool struct {
	Name        string
	Description string
	Schema      any
}

// Context is one generation request: an ordered message window plus the
// tool catalog for this turn.
type Context struct {
	Messages []map[string]any
	Tools    []Tool
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Response struct {
	Text         string
	Usage        Usage
	FinishReason string
	ToolCalls    []ToolCall
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Adapter is implemented per provider. Generate blocks for the full
// completion; Stream yields text deltas as they arrive.
type Adapter interface {
	Generate(ctx context.Context, input Context) (Response, error)
	Stream(ctx context.Context, input Context) (<-chan string, error)
	Name() string
}
