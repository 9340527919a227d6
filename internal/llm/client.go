// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"encoding/json"
)

// StreamCallback is called for each token during streaming. Deltas arrive in
// generation order; index is the position of the delta within the turn.
type StreamCallback func(token string, index int) error

// ToolSchema describes one callable tool offered to the model.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall is a model-issued request to execute a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatMessage represents a chat message for the LLM.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Tools       []ToolSchema
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response. ToolCalls is non-empty
// when the model requested tool execution instead of a final answer.
type CompletionResponse struct {
	Content    string
	ToolCalls  []ToolCall
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request. Text deltas are
	// delivered through the callback; tool calls are accumulated and
	// returned on the response.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}
