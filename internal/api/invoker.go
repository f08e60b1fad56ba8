// Package api provides direct Anthropic API integration for deepscout stages.
package api

import (
	"context"
	"encoding/json"
	"time"
)

// Stop reasons reported in a Response. These mirror the wire values so stub
// invokers in tests can use plain strings.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// Role identifies the author of a transcript message.
type Role string

const (
	// RoleUser is the caller side of the transcript.
	RoleUser Role = "user"
	// RoleAssistant is the model side of the transcript.
	RoleAssistant Role = "assistant"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult is the outcome of executing a ToolCall, fed back to the model.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// ToolSpec describes a tool exposed to the model during an invocation.
type ToolSpec struct {
	Name        string
	Description string
	// Properties is the JSON-schema properties object for the tool input.
	Properties map[string]interface{}
	// Required lists the property names the model must supply.
	Required []string
}

// Message is one transcript entry. A user message may carry tool results from
// a prior assistant turn; an assistant message may carry tool calls.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// UserMessage builds a plain text user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// Request describes one model invocation.
type Request struct {
	// Model is the model id to invoke. Empty uses the client default.
	Model string
	// System is the system prompt, if any.
	System string
	// Messages is the conversation transcript, oldest first.
	Messages []Message
	// Tools lists the tools the model may call during this invocation.
	Tools []ToolSpec
	// MaxTokens bounds the output length. Zero uses the client default.
	MaxTokens int64
	// Temperature sets sampling randomness. Zero leaves the API default.
	Temperature float64
	// Timeout bounds the wall-clock wait for this call. Zero means no
	// per-call bound beyond the caller's context.
	Timeout time.Duration
}

// Response is the result of one model invocation.
type Response struct {
	// Text is the concatenated text content of the response.
	Text string
	// ToolCalls lists tool invocations the model requested, in order.
	ToolCalls []ToolCall
	// StopReason is why the model stopped (see Stop* constants).
	StopReason string
	// InputTokens and OutputTokens report usage for this call.
	InputTokens  int64
	OutputTokens int64
}

// Invoker is the single model-call contract every pipeline stage builds on.
// Implementations must be safe for concurrent use; workers invoke from
// parallel goroutines. Errors are *InvocationError or *EmptyResponseError.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}
