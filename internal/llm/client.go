// Package llm holds the chat-completion clients the dialogue oracle talks to.
package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Request is a provider-neutral completion request. A negative Temperature
// leaves the provider default in place.
type Request struct {
	Model       string
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
	// JSON asks providers that support it for a single JSON object.
	JSON bool
}

type Response struct {
	Text       string
	Usage      Usage
	StopReason string
}

// Client completes a conversation.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
