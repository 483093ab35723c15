// Package llm wraps the hosted model APIs used to grade answers and to
// reply to free-form questions.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider generates a completion for a Request.
type Provider interface {
	// Generate sends the request and returns the model output. When the
	// request carries a Schema, the output has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes one completion call.
type Request struct {
	// System sets the model's role, e.g. the grading instructions.
	System string

	// Messages holds the conversation. Grading and /ask both send a single
	// user message.
	Messages []Message

	// Schema, when set, asks the provider for JSON matching it. When nil the
	// response is free text.
	Schema *Schema

	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int

	// Temperature in [0, 1]. Zero is deterministic.
	Temperature float64
}

// UserRequest builds a single-turn request.
func UserRequest(system, user string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema the response must satisfy.
type Schema struct {
	// Name identifies the schema, kebab-case, e.g. "answer-verdict". It is
	// also the cache key for the compiled validator.
	Name string

	// Description is sent to the model alongside the schema.
	Description string

	// Definition is the JSON Schema document.
	Definition map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is the validated JSON object for schema requests, otherwise
	// the raw text.
	Content json.RawMessage

	Usage Usage

	// Model is the model that served the request.
	Model string

	// StopReason is one of "end", "max_tokens" or "error".
	StopReason string
}

// Text returns Content as trimmed text. A JSON string literal is unquoted.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	raw := strings.TrimSpace(string(r.Content))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return raw
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
