package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat completion prompt.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest carries the prompt and sampling parameters.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// Completion is the generated answer and the provider's total token count.
type Completion struct {
	Text        string
	TotalTokens int
	Model       string
}

// Gateway produces a completion for a prompt. Implementations return
// ErrRateLimited, ErrProviderAuth or a *ProviderError on failure.
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

var (
	ErrRateLimited   = errors.New("provider rate limit exceeded")
	ErrProviderAuth  = errors.New("provider rejected credentials")
	ErrNotConfigured = errors.New("no inference provider configured")
)

// ProviderError wraps any other provider or transport failure.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PlaceholderGateway is used when no provider is configured; every call fails.
type PlaceholderGateway struct{}

// Complete returns a *ProviderError wrapping ErrNotConfigured.
func (PlaceholderGateway) Complete(context.Context, CompletionRequest) (Completion, error) {
	return Completion{}, &ProviderError{Err: ErrNotConfigured}
}
