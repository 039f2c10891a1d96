package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"docqa-backend/internal/llm"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/telemetry"
)

// Config selects the endpoint and model. BaseURL may point at any
// OpenAI-compatible API such as Groq.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// Client implements llm.Gateway with the Chat Completions API.
type Client struct {
	provider string
	model    string
	api      *openai.Client
}

// NewClient constructs a gateway client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		provider: provider,
		model:    cfg.Model,
		api:      openai.NewClientWithConfig(clientCfg),
	}, nil
}

// Complete sends one chat completion request. There is no retry.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	temperature := req.Temperature
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
		TopP:        req.TopP,
	})
	metrics.ObserveLLMDuration(time.Since(start))
	if err != nil {
		return llm.Completion{}, c.classify(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, &llm.ProviderError{Err: errors.New("response missing choices")}
	}

	logUsage(c.provider, c.model, resp.Usage)
	metrics.AddTokens(resp.Usage.TotalTokens)

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return llm.Completion{
		Text:        resp.Choices[0].Message.Content,
		TotalTokens: resp.Usage.TotalTokens,
		Model:       model,
	}, nil
}

func (c *Client) classify(err error) error {
	status, message := statusOf(err)
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", llm.ErrRateLimited, message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", llm.ErrProviderAuth, message)
	}
	telemetry.Warn("llm.error", map[string]any{
		"provider": c.provider,
		"model":    c.model,
		"status":   status,
		"error":    err,
	})
	return &llm.ProviderError{Err: err}
}

func statusOf(err error) (int, string) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, reqErr.Error()
	}
	return 0, err.Error()
}

func logUsage(provider, model string, usage openai.Usage) {
	telemetry.Info("llm.response", map[string]any{
		"provider":          provider,
		"model":             model,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
	})
}

var _ llm.Gateway = (*Client)(nil)
