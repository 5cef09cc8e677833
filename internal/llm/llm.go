// Package llm provides the chat-completion collaborator used for digest
// refreshes and criteria judgment.
package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-chat-assistant/internal/config"
)

// Client is the narrow completion contract consumed by the core.
type Client interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// New returns the OpenAI-compatible client, or a mock when no real API key
// is configured. The mock keeps local development and tests offline.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.LLMAPIKey == "" || cfg.LLMAPIKey == "mock" {
		return &mockClient{}
	}

	return NewOpenAI(cfg, logger)
}

type mockClient struct{}

func (c *mockClient) Complete(_ context.Context, _ string, _ int) (string, error) {
	return "NO", nil
}
