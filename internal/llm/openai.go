package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/telegram-chat-assistant/internal/config"
	apperrors "github.com/lueurxax/telegram-chat-assistant/internal/core/errors"
	"github.com/lueurxax/telegram-chat-assistant/internal/observability"
)

const limiterBurst = 5

type openaiClient struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAI creates a completion client against the configured
// OpenAI-compatible endpoint.
func NewOpenAI(cfg *config.Config, logger *zerolog.Logger) Client {
	clientCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		clientCfg.BaseURL = cfg.LLMBaseURL
	}

	return &openaiClient{
		cfg:         cfg,
		client:      openai.NewClientWithConfig(clientCfg),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.LLMRateRPS), limiterBurst),
	}
}

func (c *openaiClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrRateLimited, err)
	}

	requestID := uuid.NewString()
	c.logger.Debug().
		Str("request_id", requestID).
		Str("model", c.cfg.LLMModel).
		Int("prompt_len", len(prompt)).
		Msg("llm completion request")

	start := time.Now()
	defer func() {
		observability.CollaboratorRequestDuration.WithLabelValues("llm").Observe(time.Since(start).Seconds())
	}()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.LLMModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	c.logger.Debug().
		Str("request_id", requestID).
		Int("response_len", len(content)).
		Msg("llm completion response")

	return content, nil
}
