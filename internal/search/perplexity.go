// Package search provides the web-search collaborator, backed by the
// Perplexity chat-completions API. The raw HTTP client is used instead of
// an SDK because the citations field of the response is part of the reply
// rendering contract.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/telegram-chat-assistant/internal/config"
	apperrors "github.com/lueurxax/telegram-chat-assistant/internal/core/errors"
	"github.com/lueurxax/telegram-chat-assistant/internal/observability"
)

const (
	searchMaxTokens   = 2048
	searchTemperature = 0.7
	searchTopP        = 0.95
	searchRPS         = 1
	limiterBurst      = 2
)

var errPerplexityBadStatus = errors.New("perplexity unexpected status")

// Client is the narrow web-search contract consumed by the core.
type Client interface {
	Search(ctx context.Context, query string) (string, error)
}

// New returns the Perplexity client, or an offline mock when no real API
// key is configured.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.SearchAPIKey == "" || cfg.SearchAPIKey == "mock" {
		return &mockClient{}
	}

	return NewPerplexity(cfg, logger)
}

type mockClient struct{}

func (c *mockClient) Search(_ context.Context, query string) (string, error) {
	return "This is a mock search answer for: " + query, nil
}

type PerplexityClient struct {
	baseURL     string
	apiKey      string
	model       string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewPerplexity creates a search client against the configured endpoint.
func NewPerplexity(cfg *config.Config, logger *zerolog.Logger) *PerplexityClient {
	return &PerplexityClient{
		baseURL: strings.TrimSuffix(cfg.SearchBaseURL, "/"),
		apiKey:  cfg.SearchAPIKey,
		model:   cfg.SearchModel,
		httpClient: &http.Client{
			Timeout: cfg.CollaboratorTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(searchRPS), limiterBurst),
		logger:      logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Search runs the query and returns the answer text with the numbered
// citations actually referenced in it appended.
func (c *PerplexityClient) Search(ctx context.Context, query string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrRateLimited, err)
	}

	requestID := uuid.NewString()
	c.logger.Info().Str("request_id", requestID).Int("query_len", len(query)).Msg("search request")

	start := time.Now()
	defer func() {
		observability.CollaboratorRequestDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: query}},
		MaxTokens:   searchMaxTokens,
		Temperature: searchTemperature,
		TopP:        searchTopP,
	})
	if err != nil {
		return "", fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create search request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return "", fmt.Errorf("%w: %d: %s", errPerplexityBadStatus, resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", apperrors.ErrEmptyResponse
	}

	reply := parsed.Choices[0].Message.Content

	c.logger.Info().Str("request_id", requestID).Int("reply_len", len(reply)).
		Int("citations", len(parsed.Citations)).Msg("search response")

	return reply + renderCitations(reply, parsed.Citations), nil
}

// renderCitations lists the sources whose [n] marker appears in the reply,
// numbered to match.
func renderCitations(reply string, citations []string) string {
	var lines []string

	for i, url := range citations {
		marker := "[" + strconv.Itoa(i+1) + "]"
		if strings.Contains(reply, marker) {
			lines = append(lines, strconv.Itoa(i+1)+". "+url)
		}
	}

	if len(lines) == 0 {
		return ""
	}

	return "\n\n" + strings.Join(lines, "\n")
}
