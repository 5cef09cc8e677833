// Package imagegen provides the image-generation collaborator, backed by
// the Hyperbolic image API.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/telegram-chat-assistant/internal/config"
	apperrors "github.com/lueurxax/telegram-chat-assistant/internal/core/errors"
	"github.com/lueurxax/telegram-chat-assistant/internal/observability"
)

const (
	generationSteps    = 30
	generationCfgScale = 5
	generationSize     = 1024
	generationRPS      = 0.5
)

var errHyperbolicBadStatus = errors.New("hyperbolic unexpected status")

// Client is the narrow image-generation contract consumed by the core.
// Generate returns ErrNoImage when the API answered but produced no image,
// as distinct from a transport failure.
type Client interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// New returns the Hyperbolic client, or an offline mock when no real API
// key is configured.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.ImageAPIKey == "" || cfg.ImageAPIKey == "mock" {
		return &mockClient{}
	}

	return NewHyperbolic(cfg, logger)
}

type mockClient struct{}

func (c *mockClient) Generate(_ context.Context, _ string) ([]byte, error) {
	return nil, apperrors.ErrNoImage
}

type HyperbolicClient struct {
	url         string
	apiKey      string
	model       string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewHyperbolic creates an image client against the configured endpoint.
func NewHyperbolic(cfg *config.Config, logger *zerolog.Logger) *HyperbolicClient {
	return &HyperbolicClient{
		url:    cfg.ImageBaseURL,
		apiKey: cfg.ImageAPIKey,
		model:  cfg.ImageModel,
		httpClient: &http.Client{
			Timeout: cfg.CollaboratorTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(generationRPS), 1),
		logger:      logger,
	}
}

type generationRequest struct {
	ModelName     string `json:"model_name"`
	Prompt        string `json:"prompt"`
	Steps         int    `json:"steps"`
	CfgScale      int    `json:"cfg_scale"`
	EnableRefiner bool   `json:"enable_refiner"`
	Height        int    `json:"height"`
	Width         int    `json:"width"`
	Backend       string `json:"backend"`
}

type generationResponse struct {
	Images []struct {
		Image string `json:"image"`
	} `json:"images"`
}

// Generate renders the prompt and returns the image bytes.
func (c *HyperbolicClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrRateLimited, err)
	}

	c.logger.Info().Int("prompt_len", len(prompt)).Msg("image generation request")

	start := time.Now()
	defer func() {
		observability.CollaboratorRequestDuration.WithLabelValues("imagegen").Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(generationRequest{
		ModelName:     c.model,
		Prompt:        prompt,
		Steps:         generationSteps,
		CfgScale:      generationCfgScale,
		EnableRefiner: false,
		Height:        generationSize,
		Width:         generationSize,
		Backend:       "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generation request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, fmt.Errorf("%w: %d: %s", errHyperbolicBadStatus, resp.StatusCode, string(data))
	}

	var parsed generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}

	if len(parsed.Images) == 0 || parsed.Images[0].Image == "" {
		return nil, apperrors.ErrNoImage
	}

	img, err := base64.StdEncoding.DecodeString(parsed.Images[0].Image)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}

	c.logger.Info().Int("image_bytes", len(img)).Msg("image generation successful")

	return img, nil
}
