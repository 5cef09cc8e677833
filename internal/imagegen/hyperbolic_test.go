package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/telegram-chat-assistant/internal/core/errors"
)

func newTestClient(srv *httptest.Server) *HyperbolicClient {
	logger := zerolog.Nop()

	return &HyperbolicClient{
		url:         srv.URL,
		apiKey:      "test-key",
		model:       "FLUX.1-dev",
		httpClient:  srv.Client(),
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
		logger:      &logger,
	}
}

func TestGenerate(t *testing.T) {
	payload := []byte("fake png bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req generationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		if req.ModelName != "FLUX.1-dev" {
			t.Errorf("model = %q, want FLUX.1-dev", req.ModelName)
		}

		if req.Prompt != "sunset over mountains" {
			t.Errorf("prompt = %q", req.Prompt)
		}

		resp := map[string]interface{}{
			"images": []map[string]string{
				{"image": base64.StdEncoding.EncodeToString(payload)},
			},
		}

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer srv.Close()

	img, err := newTestClient(srv).Generate(context.Background(), "sunset over mountains")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !bytes.Equal(img, payload) {
		t.Errorf("image bytes mismatch: got %d bytes", len(img))
	}
}

func TestGenerateNoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte(`{"images": []}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Generate(context.Background(), "anything")
	if !errors.Is(err, apperrors.ErrNoImage) {
		t.Errorf("got %v, want %v", err, apperrors.ErrNoImage)
	}
}

func TestGenerateBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Generate(context.Background(), "anything")
	if !errors.Is(err, errHyperbolicBadStatus) {
		t.Errorf("got %v, want %v", err, errHyperbolicBadStatus)
	}
}
