// Package openai adapts an OpenAI-compatible API (embeddings and chat
// completions) to the domain provider contracts. Provider errors are mapped
// to the domain error taxonomy once, at this boundary.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

// Config holds the provider settings shared by embedder and completer.
type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	Dimensions     int
	ChatModel      string
	Temperature    float64
	Provider       string
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// parseAPIError extracts a human-readable error from the API response and
// classifies it: 429 and 5xx are transient (retryable), everything else fatal.
func parseAPIError(op string, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w",
			op, reqErr.HTTPStatusCode, detail, classify(reqErr.HTTPStatusCode))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w",
			op, apiErr.HTTPStatusCode, apiErr.Message, classify(apiErr.HTTPStatusCode))
	}

	// Network-level failures (connection refused, EOF) are worth retrying.
	return fmt.Errorf("%s request failed: %v: %w", op, err, domain.ErrProviderTransient)
}

func classify(status int) error {
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return domain.ErrProviderTransient
	}
	return domain.ErrProviderFatal
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
