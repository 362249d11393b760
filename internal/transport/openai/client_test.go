package openai

import (
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

func TestParseAPIError_RequestError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		detail string
	}{
		{
			name:   "server error is transient",
			status: 502,
			body:   `{"detail":"upstream worker crashed"}`,
			want:   domain.ErrProviderTransient,
			detail: "upstream worker crashed",
		},
		{
			name:   "rate limit is transient",
			status: 429,
			body:   `{"detail":"too many requests"}`,
			want:   domain.ErrProviderTransient,
			detail: "too many requests",
		},
		{
			name:   "auth failure is fatal",
			status: 401,
			body:   `{"detail":"invalid api key"}`,
			want:   domain.ErrProviderFatal,
			detail: "invalid api key",
		},
		{
			name:   "bad request is fatal",
			status: 400,
			body:   `not json at all`,
			want:   domain.ErrProviderFatal,
			detail: "not json at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &openai.RequestError{
				HTTPStatusCode: tt.status,
				Body:           []byte(tt.body),
				Err:            errors.New("request failed"),
			}

			err := parseAPIError("embedding", src)

			if !errors.Is(err, tt.want) {
				t.Fatalf("parseAPIError() = %v, want wrapping %v", err, tt.want)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("parseAPIError() = %q, want detail %q", err, tt.detail)
			}
		})
	}
}

func TestParseAPIError_APIError(t *testing.T) {
	src := &openai.APIError{
		HTTPStatusCode: 500,
		Message:        "internal error",
	}

	err := parseAPIError("chat completion", src)

	if !errors.Is(err, domain.ErrProviderTransient) {
		t.Fatalf("parseAPIError() = %v, want transient", err)
	}
	if !strings.Contains(err.Error(), "internal error") {
		t.Errorf("parseAPIError() = %q, want message included", err)
	}
}

func TestParseAPIError_NetworkError(t *testing.T) {
	err := parseAPIError("embedding", errors.New("connection refused"))

	if !errors.Is(err, domain.ErrProviderTransient) {
		t.Fatalf("parseAPIError() = %v, want transient for network error", err)
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"model not found"}`)); got != "model not found" {
		t.Errorf("extractDetail() = %q, want %q", got, "model not found")
	}
	if got := extractDetail([]byte(`{"error":"other shape"}`)); got != "" {
		t.Errorf("extractDetail() = %q, want empty", got)
	}
	if got := extractDetail([]byte(`garbage`)); got != "" {
		t.Errorf("extractDetail() = %q, want empty for invalid JSON", got)
	}
}
