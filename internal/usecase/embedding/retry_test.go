package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

type fakeEmbedder struct {
	calls   int
	results []error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	err := f.results[f.calls]
	f.calls++
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

func transientErr() error {
	return fmt.Errorf("embedding API error 502: bad gateway: %w", domain.ErrProviderTransient)
}

func TestRetryEmbedder_SucceedsAfterTransientFailures(t *testing.T) {
	fake := &fakeEmbedder{results: []error{transientErr(), transientErr(), nil}}
	r := NewRetryEmbedder(fake, 5, time.Millisecond, "openai", zap.NewNop())

	result, err := r.Embed(context.Background(), "what is love")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(result.Embedding) != 2 {
		t.Errorf("Embed() embedding length = %d, want 2", len(result.Embedding))
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
}

func TestRetryEmbedder_ExhaustsAttempts(t *testing.T) {
	fake := &fakeEmbedder{results: []error{
		transientErr(), transientErr(), transientErr(), transientErr(), transientErr(),
	}}
	r := NewRetryEmbedder(fake, 5, time.Millisecond, "openai", zap.NewNop())

	_, err := r.Embed(context.Background(), "what is love")
	if !errors.Is(err, domain.ErrProviderTransient) {
		t.Fatalf("Embed() error = %v, want transient", err)
	}
	if fake.calls != 5 {
		t.Errorf("calls = %d, want 5", fake.calls)
	}
}

func TestRetryEmbedder_FatalFailsFast(t *testing.T) {
	fatal := fmt.Errorf("embedding API error 401: invalid api key: %w", domain.ErrProviderFatal)
	fake := &fakeEmbedder{results: []error{fatal}}
	r := NewRetryEmbedder(fake, 5, time.Millisecond, "openai", zap.NewNop())

	_, err := r.Embed(context.Background(), "what is love")
	if !errors.Is(err, domain.ErrProviderFatal) {
		t.Fatalf("Embed() error = %v, want fatal", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on fatal)", fake.calls)
	}
}

func TestRetryEmbedder_ContextCancelDuringDelay(t *testing.T) {
	fake := &fakeEmbedder{results: []error{transientErr(), nil}}
	r := NewRetryEmbedder(fake, 5, time.Minute, "openai", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Embed(ctx, "what is love")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Embed() error = %v, want context.Canceled", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}
}
