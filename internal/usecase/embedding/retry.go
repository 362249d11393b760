// Package embedding decorates the embedding provider with retry behavior.
// Transient provider failures (5xx, rate limits, network errors) are retried
// with a fixed delay; fatal failures fail fast.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/metrics"
)

// RetryEmbedder wraps an Embedder and retries transient failures.
type RetryEmbedder struct {
	next     domain.Embedder
	attempts int
	delay    time.Duration
	provider string
	logger   *zap.Logger
}

// NewRetryEmbedder creates a retrying decorator around next.
// attempts is the total number of tries, including the first one.
func NewRetryEmbedder(next domain.Embedder, attempts int, delay time.Duration, provider string, logger *zap.Logger) *RetryEmbedder {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryEmbedder{
		next:     next,
		attempts: attempts,
		delay:    delay,
		provider: provider,
		logger:   logger,
	}
}

// Embed implements domain.Embedder. Only errors wrapping
// domain.ErrProviderTransient are retried; the delay between tries is fixed
// and honors context cancellation.
func (r *RetryEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		result, err := r.next.Embed(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !errors.Is(err, domain.ErrProviderTransient) {
			return domain.EmbeddingResult{}, err
		}
		if attempt == r.attempts {
			break
		}

		metrics.EmbeddingRetriesTotal.WithLabelValues(r.provider).Inc()
		r.logger.Warn("transient embedding failure, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.attempts),
			zap.Duration("delay", r.delay),
			zap.Error(err))

		timer := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.EmbeddingResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	return domain.EmbeddingResult{}, fmt.Errorf("embedding failed after %d attempts: %w", r.attempts, lastErr)
}
