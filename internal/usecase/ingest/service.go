// Package ingest embeds uploaded documents chunk by chunk and registers them
// in the search index and the document registry.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

// Config bounds document chunking and background ingestion.
type Config struct {
	ChunkWords   int
	ChunkOverlap int
	Workers      int
}

type Service struct {
	cfg      Config
	embedder domain.Embedder
	index    Index
	registry Registry
	pool     *ants.Pool
	logger   *zap.Logger
}

// NewService creates the ingestion service with a bounded worker pool for
// background uploads.
func NewService(cfg Config, embedder domain.Embedder, index Index, registry Registry, logger *zap.Logger) (*Service, error) {
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create ingest pool: %w", err)
	}
	return &Service{
		cfg:      cfg,
		embedder: embedder,
		index:    index,
		registry: registry,
		pool:     pool,
		logger:   logger,
	}, nil
}

// Close releases the worker pool. Queued ingestions are abandoned.
func (s *Service) Close() {
	s.pool.Release()
}

// Ingest chunks the document, embeds every chunk and stores the result.
// Any chunk whose embedding retries are exhausted fails the whole document.
// Returns the number of indexed chunks.
func (s *Service) Ingest(ctx context.Context, ownerID, documentID, filename, content string) (int, error) {
	chunks := chunkWords(content, s.cfg.ChunkWords, s.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %s has no content", documentID)
	}

	passages := make([]domain.Passage, len(chunks))
	for i, chunk := range chunks {
		result, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d/%d of %s: %w", i+1, len(chunks), documentID, err)
		}
		passages[i] = domain.Passage{
			Text:       chunk,
			DocumentID: documentID,
			OwnerID:    ownerID,
			Embedding:  result.Embedding,
		}
	}

	if err := s.index.Add(ctx, passages, filename); err != nil {
		return 0, fmt.Errorf("index document %s: %w", documentID, err)
	}

	if err := s.registry.Register(ctx, domain.DocumentStat{
		DocumentID: documentID,
		OwnerID:    ownerID,
		Filename:   filename,
		UploadedAt: time.Now().UTC(),
	}); err != nil {
		return 0, fmt.Errorf("register document %s: %w", documentID, err)
	}

	s.logger.Info("document ingested",
		zap.String("document_id", documentID),
		zap.String("owner_id", ownerID),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// IngestAsync queues the document on the worker pool so a slow embedding run
// does not block the caller. Failures are logged, not returned.
func (s *Service) IngestAsync(ctx context.Context, ownerID, documentID, filename, content string) error {
	return s.pool.Submit(func() {
		if _, err := s.Ingest(ctx, ownerID, documentID, filename, content); err != nil {
			s.logger.Error("background ingestion failed",
				zap.String("document_id", documentID),
				zap.Error(err))
		}
	})
}
