package ingest

import (
	"context"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

// Index receives the embedded chunks of one document.
type Index interface {
	Add(ctx context.Context, passages []domain.Passage, filename string) error
}

// Registry records the ingested document for reward attribution.
type Registry interface {
	Register(ctx context.Context, stat domain.DocumentStat) error
}
