// Package chromem adapts an embedded chromem-go collection to the passage
// index used for ingestion and nearest-neighbor search.
package chromem

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

const collectionName = "passages"

// Index stores embedded passages and serves k-nearest-neighbor search.
// Implements domain.Searcher.
type Index struct {
	collection *chromem.Collection
	logger     *zap.Logger
}

// New opens the index at path, or an in-memory index when path is empty.
// The embedder vectorizes search queries; ingested passages arrive with
// their embeddings precomputed.
func New(path string, embedder domain.Embedder, logger *zap.Logger) (*Index, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open index at %s: %w", path, err)
		}
	}

	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		result, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		return result.Embedding, nil
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}
	return &Index{collection: collection, logger: logger}, nil
}

// Add indexes one document's chunks. Chunk ids are derived from the document
// id so re-ingesting a document overwrites its previous chunks.
func (i *Index) Add(ctx context.Context, passages []domain.Passage, filename string) error {
	docs := make([]chromem.Document, len(passages))
	for n, p := range passages {
		docs[n] = chromem.Document{
			ID:        fmt.Sprintf("%s:%d", p.DocumentID, n),
			Content:   p.Text,
			Embedding: p.Embedding,
			Metadata: map[string]string{
				"document_id": p.DocumentID,
				"owner_id":    p.OwnerID,
				"filename":    filename,
			},
		}
	}

	if err := i.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	i.logger.Debug("indexed chunks",
		zap.Int("count", len(docs)),
		zap.String("filename", filename))
	return nil
}

// Search implements domain.Searcher. Returns up to k candidate passages, or
// an empty slice when the index is empty.
func (i *Index) Search(ctx context.Context, questionText string, k int) ([]domain.Passage, error) {
	count := i.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := i.collection.Query(ctx, questionText, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	passages := make([]domain.Passage, len(results))
	for n, r := range results {
		passages[n] = domain.Passage{
			Text:       r.Content,
			DocumentID: r.Metadata["document_id"],
			OwnerID:    r.Metadata["owner_id"],
			Embedding:  r.Embedding,
		}
	}
	return passages, nil
}
