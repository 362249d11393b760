package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

func words(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(out, " ")
}

func TestChunkWords(t *testing.T) {
	t.Run("short document is one chunk", func(t *testing.T) {
		chunks := chunkWords(words(100), 500, 100)
		if len(chunks) != 1 {
			t.Fatalf("chunks = %d, want 1", len(chunks))
		}
	})

	t.Run("empty document", func(t *testing.T) {
		if chunks := chunkWords("  \n\t ", 500, 100); chunks != nil {
			t.Fatalf("chunks = %v, want nil", chunks)
		}
	})

	t.Run("overlapping windows", func(t *testing.T) {
		chunks := chunkWords(words(1000), 500, 100)
		// Windows start at 0, 400, 800.
		if len(chunks) != 3 {
			t.Fatalf("chunks = %d, want 3", len(chunks))
		}
		first := strings.Fields(chunks[0])
		second := strings.Fields(chunks[1])
		if len(first) != 500 {
			t.Errorf("first chunk words = %d, want 500", len(first))
		}
		if second[0] != "w400" {
			t.Errorf("second chunk starts at %s, want w400", second[0])
		}
		if last := chunks[2]; !strings.HasSuffix(last, "w999") {
			t.Errorf("last chunk must end at the final word")
		}
	})

	t.Run("degenerate overlap still advances", func(t *testing.T) {
		chunks := chunkWords(words(10), 3, 5)
		for i := 1; i < len(chunks); i++ {
			if chunks[i] == chunks[i-1] {
				t.Fatalf("chunk %d repeats its predecessor", i)
			}
		}
	})
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  map[int]error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail[f.calls]; err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type fakeIndex struct {
	mu       sync.Mutex
	passages []domain.Passage
	filename string
}

func (f *fakeIndex) Add(_ context.Context, passages []domain.Passage, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passages = append(f.passages, passages...)
	f.filename = filename
	return nil
}

type fakeRegistry struct {
	mu    sync.Mutex
	stats []domain.DocumentStat
}

func (f *fakeRegistry) Register(_ context.Context, stat domain.DocumentStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = append(f.stats, stat)
	return nil
}

func newTestService(t *testing.T, embedder *fakeEmbedder) (*Service, *fakeIndex, *fakeRegistry) {
	t.Helper()
	index := &fakeIndex{}
	registry := &fakeRegistry{}
	cfg := Config{ChunkWords: 500, ChunkOverlap: 100, Workers: 2}
	s, err := NewService(cfg, embedder, index, registry, zap.NewNop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s, index, registry
}

func TestIngest(t *testing.T) {
	s, index, registry := newTestService(t, &fakeEmbedder{})

	n, err := s.Ingest(context.Background(), "u1", "doc-1", "notes.txt", words(1000))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Ingest() chunks = %d, want 3", n)
	}

	if len(index.passages) != 3 {
		t.Fatalf("indexed passages = %d, want 3", len(index.passages))
	}
	for _, p := range index.passages {
		if p.DocumentID != "doc-1" || p.OwnerID != "u1" || len(p.Embedding) == 0 {
			t.Errorf("indexed passage = %+v", p)
		}
	}
	if index.filename != "notes.txt" {
		t.Errorf("index filename = %q", index.filename)
	}

	if len(registry.stats) != 1 {
		t.Fatalf("registered documents = %d, want 1", len(registry.stats))
	}
	stat := registry.stats[0]
	if stat.DocumentID != "doc-1" || stat.OwnerID != "u1" || stat.Filename != "notes.txt" {
		t.Errorf("registered stat = %+v", stat)
	}
	if stat.UploadedAt.IsZero() {
		t.Error("registered stat missing upload time")
	}
}

func TestIngest_ChunkEmbeddingFailureIsFatal(t *testing.T) {
	embedder := &fakeEmbedder{fail: map[int]error{2: errors.New("retries exhausted")}}
	s, index, registry := newTestService(t, embedder)

	_, err := s.Ingest(context.Background(), "u1", "doc-1", "notes.txt", words(1000))
	if err == nil {
		t.Fatal("Ingest() error = nil, want failure when a chunk cannot be embedded")
	}
	if len(index.passages) != 0 || len(registry.stats) != 0 {
		t.Error("failed ingestion must not index or register the document")
	}
}

func TestIngest_EmptyDocument(t *testing.T) {
	s, _, _ := newTestService(t, &fakeEmbedder{})

	if _, err := s.Ingest(context.Background(), "u1", "doc-1", "empty.txt", "   "); err == nil {
		t.Fatal("Ingest() error = nil, want error for empty document")
	}
}

func TestIngestAsync(t *testing.T) {
	s, index, _ := newTestService(t, &fakeEmbedder{})

	if err := s.IngestAsync(context.Background(), "u1", "doc-1", "notes.txt", words(10)); err != nil {
		t.Fatalf("IngestAsync() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		index.mu.Lock()
		done := len(index.passages) == 1
		index.mu.Unlock()
		if done {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background ingestion did not complete")
}
