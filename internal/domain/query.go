package domain

import "github.com/kailas-cloud/talktoearn/internal/domain/question"

// Question is the per-request working unit flowing through the pipeline.
// The embedding is attached once, after a single provider call, and reused
// for every candidate passage.
type Question struct {
	Text      string
	Type      question.Type
	Embedding []float32
}
