package domain

// Passage is a retrieved text unit from a document, tagged with its origin.
// Passages live only for the duration of one question.
type Passage struct {
	Text       string
	DocumentID string
	OwnerID    string
	Embedding  []float32
}

// ScoredPassage is a Passage with its relevance verdict attached.
// Immutable once produced by the classifier.
type ScoredPassage struct {
	Passage
	RelevanceScore float64
	IsRelevant     bool
}

// RelevanceDecision is the per-question use/no-use retrieval verdict.
type RelevanceDecision struct {
	ShouldUseRetrieval bool
	Reason             string
	Confidence         float64
}

// RewardEntry is one document's share of a question fee.
type RewardEntry struct {
	OwnerID    string
	DocumentID string
	Weight     float64
	Similarity float64
	Amount     float64
}
