package decision

import (
	"math"
	"testing"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/domain/question"
)

func scoredSet(scores ...float64) []domain.ScoredPassage {
	out := make([]domain.ScoredPassage, len(scores))
	for i, s := range scores {
		out[i] = domain.ScoredPassage{RelevanceScore: s, IsRelevant: true}
	}
	return out
}

func TestDecide_EmptySet(t *testing.T) {
	e := NewEngine()

	for _, qt := range []question.Type{question.Conceptual, question.Factual} {
		d := e.Decide(domain.Question{Type: qt}, nil)
		if d.ShouldUseRetrieval {
			t.Errorf("Decide(%v, empty) = use retrieval, want false", qt)
		}
		if d.Confidence != 0.0 {
			t.Errorf("Decide(%v, empty) confidence = %v, want 0", qt, d.Confidence)
		}
	}
}

func TestDecide_ConceptualAlwaysUsesRetrieval(t *testing.T) {
	e := NewEngine()
	q := domain.Question{Text: "what is love", Type: question.Conceptual}

	d := e.Decide(q, scoredSet(0.25))
	if !d.ShouldUseRetrieval {
		t.Fatal("Decide() = no retrieval, want retrieval for conceptual question with survivors")
	}

	// One passage at 0.25: 0.5 + 0.3*(1/3) + 0.2*(0.25/0.7).
	want := 0.5 + 0.3/3.0 + 0.2*(0.25/0.7)
	if math.Abs(d.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", d.Confidence, want)
	}
}

func TestDecide_ConceptualConfidenceCap(t *testing.T) {
	e := NewEngine()
	q := domain.Question{Text: "what is love", Type: question.Conceptual}

	d := e.Decide(q, scoredSet(0.9, 0.9, 0.9, 0.9))
	if d.Confidence != 0.9 {
		t.Errorf("confidence = %v, want capped at 0.9", d.Confidence)
	}
}

func TestDecide_FactualSimilarityFloors(t *testing.T) {
	e := NewEngine()
	q := domain.Question{Text: "when was it built", Type: question.Factual}

	t.Run("max too low", func(t *testing.T) {
		d := e.Decide(q, scoredSet(0.44, 0.44))
		if d.ShouldUseRetrieval {
			t.Error("Decide() = retrieval, want rejected on max floor")
		}
		if d.Confidence != 0.44 {
			t.Errorf("confidence = %v, want max similarity 0.44", d.Confidence)
		}
	})

	t.Run("avg too low", func(t *testing.T) {
		d := e.Decide(q, scoredSet(0.9, 0.1, 0.1))
		if d.ShouldUseRetrieval {
			t.Error("Decide() = retrieval, want rejected on avg floor")
		}
		if d.Confidence != 0.9 {
			t.Errorf("confidence = %v, want max similarity 0.9", d.Confidence)
		}
	})
}

func TestDecide_FactualConfidence(t *testing.T) {
	e := NewEngine()
	q := domain.Question{Text: "when was it built", Type: question.Factual}

	d := e.Decide(q, scoredSet(0.8, 0.6))
	if !d.ShouldUseRetrieval {
		t.Fatal("Decide() = no retrieval, want retrieval")
	}
	want := (0.8 - 0.5) * 2.0
	if math.Abs(d.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", d.Confidence, want)
	}

	d = e.Decide(q, scoredSet(1.0, 1.0))
	if d.Confidence != 1.0 {
		t.Errorf("confidence = %v, want capped at 1.0", d.Confidence)
	}
}
