// Package docfilter ranks classified passages and trims them to a bounded
// set, with a breadth-favoring policy for conceptual questions and a dynamic
// similarity threshold for factual ones.
package docfilter

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/domain/question"
	"github.com/kailas-cloud/talktoearn/internal/usecase/relevance"
)

// Classifier decides pass/fail relevance for a single passage.
type Classifier interface {
	Classify(ctx context.Context, q domain.Question, p domain.Passage) (bool, float64, error)
}

const (
	conceptualMaxDocs = 6
	factualMaxDocs    = 4
	thresholdFloor    = 0.40
	thresholdSpread   = 0.2
)

// Filter runs classification over all candidates for one question and keeps
// a ranked, bounded subset.
type Filter struct {
	classifier Classifier
	logger     *zap.Logger
}

func NewFilter(classifier Classifier, logger *zap.Logger) *Filter {
	return &Filter{classifier: classifier, logger: logger}
}

// Filter classifies each candidate and returns the kept passages sorted by
// descending relevance score. A failed classification keeps the passage with
// a neutral score rather than dropping the whole question's retrieval.
func (f *Filter) Filter(ctx context.Context, q domain.Question, candidates []domain.Passage) []domain.ScoredPassage {
	kept := make([]domain.ScoredPassage, 0, len(candidates))

	for _, p := range candidates {
		relevant, score, err := f.classifier.Classify(ctx, q, p)
		if err != nil {
			f.logger.Warn("classification failed, keeping passage with neutral score",
				zap.String("document_id", p.DocumentID),
				zap.Error(err))
			kept = append(kept, domain.ScoredPassage{
				Passage:        p,
				RelevanceScore: relevance.NeutralScore,
				IsRelevant:     true,
			})
			continue
		}
		if !relevant {
			continue
		}
		kept = append(kept, domain.ScoredPassage{
			Passage:        p,
			RelevanceScore: score,
			IsRelevant:     true,
		})
	}

	if len(kept) == 0 {
		return kept
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})

	if q.Type == question.Conceptual {
		if len(kept) > conceptualMaxDocs {
			kept = kept[:conceptualMaxDocs]
		}
		f.logger.Debug("conceptual filter kept passages", zap.Int("count", len(kept)))
		return kept
	}

	threshold := dynamicThreshold(kept)
	filtered := kept[:0]
	for _, sp := range kept {
		if sp.RelevanceScore >= threshold {
			filtered = append(filtered, sp)
		}
	}
	if len(filtered) > factualMaxDocs {
		filtered = filtered[:factualMaxDocs]
	}
	f.logger.Debug("factual filter kept passages",
		zap.Float64("threshold", threshold),
		zap.Int("count", len(filtered)))
	return filtered
}

// dynamicThreshold is mean + 0.2 stddev over the kept scores, floored at
// 0.40 so uniformly weak sets are rejected outright.
func dynamicThreshold(kept []domain.ScoredPassage) float64 {
	var sum float64
	for _, sp := range kept {
		sum += sp.RelevanceScore
	}
	mean := sum / float64(len(kept))

	var variance float64
	for _, sp := range kept {
		d := sp.RelevanceScore - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(kept)))

	return math.Max(thresholdFloor, mean+thresholdSpread*stddev)
}
