// Package decision implements the retrieval use/no-use decision with a
// confidence score over the filtered passage set.
package decision

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/domain/question"
)

const (
	factualMaxSimFloor = 0.45
	factualAvgSimFloor = 0.40
)

// Engine decides whether retrieved passages are strong enough to ground the
// answer, and how confident that grounding is.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Decide returns the retrieval decision for the filtered passages.
// Conceptual questions use retrieval whenever anything survived filtering,
// with confidence rising with passage count and peak similarity. Factual
// questions additionally demand similarity floors.
func (e *Engine) Decide(q domain.Question, kept []domain.ScoredPassage) domain.RelevanceDecision {
	if len(kept) == 0 {
		return domain.RelevanceDecision{
			ShouldUseRetrieval: false,
			Reason:             "no relevant documents",
			Confidence:         0.0,
		}
	}

	maxSim, avgSim := similarityStats(kept)

	if q.Type == question.Conceptual {
		countFactor := math.Min(1.0, float64(len(kept))/3.0)
		simFactor := math.Min(1.0, maxSim/0.7)
		confidence := math.Min(0.9, 0.5+0.3*countFactor+0.2*simFactor)
		return domain.RelevanceDecision{
			ShouldUseRetrieval: true,
			Reason:             fmt.Sprintf("found %d relevant documents (max similarity %.3f)", len(kept), maxSim),
			Confidence:         confidence,
		}
	}

	if maxSim < factualMaxSimFloor {
		return domain.RelevanceDecision{
			ShouldUseRetrieval: false,
			Reason:             fmt.Sprintf("max similarity %.3f too low", maxSim),
			Confidence:         maxSim,
		}
	}
	if avgSim < factualAvgSimFloor {
		return domain.RelevanceDecision{
			ShouldUseRetrieval: false,
			Reason:             fmt.Sprintf("average similarity %.3f too low", avgSim),
			Confidence:         maxSim,
		}
	}

	confidence := math.Min(1.0, (maxSim-0.5)*2.0)
	return domain.RelevanceDecision{
		ShouldUseRetrieval: true,
		Reason:             fmt.Sprintf("document relevance sufficient (max %.3f, avg %.3f)", maxSim, avgSim),
		Confidence:         confidence,
	}
}

func similarityStats(kept []domain.ScoredPassage) (maxSim, avgSim float64) {
	var sum float64
	for _, sp := range kept {
		if sp.RelevanceScore > maxSim {
			maxSim = sp.RelevanceScore
		}
		sum += sp.RelevanceScore
	}
	return maxSim, sum / float64(len(kept))
}
