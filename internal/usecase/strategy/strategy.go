// Package strategy selects the answer generation strategy from the retrieval
// confidence and builds the generation prompt for it.
package strategy

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

// Strategy names how strongly the answer leans on retrieved context.
type Strategy string

const (
	// ContextOnly grounds the answer entirely in the retrieved passages.
	ContextOnly Strategy = "context_only"
	// BalancedHybrid prefers the passages but lets the model fill gaps.
	BalancedHybrid Strategy = "balanced_hybrid"
	// ModelPrimary answers from model knowledge with passages as hints.
	ModelPrimary Strategy = "model_primary"
)

// Confidence bands for strategy selection.
const (
	contextOnlyMin    = 0.7
	balancedHybridMin = 0.4
)

const contextOnlyTemplate = `Answer the question using the context below.

Context:
%s

Question: %s

Answer accurately based on the context above:`

const balancedHybridTemplate = `Answer the question using the context below, supplementing with your own knowledge where needed.

Context:
%s

Question: %s

Prefer the context; fall back to your own knowledge only where the context is insufficient:`

const modelPrimaryTemplate = `Answer the question below. My knowledge base holds some possibly related material; answer mainly from your own knowledge, consulting it only if helpful.

Possibly related material:
%s

Question: %s

Answer mainly from your own knowledge:`

// Selector picks a strategy from the decision confidence.
type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// Select maps confidence to a strategy: above 0.7 context only, above 0.4
// balanced, otherwise model primary.
func (s *Selector) Select(confidence float64) Strategy {
	switch {
	case confidence > contextOnlyMin:
		return ContextOnly
	case confidence > balancedHybridMin:
		return BalancedHybrid
	default:
		return ModelPrimary
	}
}

// BuildPrompt packages the kept passages and the question into the selected
// strategy's prompt template.
func (s *Selector) BuildPrompt(strat Strategy, questionText string, kept []domain.ScoredPassage) string {
	texts := make([]string, len(kept))
	for i, sp := range kept {
		texts[i] = sp.Text
	}
	context := strings.Join(texts, "\n\n")

	switch strat {
	case ContextOnly:
		return fmt.Sprintf(contextOnlyTemplate, context, questionText)
	case BalancedHybrid:
		return fmt.Sprintf(balancedHybridTemplate, context, questionText)
	default:
		return fmt.Sprintf(modelPrimaryTemplate, context, questionText)
	}
}
