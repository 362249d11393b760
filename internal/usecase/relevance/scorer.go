// Package relevance implements per-passage relevance scoring and the hybrid
// (embedding + judge) relevance classification.
package relevance

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/domain/question"
)

// NeutralScore is the fallback relevance score when a passage cannot be
// scored. It lands in the ambiguous band so the judge still gets a say.
const NeutralScore = 0.4

// BoostRule maps a trigger concept in the question to keywords whose presence
// in the passage raises the score.
type BoostRule struct {
	Trigger  string
	Keywords []string
}

// DefaultBoostRules returns the built-in concept boost table, with English
// and Chinese trigger groups. Only the first group whose trigger appears in
// the question applies.
func DefaultBoostRules() []BoostRule {
	return []BoostRule{
		{Trigger: "love", Keywords: []string{
			"love", "affection", "emotion", "feeling", "relationship",
			"intimacy", "definition", "concept",
		}},
		{Trigger: "what is", Keywords: []string{
			"definition", "concept", "meaning", "explain", "refers to",
			"means", "is a",
		}},
		{Trigger: "programming language", Keywords: []string{
			"programming", "language", "code", "program", "computer",
			"syntax", "semantics", "compiler",
		}},
		{Trigger: "爱", Keywords: []string{
			"爱", "爱情", "爱心", "关爱", "热爱", "情感", "感情", "关系", "亲密", "定义", "概念",
		}},
		{Trigger: "什么是", Keywords: []string{
			"定义", "概念", "含义", "解释", "是什么", "什么叫", "意味着", "指的是",
		}},
		{Trigger: "编程语言", Keywords: []string{
			"编程", "语言", "编程语言", "代码", "程序", "计算机", "语法", "语义", "功能",
		}},
	}
}

// Scorer computes a blended relevance score for one passage against one
// question: cosine similarity of embeddings, Jaccard word overlap, a passage
// length factor, question/passage length similarity and a keyword boost,
// squashed through a logistic curve whose shape depends on the question type.
type Scorer struct {
	boosts []BoostRule
}

// NewScorer creates a scorer. Passing nil rules selects DefaultBoostRules.
func NewScorer(rules []BoostRule) *Scorer {
	if rules == nil {
		rules = DefaultBoostRules()
	}
	return &Scorer{boosts: rules}
}

// Score returns the relevance score in (0, 1). It never fails: a passage or
// question without an embedding scores NeutralScore.
func (s *Scorer) Score(q domain.Question, p domain.Passage) float64 {
	if len(q.Embedding) == 0 || len(p.Embedding) == 0 {
		return NeutralScore
	}

	base := cosineSimilarity(q.Embedding, p.Embedding)
	jaccard := jaccardSimilarity(q.Text, p.Text)
	conceptual := q.Type == question.Conceptual

	// Conceptual answers are often short definitions, so a shorter passage
	// already counts as substantive.
	wordTarget := 40.0
	if conceptual {
		wordTarget = 25.0
	}
	lengthFactor := math.Min(1.0, float64(len(strings.Fields(p.Text)))/wordTarget)

	lengthSim := lengthSimilarity(q.Text, p.Text)
	boost := s.keywordBoost(q.Text, p.Text, conceptual)

	var raw, steepness, midpoint float64
	if conceptual {
		raw = 0.75*base + 0.05*jaccard + 0.10*lengthFactor + 0.10*lengthSim + boost
		steepness, midpoint = 6.0, 0.4
	} else {
		raw = 0.80*base + 0.05*jaccard + 0.10*lengthFactor + 0.05*lengthSim + boost
		steepness, midpoint = 10.0, 0.55
	}

	return 1.0 / (1.0 + math.Exp(-steepness*(raw-midpoint)))
}

// keywordBoost applies the first boost rule whose trigger occurs in the
// question, counting keyword hits in the passage.
func (s *Scorer) keywordBoost(questionText, passageText string, conceptual bool) float64 {
	q := strings.ToLower(questionText)
	p := strings.ToLower(passageText)

	for _, rule := range s.boosts {
		if !strings.Contains(q, strings.ToLower(rule.Trigger)) {
			continue
		}
		matches := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(p, strings.ToLower(kw)) {
				matches++
			}
		}
		if matches == 0 {
			return 0.0
		}
		if conceptual {
			return math.Min(0.25, float64(matches)*0.08)
		}
		return math.Min(0.15, float64(matches)*0.05)
	}
	return 0.0
}

// cosineSimilarity is clamped to [-1, 1]. Zero or mismatched vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1.0, math.Min(1.0, sim))
}

// jaccardSimilarity is word-set overlap over union, case-insensitive.
func jaccardSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

// lengthSimilarity compares character lengths of question and passage.
func lengthSimilarity(questionText, passageText string) float64 {
	qLen := float64(utf8.RuneCountInString(questionText))
	pLen := float64(utf8.RuneCountInString(passageText))
	if qLen == 0 || pLen == 0 {
		return 0.0
	}
	return 1.0 - math.Abs(qLen-pLen)/(qLen+pLen)
}
