package relevance

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/domain/question"
	"github.com/kailas-cloud/talktoearn/internal/metrics"
)

// Relevance score bands. Scores above acceptBand pass without a judge call,
// scores below the reject floor fail without one, and the range between goes
// to the judge. Conceptual questions get a lower floor because a relevant
// definition can share little vocabulary with the question.
const (
	acceptBand          = 0.7
	rejectFloor         = 0.3
	conceptualFloor     = 0.2
	judgePassageMaxLen  = 800
	judgePromptTemplate = `Strictly judge whether the passage below is relevant to the user question. Answer only "relevant" or "not relevant", without explanation.

User question: %s

Passage: %s

Is the passage relevant to the question? Answer only "relevant" or "not relevant":`
)

// VerdictTokens is one localized positive/negative answer pair the judge may
// reply with.
type VerdictTokens struct {
	Positive string
	Negative string
}

// DefaultVerdictTokens covers English and Chinese judge replies.
func DefaultVerdictTokens() []VerdictTokens {
	return []VerdictTokens{
		{Positive: "相关", Negative: "不相关"},
		{Positive: "relevant", Negative: "not relevant"},
	}
}

// Classifier decides pass/fail relevance for one passage. High scores pass
// outright, low scores fail outright, and the ambiguous band is settled by
// the judge. Judge failures classify as not relevant.
type Classifier struct {
	scorer *Scorer
	judge  Judge
	tokens []VerdictTokens
	logger *zap.Logger
}

// NewClassifier creates a hybrid classifier. Passing nil tokens selects
// DefaultVerdictTokens.
func NewClassifier(scorer *Scorer, judge Judge, tokens []VerdictTokens, logger *zap.Logger) *Classifier {
	if tokens == nil {
		tokens = DefaultVerdictTokens()
	}
	return &Classifier{
		scorer: scorer,
		judge:  judge,
		tokens: tokens,
		logger: logger,
	}
}

// Classify returns whether the passage is relevant to the question along with
// its relevance score. The only error it returns is context cancellation.
func (c *Classifier) Classify(ctx context.Context, q domain.Question, p domain.Passage) (bool, float64, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}

	score := c.scorer.Score(q, p)

	switch {
	case score > acceptBand:
		return true, score, nil
	case score > rejectFloor,
		q.Type == question.Conceptual && score > conceptualFloor:
		return c.askJudge(ctx, q, p), score, nil
	default:
		return false, score, nil
	}
}

func (c *Classifier) askJudge(ctx context.Context, q domain.Question, p domain.Passage) bool {
	prompt := fmt.Sprintf(judgePromptTemplate, q.Text, truncateRunes(p.Text, judgePassageMaxLen))

	resp, err := c.judge.Complete(ctx, prompt)
	if err != nil {
		// Fail closed: an unjudged ambiguous passage must not earn a reward.
		metrics.JudgeCallsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("judge call failed, classifying not relevant",
			zap.String("document_id", p.DocumentID),
			zap.Error(err))
		return false
	}

	relevant := c.parseVerdict(resp.Text)
	if relevant {
		metrics.JudgeCallsTotal.WithLabelValues("relevant").Inc()
	} else {
		metrics.JudgeCallsTotal.WithLabelValues("not_relevant").Inc()
	}
	return relevant
}

// parseVerdict accepts the passage iff the lowercased reply contains a
// positive token and not the matching negative one. Negative tokens contain
// their positive token in both locales, so the negative check runs inside
// the matched pair.
func (c *Classifier) parseVerdict(reply string) bool {
	reply = strings.ToLower(strings.TrimSpace(reply))
	for _, pair := range c.tokens {
		if strings.Contains(reply, strings.ToLower(pair.Positive)) {
			return !strings.Contains(reply, strings.ToLower(pair.Negative))
		}
	}
	return false
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
