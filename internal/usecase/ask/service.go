// Package ask orchestrates one paid question: fee charge, retrieval,
// relevance filtering, the retrieval decision, reward distribution and
// answer generation.
package ask

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/metrics"
	"github.com/kailas-cloud/talktoearn/internal/usecase/strategy"
)

// TimeoutNotice is returned as the answer text when generation exceeds its
// deadline.
const TimeoutNotice = "Answer generation timed out. Your question fee was charged; please try again."

// Answer is the terminal outcome of one question.
type Answer struct {
	Text          string
	UsedRetrieval bool
	Strategy      strategy.Strategy
	Decision      domain.RelevanceDecision
	Sources       []domain.RewardEntry
	TimedOut      bool
}

// Config bounds the ask flow.
type Config struct {
	QuestionFee       float64
	RetrievalK        int
	GenerationTimeout time.Duration
}

type Service struct {
	cfg         Config
	ledger      Ledger
	detector    TypeDetector
	searcher    domain.Searcher
	embedder    domain.Embedder
	filter      Filter
	decider     Decider
	selector    Selector
	distributor Distributor
	generator   domain.Completer
	logger      *zap.Logger
}

func NewService(
	cfg Config,
	ledger Ledger,
	detector TypeDetector,
	searcher domain.Searcher,
	embedder domain.Embedder,
	filter Filter,
	decider Decider,
	selector Selector,
	distributor Distributor,
	generator domain.Completer,
	logger *zap.Logger,
) *Service {
	return &Service{
		cfg:         cfg,
		ledger:      ledger,
		detector:    detector,
		searcher:    searcher,
		embedder:    embedder,
		filter:      filter,
		decider:     decider,
		selector:    selector,
		distributor: distributor,
		generator:   generator,
		logger:      logger,
	}
}

// Ask answers one question for the owner. The flow always terminates with an
// answer, a "no answer" error or a timeout notice.
func (s *Service) Ask(ctx context.Context, ownerID, text string) (Answer, error) {
	account, err := s.ledger.EnsureAccount(ctx, ownerID)
	if err != nil {
		metrics.QuestionsTotal.WithLabelValues("error").Inc()
		return Answer{}, err
	}
	if account.Balance < s.cfg.QuestionFee {
		metrics.QuestionsTotal.WithLabelValues("error").Inc()
		return Answer{}, fmt.Errorf("balance %.6f below fee %.6f: %w",
			account.Balance, s.cfg.QuestionFee, domain.ErrInsufficientBalance)
	}
	if err := s.ledger.Charge(ctx, ownerID, s.cfg.QuestionFee, text); err != nil {
		metrics.QuestionsTotal.WithLabelValues("error").Inc()
		return Answer{}, fmt.Errorf("charge question fee: %w", err)
	}

	q := domain.Question{Text: text, Type: s.detector.Detect(text)}

	candidates, err := s.searcher.Search(ctx, text, s.cfg.RetrievalK)
	if err != nil {
		metrics.QuestionsTotal.WithLabelValues("error").Inc()
		return Answer{}, fmt.Errorf("search candidates: %w", err)
	}

	var kept []domain.ScoredPassage
	if len(candidates) > 0 {
		// One embedding call per question; the vector is reused against
		// every candidate. A failed call leaves the embedding empty and
		// scoring degrades to its neutral default.
		result, err := s.embedder.Embed(ctx, text)
		if err != nil {
			s.logger.Warn("question embedding failed, scoring degrades to neutral",
				zap.String("owner_id", ownerID),
				zap.Error(err))
		} else {
			q.Embedding = result.Embedding
		}

		kept = s.filter.Filter(ctx, q, candidates)
	}

	decision := s.decider.Decide(q, kept)
	s.logger.Info("retrieval decision",
		zap.String("owner_id", ownerID),
		zap.Bool("use_retrieval", decision.ShouldUseRetrieval),
		zap.String("reason", decision.Reason),
		zap.Float64("confidence", decision.Confidence))

	if !decision.ShouldUseRetrieval {
		return s.generate(ctx, Answer{Decision: decision}, text, "model")
	}

	strat := s.selector.Select(decision.Confidence)
	prompt := s.selector.BuildPrompt(strat, text, kept)

	paid, err := s.distributor.Distribute(ctx, text, kept, s.cfg.QuestionFee)
	if err != nil {
		// A rejected distribution must not eat the asker's answer.
		s.logger.Error("reward distribution rejected", zap.Error(err))
	}

	answer := Answer{
		UsedRetrieval: true,
		Strategy:      strat,
		Decision:      decision,
		Sources:       paid,
	}
	return s.generate(ctx, answer, prompt, "rag")
}

// generate runs the completion under the generation timeout. On deadline the
// answer carries the timeout notice instead of failing.
func (s *Service) generate(ctx context.Context, answer Answer, prompt, outcome string) (Answer, error) {
	gctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.generator.Complete(gctx, prompt)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(gctx.Err(), context.DeadlineExceeded) {
			metrics.QuestionsTotal.WithLabelValues("timeout").Inc()
			s.logger.Warn("answer generation timed out",
				zap.Duration("timeout", s.cfg.GenerationTimeout))
			answer.Text = TimeoutNotice
			answer.TimedOut = true
			return answer, nil
		}
		metrics.QuestionsTotal.WithLabelValues("error").Inc()
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	metrics.QuestionsTotal.WithLabelValues(outcome).Inc()
	answer.Text = result.Text
	return answer, nil
}
