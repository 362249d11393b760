package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline and ledger Prometheus metrics.
var (
	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talktoearn",
			Name:      "questions_total",
			Help:      "Total questions processed by outcome",
		},
		[]string{"outcome"}, // "rag" / "model" / "timeout" / "error"
	)

	JudgeCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talktoearn",
			Name:      "judge_calls_total",
			Help:      "Total relevance judge calls by verdict",
		},
		[]string{"verdict"}, // "relevant" / "not_relevant" / "error"
	)

	RewardsDistributedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talktoearn",
			Name:      "rewards_distributed_total",
			Help:      "Total reward payouts by result",
		},
		[]string{"result"}, // "paid" / "unresolved" / "error"
	)

	RewardAmountTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "talktoearn",
			Name:      "reward_amount_total",
			Help:      "Total coin amount paid out to contributors",
		},
	)

	LedgerTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talktoearn",
			Name:      "ledger_transactions_total",
			Help:      "Total ledger transactions by kind",
		},
		[]string{"kind"},
	)

	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "talktoearn",
			Name:      "generation_duration_seconds",
			Help:      "Answer generation duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talktoearn",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "talktoearn",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talktoearn",
			Name:      "embedding_retries_total",
			Help:      "Total embedding retry attempts after transient failures",
		},
		[]string{"provider"},
	)
)

var registered bool

// Register registers all Prometheus metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(JudgeCallsTotal)
	prometheus.MustRegister(RewardsDistributedTotal)
	prometheus.MustRegister(RewardAmountTotal)
	prometheus.MustRegister(LedgerTransactionsTotal)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingRetriesTotal)
	registered = true
}
