package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/config"
	"github.com/kailas-cloud/talktoearn/internal/domain/question"
	chromemIndex "github.com/kailas-cloud/talktoearn/internal/index/chromem"
	logpkg "github.com/kailas-cloud/talktoearn/internal/logger"
	"github.com/kailas-cloud/talktoearn/internal/metrics"
	"github.com/kailas-cloud/talktoearn/internal/store"
	storeRedis "github.com/kailas-cloud/talktoearn/internal/store/redis"
	storeSqlite "github.com/kailas-cloud/talktoearn/internal/store/sqlite"
	openaiProv "github.com/kailas-cloud/talktoearn/internal/transport/openai"
	askuc "github.com/kailas-cloud/talktoearn/internal/usecase/ask"
	"github.com/kailas-cloud/talktoearn/internal/usecase/decision"
	"github.com/kailas-cloud/talktoearn/internal/usecase/docfilter"
	embeddinguc "github.com/kailas-cloud/talktoearn/internal/usecase/embedding"
	ingestuc "github.com/kailas-cloud/talktoearn/internal/usecase/ingest"
	ledgeruc "github.com/kailas-cloud/talktoearn/internal/usecase/ledger"
	"github.com/kailas-cloud/talktoearn/internal/usecase/relevance"
	rewarduc "github.com/kailas-cloud/talktoearn/internal/usecase/reward"
	"github.com/kailas-cloud/talktoearn/internal/usecase/strategy"
	"github.com/kailas-cloud/talktoearn/internal/version"
)

func main() {
	var (
		owner     = flag.String("owner", "", "owner id performing the operation")
		askText   = flag.String("ask", "", "question to ask")
		upload    = flag.String("upload", "", "path of a document to ingest")
		recompute = flag.Bool("recompute", false, "replay the owner's transactions and repair the account")
	)
	flag.Parse()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting talktoearn",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("storage_driver", cfg.Storage.Driver))

	metrics.Register()

	var st store.Store
	switch cfg.Storage.Driver {
	case "sqlite":
		st, err = storeSqlite.New(cfg.Storage.SQLitePath)
	case "redis":
		st, err = storeRedis.New(cfg.Storage.RedisAddrs, cfg.Storage.RedisPassword, cfg.Storage.KeyPrefix)
	default:
		logger.Fatal("unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	// Provider chain: raw OpenAI-compatible client, then bounded retry on
	// transient failures for every embedding consumer.
	provCfg := &openaiProv.Config{
		APIKey:         cfg.Provider.APIKey,
		BaseURL:        cfg.Provider.BaseURL,
		EmbeddingModel: cfg.Provider.EmbeddingModel,
		Dimensions:     cfg.Provider.Dimensions,
		ChatModel:      cfg.Provider.ChatModel,
		Temperature:    cfg.Provider.Temperature,
		Provider:       "openai",
	}
	embedder := embeddinguc.NewRetryEmbedder(
		openaiProv.NewEmbedder(provCfg, logpkg.Named(logger, "embedder")),
		cfg.Pipeline.EmbedRetryAttempts,
		time.Duration(cfg.Pipeline.EmbedRetryDelaySec)*time.Second,
		"openai",
		logpkg.Named(logger, "embed-retry"),
	)
	completer := openaiProv.NewCompleter(provCfg, logpkg.Named(logger, "completer"))

	index, err := chromemIndex.New(cfg.Storage.IndexPath, embedder, logpkg.Named(logger, "index"))
	if err != nil {
		logger.Fatal("failed to open index", zap.Error(err))
	}

	ledger := ledgeruc.NewService(st, st, logpkg.Named(logger, "ledger"))
	distributor := rewarduc.NewDistributor(ledger, st, nil, logpkg.Named(logger, "reward"))

	scorer := relevance.NewScorer(nil)
	classifier := relevance.NewClassifier(scorer, completer, nil, logpkg.Named(logger, "classifier"))
	filter := docfilter.NewFilter(classifier, logpkg.Named(logger, "filter"))

	asker := askuc.NewService(
		askuc.Config{
			QuestionFee:       cfg.Pipeline.QuestionFee,
			RetrievalK:        cfg.Pipeline.RetrievalK,
			GenerationTimeout: time.Duration(cfg.Pipeline.GenerationTimeoutSec) * time.Second,
		},
		ledger,
		question.NewClassifier(nil),
		index,
		embedder,
		filter,
		decision.NewEngine(),
		strategy.NewSelector(),
		distributor,
		completer,
		logpkg.Named(logger, "ask"),
	)

	ingester, err := ingestuc.NewService(
		ingestuc.Config{
			ChunkWords:   cfg.Ingest.ChunkWords,
			ChunkOverlap: cfg.Ingest.ChunkOverlap,
			Workers:      cfg.Ingest.Workers,
		},
		embedder, index, st, logpkg.Named(logger, "ingest"),
	)
	if err != nil {
		logger.Fatal("failed to create ingest service", zap.Error(err))
	}
	defer ingester.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *askText != "":
		requireOwner(logger, *owner)
		answer, err := asker.Ask(ctx, *owner, *askText)
		if err != nil {
			logger.Fatal("question failed", zap.Error(err))
		}
		fmt.Println(answer.Text)
		if answer.UsedRetrieval {
			logger.Info("answer grounded in retrieval",
				zap.String("strategy", string(answer.Strategy)),
				zap.Float64("confidence", answer.Decision.Confidence),
				zap.Int("rewarded_documents", len(answer.Sources)))
		} else {
			logger.Info("answered from model knowledge", zap.String("reason", answer.Decision.Reason))
		}

	case *upload != "":
		requireOwner(logger, *owner)
		content, err := os.ReadFile(*upload)
		if err != nil {
			logger.Fatal("failed to read document", zap.Error(err))
		}
		docID := uuid.NewString()
		chunks, err := ingester.Ingest(ctx, *owner, docID, filepath.Base(*upload), string(content))
		if err != nil {
			logger.Fatal("ingestion failed", zap.Error(err))
		}
		logger.Info("document ingested",
			zap.String("document_id", docID),
			zap.Int("chunks", chunks))

	case *recompute:
		requireOwner(logger, *owner)
		account, err := ledger.RecomputeEarnings(ctx, *owner)
		if err != nil {
			logger.Fatal("recompute failed", zap.Error(err))
		}
		fmt.Printf("balance=%.9f earned=%.9f spent=%.9f\n",
			account.Balance, account.TotalEarned, account.TotalSpent)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func requireOwner(logger *zap.Logger, owner string) {
	if owner == "" {
		logger.Fatal("the -owner flag is required")
	}
}
