package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/lexops/legalintel/internal/config"
	"github.com/lexops/legalintel/internal/core/ports"
	"github.com/lexops/legalintel/internal/core/usecase"
	"github.com/lexops/legalintel/internal/infrastructure/audit/natsaudit"
	"github.com/lexops/legalintel/internal/infrastructure/graph/memgraph"
	"github.com/lexops/legalintel/internal/infrastructure/graph/neo4jgraph"
	"github.com/lexops/legalintel/internal/infrastructure/llm/ollama"
	"github.com/lexops/legalintel/internal/infrastructure/queue/nats"
	"github.com/lexops/legalintel/internal/infrastructure/repository/postgres"
	"github.com/lexops/legalintel/internal/infrastructure/resilience"
	"github.com/lexops/legalintel/internal/infrastructure/rules"
	"github.com/lexops/legalintel/internal/infrastructure/storage/localfs"
	"github.com/lexops/legalintel/internal/infrastructure/textextract"
)

type App struct {
	Config config.Config

	Queue     *nats.Queue
	Repo      ports.DocumentRepository
	Results   ports.AnalysisRepository
	IngestUC  ports.DocumentIngestor
	AnalyzeUC ports.DocumentAnalyzer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	results := postgres.NewAnalysisRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	audit := natsaudit.New(queue.Conn(), cfg.NATSAuditSubject, cfg.AuditPrivileged)

	llmClient := ollama.New(ollama.Config{
		BaseURL:           cfg.OllamaURL,
		Model:             cfg.OllamaModel,
		CallTimeout:       time.Duration(cfg.LLMCallTimeoutSec) * time.Second,
		RequestsPerSecond: cfg.LLMRatePerSecond,
		Burst:             cfg.LLMRateBurst,
		PrivilegeCapable:  cfg.LLMPrivileged,
		Executor:          resilience.NewExecutor(resilience.DefaultConfig()),
	})
	extractor := ollama.NewSpanExtractor(llmClient)
	classifier := ollama.NewClassifier(llmClient)

	graph, graphClose, err := newGraph(cfg)
	if err != nil {
		queue.Close()
		return nil, err
	}

	ruleSource := rules.NewLoader(cfg.RulesPath, cfg.WeightsPath)
	decoder := textextract.NewDecoder(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	analyzeUC := usecase.NewAnalyzeDocumentUseCase(
		repo,
		results,
		decoder,
		extractor,
		usecase.NewClassifyStage(classifier, cfg.ClassifyFloor),
		graph,
		ruleSource,
		audit,
		usecase.AnalyzeConfig{
			ConfidenceFloor: cfg.ConfidenceFloor,
			ExtractRetries:  cfg.ExtractRetries,
		},
	)

	return &App{
		Config:  cfg,
		Queue:   queue,
		Repo:    repo,
		Results: results,

		IngestUC:  ingestUC,
		AnalyzeUC: analyzeUC,

		closeFn: func() {
			queue.Close()
			graphClose()
			_ = db.Close()
		},
	}, nil
}

func newGraph(cfg config.Config) (ports.KnowledgeGraph, func(), error) {
	switch cfg.GraphBackend {
	case "neo4j":
		store, err := neo4jgraph.New(neo4jgraph.Config{
			URI:              cfg.Neo4jURI,
			Username:         cfg.Neo4jUser,
			Password:         cfg.Neo4jPassword,
			Database:         cfg.Neo4jDatabase,
			PrivilegeCapable: cfg.GraphPrivileged,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init neo4j graph: %w", err)
		}
		return store, func() { _ = store.Close(context.Background()) }, nil
	case "memory", "":
		return memgraph.New(cfg.GraphPrivileged), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown graph backend %q", cfg.GraphBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
