package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farego/farego/db"
	"github.com/farego/farego/internal/chat"
	"github.com/farego/farego/internal/config"
	"github.com/farego/farego/internal/history"
	"github.com/farego/farego/internal/knowledge"
	"github.com/farego/farego/internal/log"
	"github.com/farego/farego/internal/memory"
	"github.com/farego/farego/internal/rag"
	"github.com/farego/farego/internal/service"
	"github.com/farego/farego/internal/tools"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	knowledgeStore, err := knowledge.New(pool, embedder, logger.With("component", "knowledge"))
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}
	a.Knowledge = knowledgeStore

	if err := indexCorpus(ctx, cfg, knowledgeStore, logger); err != nil {
		return nil, err
	}

	historyStore, err := history.New(pool, logger.With("component", "history"))
	if err != nil {
		return nil, fmt.Errorf("creating history store: %w", err)
	}
	a.History = historyStore

	registeredTools, err := provideTools(a, logger)
	if err != nil {
		return nil, err
	}
	a.Tools = registeredTools

	agent, err := chat.New(chat.Config{
		Genkit:      g,
		Logger:      logger.With("component", "chat"),
		Tools:       registeredTools,
		ModelName:   cfg.FullModelName(),
		Temperature: cfg.Temperature,
		MaxTurns:    cfg.MaxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	a.Agent = agent

	a.Memory = memory.New(cfg.MemoryMessages)

	svc, err := service.New(agent, a.Memory, historyStore, logger.With("component", "service"))
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}
	a.Service = svc

	return a, nil
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the Google AI plugin.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	return g, nil
}

// indexCorpus loads the knowledge base file into the knowledge store.
// A missing corpus file is fatal: the assistant's primary tool would
// otherwise silently answer from nothing.
func indexCorpus(ctx context.Context, cfg *config.Config, store *knowledge.Store, logger log.Logger) error {
	if _, err := os.Stat(cfg.Corpus.Path); err != nil {
		return fmt.Errorf("corpus file %q: %w", cfg.Corpus.Path, err)
	}

	splitter := rag.NewSplitter(cfg.Corpus.ChunkSize, cfg.Corpus.ChunkOverlap)
	indexer, err := rag.NewIndexer(store, splitter, logger.With("component", "rag"))
	if err != nil {
		return fmt.Errorf("creating indexer: %w", err)
	}

	count, err := indexer.IndexFile(ctx, cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("indexing corpus: %w", err)
	}
	logger.Info("corpus ready", "path", cfg.Corpus.Path, "chunks", count)
	return nil
}

// provideTools creates the tool handlers and registers them with Genkit.
func provideTools(a *App, logger log.Logger) ([]ai.Tool, error) {
	toolLogger := logger.With("component", "tools")

	kt, err := tools.NewKnowledge(a.Knowledge, toolLogger)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge tool: %w", err)
	}

	wiki, err := tools.NewWikipedia(toolLogger)
	if err != nil {
		return nil, fmt.Errorf("creating wikipedia tool: %w", err)
	}

	web, err := tools.NewWebSearch(a.Config.Search, toolLogger)
	if err != nil {
		return nil, fmt.Errorf("creating web search tool: %w", err)
	}

	registered, err := tools.Register(a.Genkit, kt, wiki, web)
	if err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	logger.Info("tools registered", "count", len(registered))
	return registered, nil
}
