// Command lexground is a legal research retrieval and grounding tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/lexground/internal/adapters/driven/ai"
	memorycache "github.com/custodia-labs/lexground/internal/adapters/driven/cache/memory"
	rediscache "github.com/custodia-labs/lexground/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/lexground/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lexground/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexground/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/lexground/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lexground/internal/adapters/driving/cli"
	httpapi "github.com/custodia-labs/lexground/internal/adapters/driving/http"
	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/core/services"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/metrics"
	"github.com/custodia-labs/lexground/internal/normalisers"
	"github.com/custodia-labs/lexground/internal/postprocessors"
	"github.com/custodia-labs/lexground/internal/providers/courtlistener"
	"github.com/custodia-labs/lexground/internal/providers/govinfo"
	"github.com/custodia-labs/lexground/internal/providers/websearch"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Services are built before flags are parsed; honour -v for their
	// startup diagnostics.
	logger.SetVerbose(slices.Contains(os.Args[1:], "-v") || slices.Contains(os.Args[1:], "--verbose"))

	// A missing .env file is the normal case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("reading .env: %v", err)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator()).WithEnv(os.LookupEnv)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	m := metrics.New()

	store, err := openStore(ctx, settings, m)
	if err != nil {
		return err
	}
	defer store.Close()

	cache, err := openCache(ctx, settings)
	if err != nil {
		return err
	}
	if c, ok := cache.(io.Closer); ok {
		defer c.Close()
	}

	upstream := ai.Init(ctx, settings)
	defer upstream.Close()

	var upstreams []driven.EmbeddingService
	if upstream.Embedder != nil {
		upstreams = append(upstreams, upstream.Embedder)
	}
	embedder, err := services.NewEmbeddingService(services.EmbeddingConfig{
		Dimensions:           settings.Embedding.Dimensions,
		DefaultMaxInputBytes: settings.Embedding.MaxInputBytes,
		CacheSize:            settings.Embedding.CacheSize,
		BatchDelay:           settings.Embedding.BatchDelay,
		MaxRetries:           services.DefaultEmbeddingMaxRetries,
	}, upstreams, services.WithEmbeddingMetrics(m))
	if err != nil {
		return fmt.Errorf("create embedding service: %w", err)
	}

	liveProviders := buildProviders(settings.Providers)
	registry, err := services.NewProviderRegistry(liveProviders...)
	if err != nil {
		return fmt.Errorf("create provider registry: %w", err)
	}

	processors := postprocessors.NewRegistry()
	if err := postprocessors.RegisterDefaults(processors); err != nil {
		return fmt.Errorf("register processors: %w", err)
	}
	pipeline, err := postprocessors.BuildPipeline(processors, settingsService.GetPipelineConfig())
	if err != nil {
		return fmt.Errorf("build ingest pipeline: %w", err)
	}

	retrieval := services.NewRetrievalService(store, liveProviders, embedder, services.RetrievalConfig{
		DefaultLimit:    settings.Retrieval.DefaultLimit,
		ProviderTimeout: settings.Retrieval.ProviderTimeout,
		CacheTTL:        settings.Cache.TTL,
	},
		services.WithQueryCache(cache),
		services.WithGroundingBuilder(services.NewGroundingBuilder(settings.Retrieval.ExcerptChars)),
		services.WithRetrievalMetrics(m),
	)

	ingest := services.NewIngestService(store, pipeline, embedder,
		services.WithNormalisers(normalisers.NewDefaultRegistry()),
		services.WithImportProviders(liveProviders),
		services.WithIngestMetrics(m),
	)

	var answerOpts []services.AnswerOption
	if prompts, err := file.NewPromptStore(""); err != nil {
		logger.Warn("prompt overrides disabled: %v", err)
	} else {
		answerOpts = append(answerOpts, services.WithPrompts(prompts))
	}
	answer := services.NewAnswerService(retrieval, upstream.LLM, answerOpts...)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Retrieval: retrieval,
		Answer:    answer,
		Ingest:    ingest,
		Providers: registry,
		Settings:  settingsService,
		Documents: store,
		Metrics:   m,
		Server: httpapi.Config{
			Port:           settings.Server.Port,
			AllowedOrigins: settings.Server.AllowedOrigins,
		},
	})
	return cli.Execute(ctx)
}

func openStore(ctx context.Context, settings *domain.Settings, m *metrics.Metrics) (driven.ChunkStore, error) {
	switch settings.Store.Backend {
	case domain.StoreBackendPostgres:
		store, err := postgres.Open(ctx, settings.Store.DatabaseURL, postgres.WithMetrics(m))
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case domain.StoreBackendMemory:
		return memory.NewChunkStore(m), nil
	default:
		store, err := sqlite.NewStore(settings.Store.DataDir, sqlite.WithMetrics(m))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	}
}

func openCache(ctx context.Context, settings *domain.Settings) (driven.QueryCache, error) {
	if settings.Cache.Backend == domain.CacheBackendRedis {
		cache, err := rediscache.Open(ctx, settings.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return cache, nil
	}
	return memorycache.New(settings.Cache.MaxEntries), nil
}

// buildProviders returns the enabled live providers in citation order:
// case law, then statutes and regulations, then the web.
func buildProviders(cfg domain.ProviderSettings) []driven.RetrievalProvider {
	var out []driven.RetrievalProvider
	if cfg.CourtListener.Enabled {
		out = append(out, courtlistener.New(courtlistener.Config{
			BaseURL: cfg.CourtListener.BaseURL,
			Token:   cfg.CourtListener.Token,
		}))
	}
	if cfg.GovInfo.Enabled {
		out = append(out, govinfo.New(govinfo.Config{
			BaseURL: cfg.GovInfo.BaseURL,
			APIKey:  cfg.GovInfo.APIKey,
		}))
	}
	if cfg.WebSearch.Enabled {
		out = append(out, websearch.New(websearch.Config{
			BaseURL:  cfg.WebSearch.BaseURL,
			APIKey:   cfg.WebSearch.APIKey,
			EngineID: cfg.WebSearch.EngineID,
		}))
	}
	return out
}
