package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/gazetteer"
	"github.com/yanqian/uv-australia/internal/domain/locquery"
	"github.com/yanqian/uv-australia/internal/domain/lookup"
	"github.com/yanqian/uv-australia/internal/domain/session"
	"github.com/yanqian/uv-australia/internal/domain/uvadvisor"
	"github.com/yanqian/uv-australia/internal/infra/cache"
	"github.com/yanqian/uv-australia/internal/infra/config"
	infragazetteer "github.com/yanqian/uv-australia/internal/infra/gazetteer"
	"github.com/yanqian/uv-australia/internal/infra/llm/chatgpt"
	"github.com/yanqian/uv-australia/internal/infra/resilience"
	"github.com/yanqian/uv-australia/internal/infra/uv/arpansa"
	"github.com/yanqian/uv-australia/internal/infra/uv/backendapi"
)

// cacheStore is the snapshot cache and trend store backed by one connection.
type cacheStore interface {
	dataset.SnapshotCache
	locquery.TrendStore
}

func provideUVAdvisorConfig(cfg *config.Config) uvadvisor.Config {
	return uvadvisor.Config{
		NarrativeEnabled: cfg.LLM.Enabled,
		Model:            cfg.LLM.Model,
		Temperature:      cfg.LLM.Temperature,
		Prompt:           cfg.LLM.Prompt,
	}
}

// provideChatClient returns nil when narratives are disabled.
func provideChatClient(cfg *config.Config, logger *slog.Logger) (uvadvisor.ChatClient, error) {
	if !cfg.LLM.Enabled {
		logger.Info("llm narrative disabled, advice summaries come from rules")
		return nil, nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideDatasetConfig(cfg *config.Config) dataset.Config {
	return dataset.Config{
		Interval: cfg.UV.PollInterval,
		Timeout:  cfg.UV.RequestTimeout,
		Source:   cfg.UV.Source,
	}
}

func provideSessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		IdleTTL:        cfg.Session.IdleTTL,
		ResolveTimeout: cfg.Session.ResolveTimeout,
		RejectStale:    cfg.Session.RejectStale,
		EventBuffer:    cfg.Session.EventBuffer,
		TrendingLimit:  cfg.Session.TrendingLimit,
	}
}

func provideUpstreamClient(cfg *config.Config, logger *slog.Logger) *resilience.Client {
	up := cfg.UV.Upstream
	return resilience.NewClient(resilience.Config{
		Name:             cfg.UV.Source,
		Timeout:          cfg.UV.RequestTimeout,
		MaxRetries:       up.MaxRetries,
		InitialInterval:  up.InitialInterval,
		MaxInterval:      up.MaxInterval,
		FailureThreshold: up.FailureThreshold,
		OpenTimeout:      up.OpenTimeout,
	}, logger)
}

// provideUVFetcher selects the dataset upstream. ARPANSA readings are joined
// with the city directory; the backend already serves enriched readings.
func provideUVFetcher(cfg *config.Config, upstream *resilience.Client, directory gazetteer.Repository, logger *slog.Logger) (dataset.Fetcher, error) {
	if cfg.UV.Source == config.SourceBackend {
		return backendapi.NewClient(cfg.UV.BackendURL, upstream)
	}
	return lookup.NewEnrichingFetcher(arpansa.NewClient(cfg.UV.ARPANSAURL, upstream), directory, logger), nil
}

// provideLocator resolves searches locally, or remotely against the backend.
func provideLocator(cfg *config.Config, holder *dataset.Holder, directory gazetteer.Repository, upstream *resilience.Client, logger *slog.Logger) (session.Locator, error) {
	if cfg.UV.Source == config.SourceBackend {
		logger.Info("location lookups served by backend", "url", cfg.UV.BackendURL)
		return backendapi.NewClient(cfg.UV.BackendURL, upstream)
	}
	return lookup.NewService(holder, directory, logger), nil
}

func provideGazetteer(cfg *config.Config, logger *slog.Logger) gazetteer.Repository {
	fallback := infragazetteer.NewDefaultMemoryRepository()
	dsn := strings.TrimSpace(cfg.Gazetteer.Postgres.DSN)
	if dsn == "" {
		logger.Info("gazetteer postgres dsn not set, using built-in city directory")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using built-in city directory", "error", err)
		return fallback
	}
	if cfg.Gazetteer.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Gazetteer.Postgres.MaxConns
	}
	if cfg.Gazetteer.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Gazetteer.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using built-in city directory", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using built-in city directory", "error", err)
		pool.Close()
		return fallback
	}
	repo := infragazetteer.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("gazetteer schema setup failed, using built-in city directory", "error", err)
		pool.Close()
		return fallback
	}
	if cfg.Gazetteer.Seed {
		seedGazetteer(ctx, repo, logger)
	}
	logger.Info("gazetteer postgres repository enabled")
	return repo
}

type gazetteerSeeder interface {
	Seed(ctx context.Context, cities []gazetteer.City, postcodes []gazetteer.PostcodeRange) error
}

// seedGazetteer loads the built-in directory. A failed seed is logged and the
// repository keeps whatever rows it already had.
func seedGazetteer(ctx context.Context, repo gazetteerSeeder, logger *slog.Logger) {
	if err := repo.Seed(ctx, infragazetteer.DefaultCities(), infragazetteer.DefaultPostcodes()); err != nil {
		logger.Warn("gazetteer seed failed", "error", err)
	}
}

func provideCacheStore(cfg *config.Config, logger *slog.Logger) cacheStore {
	ttl := cfg.Cache.SnapshotTTL
	if cfg.Cache.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return cache.NewMemoryStore(ttl)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return cache.NewMemoryStore(ttl)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("valkey cache enabled", "addr", cfg.Cache.Redis.Addr)
			return cache.NewValkeyStore(client, cfg.Cache.Redis.Prefix, ttl)
		}
	}
	return cache.NewMemoryStore(ttl)
}

func provideSnapshotCache(store cacheStore) dataset.SnapshotCache {
	return store
}

func provideTrendStore(store cacheStore) locquery.TrendStore {
	return store
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Redis.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Redis.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Redis.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
