package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/george/smart-hire/internal/core/embedding"
	"github.com/george/smart-hire/internal/core/ingestion"
	"github.com/george/smart-hire/internal/core/matching"
	"github.com/george/smart-hire/internal/core/ratelimit"
	"github.com/george/smart-hire/internal/infra/openai"
	"github.com/george/smart-hire/internal/infra/postgres"
	"github.com/george/smart-hire/internal/platform/config"
	"github.com/george/smart-hire/internal/platform/database"
)

// ServiceContainer はアプリケーションの依存関係を明示的に組み立てて保持する
// キャッシュとレートリミッタはプロセス生存期間のシングルトンで、ここで一度だけ初期化される
type ServiceContainer struct {
	MatchingService  *matching.Service
	IngestionService *ingestion.Service
	EmbeddingCache   *embedding.Cache
	RateLimiter      *ratelimit.Limiter

	cfg      *config.Config
	logger   *slog.Logger
	database *database.Database
}

type containerOptions struct {
	embedder embedding.Provider
	repo     *postgres.PostingRepository
}

// Option は ServiceContainer 構築時のオプション
type Option func(*containerOptions)

// WithEmbedder はカスタム Embedder を注入する（テスト用）
func WithEmbedder(embedder embedding.Provider) Option {
	return func(o *containerOptions) {
		o.embedder = embedder
	}
}

// NewContainer は設定からコンテナを生成する
func NewContainer(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts ...Option) (*ServiceContainer, error) {
	var options containerOptions
	for _, opt := range opts {
		opt(&options)
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(cfg.OpenAI.APIKey,
			openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
			openai.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
			openai.WithTimeout(time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second),
		)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
	}

	repo := postgres.NewPostingRepository(db.Pool())

	cache := embedding.NewCache(embedder, embedding.CacheConfig{
		MaxSize: cfg.Cache.MaxSize,
		TTL:     cfg.Cache.TTL,
	})

	normalizer := matching.NewNormalizer(matching.NormalizerConfig{
		DefaultLimit:         cfg.Matching.DefaultLimit,
		MaxLimit:             cfg.Matching.MaxLimit,
		DefaultMinConfidence: cfg.Matching.DefaultMinConfidence,
		MaxProfileLength:     cfg.Matching.MaxProfileLength,
	})

	explainer, err := matching.NewExplainer(matching.Thresholds{
		VeryStrong: cfg.Matching.Thresholds.VeryStrong,
		Good:       cfg.Matching.Thresholds.Good,
		Moderate:   cfg.Matching.Thresholds.Moderate,
	}, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create explainer: %w", err)
	}

	ingestionService, err := ingestion.NewService(repo, embedder, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ingestion service: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		Limits: map[ratelimit.Class]ratelimit.Limit{
			ratelimit.ClassGenerate: {Capacity: cfg.RateLimit.GenerateRequests, Window: cfg.RateLimit.GenerateWindow},
			ratelimit.ClassMatch:    {Capacity: cfg.RateLimit.MatchRequests, Window: cfg.RateLimit.MatchWindow},
		},
		MaxTrackedClients: cfg.RateLimit.MaxTrackedClients,
		IdleExpiration:    cfg.RateLimit.BucketIdleExpiration,
	})

	return &ServiceContainer{
		MatchingService:  matching.NewService(repo, cache, normalizer, explainer, logger),
		IngestionService: ingestionService,
		EmbeddingCache:   cache,
		RateLimiter:      limiter,
		cfg:              cfg,
		logger:           logger,
		database:         db,
	}, nil
}

// Config はアプリケーション設定を返す
func (c *ServiceContainer) Config() *config.Config {
	return c.cfg
}

// Logger はロガーを返す
func (c *ServiceContainer) Logger() *slog.Logger {
	return c.logger
}

// Close はコンテナが保持するリソースを解放する
func (c *ServiceContainer) Close() {
	if c.database != nil {
		c.database.Close()
	}
}
