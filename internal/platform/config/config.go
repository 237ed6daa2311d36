package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// OpenAI設定（Embeddings用）
	OpenAI OpenAIConfig

	// マッチング設定
	Matching MatchingConfig

	// Embeddingキャッシュ設定
	Cache CacheConfig

	// レート制限設定
	RateLimit RateLimitConfig

	// HTTPサーバ設定
	Server ServerConfig
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey             string
	EmbeddingModel     string
	EmbeddingDimension int
	TimeoutSeconds     int
}

// MatchingConfig はマッチングのパラメータ設定
type MatchingConfig struct {
	DefaultLimit         int
	MaxLimit             int
	DefaultMinConfidence float64
	MaxProfileLength     int
	Thresholds           ThresholdConfig
}

// ThresholdConfig はマッチ理由のスコア閾値
// moderate < good < veryStrong を満たすこと（Validateで検証）
type ThresholdConfig struct {
	VeryStrong float64
	Good       float64
	Moderate   float64
}

// CacheConfig はEmbeddingキャッシュの設定
type CacheConfig struct {
	MaxSize int
	TTL     time.Duration
}

// RateLimitConfig はレート制限の設定
// generate（埋め込み生成）と match（検索）でコストが桁違いのため個別に設定する
type RateLimitConfig struct {
	GenerateRequests     int
	GenerateWindow       time.Duration
	MatchRequests        int
	MatchWindow          time.Duration
	MaxTrackedClients    int
	BucketIdleExpiration time.Duration
}

// ServerConfig はHTTPサーバの設定
type ServerConfig struct {
	Port int
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "smarthire"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "smarthire"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			TimeoutSeconds:     getEnvAsInt("OPENAI_TIMEOUT_SECONDS", 60),
		},
		Matching: MatchingConfig{
			DefaultLimit:         getEnvAsInt("MATCHING_DEFAULT_LIMIT", 10),
			MaxLimit:             getEnvAsInt("MATCHING_MAX_LIMIT", 100),
			DefaultMinConfidence: getEnvAsFloat("MATCHING_DEFAULT_MIN_CONFIDENCE", 0.0),
			MaxProfileLength:     getEnvAsInt("MATCHING_MAX_PROFILE_LENGTH", 2000),
			Thresholds: ThresholdConfig{
				VeryStrong: getEnvAsFloat("MATCHING_THRESHOLD_VERY_STRONG", 0.8),
				Good:       getEnvAsFloat("MATCHING_THRESHOLD_GOOD", 0.6),
				Moderate:   getEnvAsFloat("MATCHING_THRESHOLD_MODERATE", 0.4),
			},
		},
		Cache: CacheConfig{
			MaxSize: getEnvAsInt("EMBEDDING_CACHE_MAX_SIZE", 1000),
			TTL:     getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			GenerateRequests:     getEnvAsInt("RATE_LIMIT_GENERATE_REQUESTS", 5),
			GenerateWindow:       getEnvAsDuration("RATE_LIMIT_GENERATE_WINDOW", 60*time.Minute),
			MatchRequests:        getEnvAsInt("RATE_LIMIT_MATCH_REQUESTS", 100),
			MatchWindow:          getEnvAsDuration("RATE_LIMIT_MATCH_WINDOW", time.Minute),
			MaxTrackedClients:    getEnvAsInt("RATE_LIMIT_MAX_TRACKED_CLIENTS", 10000),
			BucketIdleExpiration: getEnvAsDuration("RATE_LIMIT_BUCKET_IDLE_EXPIRATION", time.Hour),
		},
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate は設定値の整合性を起動時に検証します
func (c *Config) Validate() error {
	t := c.Matching.Thresholds
	if !(t.Moderate < t.Good && t.Good < t.VeryStrong) {
		return fmt.Errorf("invalid match thresholds: moderate (%v) < good (%v) < veryStrong (%v) must hold",
			t.Moderate, t.Good, t.VeryStrong)
	}
	for name, v := range map[string]float64{
		"veryStrong": t.VeryStrong,
		"good":       t.Good,
		"moderate":   t.Moderate,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("invalid match threshold %s: %v is out of range [0,1]", name, v)
		}
	}
	if c.Matching.DefaultMinConfidence < 0 || c.Matching.DefaultMinConfidence > 1 {
		return fmt.Errorf("invalid default min confidence: %v is out of range [0,1]", c.Matching.DefaultMinConfidence)
	}
	if c.Matching.DefaultLimit < 1 || c.Matching.DefaultLimit > c.Matching.MaxLimit {
		return fmt.Errorf("invalid default limit: %d is out of range [1,%d]", c.Matching.DefaultLimit, c.Matching.MaxLimit)
	}
	if c.Matching.MaxProfileLength <= 0 {
		return fmt.Errorf("invalid max profile length: %d", c.Matching.MaxProfileLength)
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("invalid embedding cache max size: %d", c.Cache.MaxSize)
	}
	if c.RateLimit.GenerateRequests <= 0 || c.RateLimit.MatchRequests <= 0 {
		return fmt.Errorf("rate limit capacities must be positive")
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid OpenAI timeout: %d seconds", c.OpenAI.TimeoutSeconds)
	}
	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDuration は環境変数をtime.Durationとして取得します
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
