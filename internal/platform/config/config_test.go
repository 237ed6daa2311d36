package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, 1536, cfg.OpenAI.EmbeddingDimension)
	assert.Equal(t, 60, cfg.OpenAI.TimeoutSeconds)
	assert.Equal(t, 10, cfg.Matching.DefaultLimit)
	assert.Equal(t, 100, cfg.Matching.MaxLimit)
	assert.Equal(t, 2000, cfg.Matching.MaxProfileLength)
	assert.Equal(t, 0.8, cfg.Matching.Thresholds.VeryStrong)
	assert.Equal(t, 0.6, cfg.Matching.Thresholds.Good)
	assert.Equal(t, 0.4, cfg.Matching.Thresholds.Moderate)
	assert.Equal(t, 1000, cfg.Cache.MaxSize)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.RateLimit.GenerateRequests)
	assert.Equal(t, 60*time.Minute, cfg.RateLimit.GenerateWindow)
	assert.Equal(t, 100, cfg.RateLimit.MatchRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.MatchWindow)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MATCHING_DEFAULT_LIMIT", "20")
	t.Setenv("MATCHING_THRESHOLD_VERY_STRONG", "0.9")
	t.Setenv("EMBEDDING_CACHE_TTL", "1h")
	t.Setenv("RATE_LIMIT_GENERATE_REQUESTS", "10")
	t.Setenv("OPENAI_TIMEOUT_SECONDS", "30")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Matching.DefaultLimit)
	assert.Equal(t, 0.9, cfg.Matching.Thresholds.VeryStrong)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.RateLimit.GenerateRequests)
	assert.Equal(t, 30, cfg.OpenAI.TimeoutSeconds)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("MATCHING_DEFAULT_LIMIT", "not-a-number")
	t.Setenv("EMBEDDING_CACHE_TTL", "soon")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Matching.DefaultLimit)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	t.Run("閾値の順序違反", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.Thresholds = ThresholdConfig{VeryStrong: 0.4, Good: 0.6, Moderate: 0.8}
		assert.Error(t, cfg.Validate())
	})

	t.Run("閾値の範囲外", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.Thresholds.VeryStrong = 1.2
		assert.Error(t, cfg.Validate())
	})

	t.Run("既定の信頼度下限が範囲外", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.DefaultMinConfidence = -0.1
		assert.Error(t, cfg.Validate())
	})

	t.Run("既定の件数上限が最大値を超える", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.DefaultLimit = 200
		assert.Error(t, cfg.Validate())
	})

	t.Run("レート制限容量が非正", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.GenerateRequests = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("OpenAIタイムアウトが非正", func(t *testing.T) {
		cfg := valid()
		cfg.OpenAI.TimeoutSeconds = 0
		assert.Error(t, cfg.Validate())
	})
}
