package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider は Provider のテスト用実装
type mockProvider struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	calls atomic.Int64
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	return m.EmbedFunc(ctx, text)
}

func (m *mockProvider) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockProvider) Dimension() int { return 3 }

func fixedVectorProvider() *mockProvider {
	return &mockProvider{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{0.1, 0.2, 0.3}, nil
		},
	}
}

// testClock はテストから進められる時計
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_HitAvoidsProvider(t *testing.T) {
	ctx := context.Background()
	provider := fixedVectorProvider()
	cache := NewCache(provider, CacheConfig{MaxSize: 10, TTL: time.Hour})

	first, err := cache.GetEmbedding(ctx, "java developer")
	require.NoError(t, err)

	second, err := cache.GetEmbedding(ctx, "java developer")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), provider.calls.Load())
}

func TestCache_KeyIsExactMatch(t *testing.T) {
	ctx := context.Background()
	provider := fixedVectorProvider()
	cache := NewCache(provider, CacheConfig{MaxSize: 10, TTL: time.Hour})

	_, err := cache.GetEmbedding(ctx, "Java Developer")
	require.NoError(t, err)
	_, err = cache.GetEmbedding(ctx, "java developer")
	require.NoError(t, err)

	// 大文字小文字が異なるキーは別エントリ
	assert.Equal(t, int64(2), provider.calls.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	provider := fixedVectorProvider()
	cache := NewCache(provider, CacheConfig{MaxSize: 10, TTL: time.Hour}, WithClock(clock.Now))

	_, err := cache.GetEmbedding(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, int64(1), provider.calls.Load())

	// TTL未満の参照はヒット
	clock.Advance(30 * time.Minute)
	_, err = cache.GetEmbedding(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, int64(1), provider.calls.Load())

	// 書き込みからTTLを超えるとミスになり再取得する
	clock.Advance(31 * time.Minute)
	_, err = cache.GetEmbedding(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, int64(2), provider.calls.Load())
}

func TestCache_LRUEviction(t *testing.T) {
	ctx := context.Background()
	provider := fixedVectorProvider()
	cache := NewCache(provider, CacheConfig{MaxSize: 2, TTL: time.Hour})

	_, err := cache.GetEmbedding(ctx, "a")
	require.NoError(t, err)
	_, err = cache.GetEmbedding(ctx, "b")
	require.NoError(t, err)

	// "a" を参照して最新にする
	_, err = cache.GetEmbedding(ctx, "a")
	require.NoError(t, err)

	// 容量超過で最も古い "b" が追い出される
	_, err = cache.GetEmbedding(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	before := provider.calls.Load()
	_, err = cache.GetEmbedding(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, before, provider.calls.Load())

	_, err = cache.GetEmbedding(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, before+1, provider.calls.Load())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()

	t.Run("プロバイダ失敗は次回再試行する", func(t *testing.T) {
		var fail atomic.Bool
		fail.Store(true)
		provider := &mockProvider{
			EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
				if fail.Load() {
					return nil, errors.New("api unavailable")
				}
				return []float32{0.1}, nil
			},
		}
		cache := NewCache(provider, CacheConfig{MaxSize: 10, TTL: time.Hour})

		_, err := cache.GetEmbedding(ctx, "profile")
		require.Error(t, err)
		assert.Equal(t, 0, cache.Len())

		fail.Store(false)
		vector, err := cache.GetEmbedding(ctx, "profile")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1}, vector)
		assert.Equal(t, int64(2), provider.calls.Load())
	})

	t.Run("空ベクトルはErrEmptyEmbeddingでキャッシュしない", func(t *testing.T) {
		provider := &mockProvider{
			EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{}, nil
			},
		}
		cache := NewCache(provider, CacheConfig{MaxSize: 10, TTL: time.Hour})

		_, err := cache.GetEmbedding(ctx, "profile")
		require.ErrorIs(t, err, ErrEmptyEmbedding)
		assert.Equal(t, 0, cache.Len())
	})
}

func TestCache_ConcurrentMissesAreCoalesced(t *testing.T) {
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	provider := &mockProvider{}
	provider.EmbedFunc = func(ctx context.Context, text string) ([]float32, error) {
		close(started)
		<-release
		return []float32{0.1}, nil
	}
	cache := NewCache(provider, CacheConfig{MaxSize: 10, TTL: time.Hour})

	const goroutines = 8
	var wg sync.WaitGroup
	results := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = cache.GetEmbedding(ctx, "profile")
		}(i)
	}

	// 1回目の呼び出しがプロバイダに到達してから解放する
	<-started
	release <- struct{}{}
	close(release)
	wg.Wait()

	for i, err := range results {
		require.NoError(t, err, "goroutine %d", i)
	}
	assert.Equal(t, int64(1), provider.calls.Load())
}

func TestCache_DistinctKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	provider := &mockProvider{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{float32(len(text))}, nil
		},
	}
	cache := NewCache(provider, CacheConfig{MaxSize: 100, TTL: time.Hour})

	const goroutines = 10
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("profile-%d", i)
			vector, err := cache.GetEmbedding(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, []float32{float32(len(key))}, vector)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines), provider.calls.Load())
	assert.Equal(t, goroutines, cache.Len())
}
