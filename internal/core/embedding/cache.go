package embedding

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CacheConfig はEmbeddingキャッシュの設定
type CacheConfig struct {
	// MaxSize は保持するエントリ数の上限
	MaxSize int
	// TTL は書き込みからの有効期限
	TTL time.Duration
}

// DefaultCacheConfig は既定のキャッシュ設定
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxSize: 1000,
		TTL:     24 * time.Hour,
	}
}

// cacheEntry はキャッシュの1エントリ
type cacheEntry struct {
	key        string
	vector     []float32
	writtenAt  time.Time
	lastAccess time.Time
}

// Cache はテキスト→ベクトルの対応をメモ化し、プロバイダへの冗長な呼び出しを避ける
//
// キーは正規化済みテキストの完全一致（大文字小文字を区別する）。
// 書き込みから TTL を超えたエントリはミスとして扱い、容量超過時は
// 最も長く参照されていないエントリから追い出す。
// 同一キーへの同時ミスは singleflight で1回のプロバイダ呼び出しに束ねる。
// 複数ゴルーチンから安全に利用できる
type Cache struct {
	provider Provider
	cfg      CacheConfig
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	// lru は参照の新しい順。先頭が最新、末尾が追い出し候補
	lru *list.List

	group singleflight.Group
}

// CacheOption は Cache のオプション設定
type CacheOption func(*Cache)

// WithClock は現在時刻の取得方法を差し替える（テスト用）
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache は新しい Cache を作成する
func NewCache(provider Provider, cfg CacheConfig, opts ...CacheOption) *Cache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultCacheConfig().MaxSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheConfig().TTL
	}

	c := &Cache{
		provider: provider,
		cfg:      cfg,
		now:      time.Now,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetEmbedding はテキストのEmbeddingを返す
// ヒット時はプロバイダを呼ばない。ミス時はプロバイダを同期呼び出しして結果を保存する。
// プロバイダの失敗や空結果はキャッシュされず、次回の呼び出しで再試行される
func (c *Cache) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := c.lookup(text); ok {
		return vector, nil
	}

	v, err, _ := c.group.Do(text, func() (any, error) {
		// singleflight 待機中に別の呼び出しが書き込んでいる可能性がある
		if vector, ok := c.lookup(text); ok {
			return vector, nil
		}

		vector, err := c.provider.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if len(vector) == 0 {
			return nil, ErrEmptyEmbedding
		}

		c.store(text, vector)
		return vector, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// Len は現在のエントリ数を返す（期限切れを含む）
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup はキーを検索し、有効なエントリであれば参照情報を更新して返す
func (c *Cache) lookup(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	now := c.now()

	// TTL超過はミス扱いで即座に破棄する
	if now.Sub(entry.writtenAt) >= c.cfg.TTL {
		c.lru.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}

	entry.lastAccess = now
	c.lru.MoveToFront(elem)
	return entry.vector, true
}

// store はエントリを書き込み、容量超過時にLRU追い出しを行う
func (c *Cache) store(key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.vector = vector
		entry.writtenAt = now
		entry.lastAccess = now
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(&cacheEntry{
		key:        key,
		vector:     vector,
		writtenAt:  now,
		lastAccess: now,
	})
	c.entries[key] = elem

	for len(c.entries) > c.cfg.MaxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
