package ratelimit

import (
	"container/list"
	"sync"
	"time"
)

// Class はエンドポイントのコスト区分
// Embedding生成は検索より桁違いに高価なため、区分ごとに独立した制限を持つ
type Class string

const (
	// ClassGenerate はEmbedding生成系エンドポイント
	ClassGenerate Class = "generate"
	// ClassMatch はマッチング検索系エンドポイント
	ClassMatch Class = "match"
)

// Limit は1区分あたりのトークンバケット設定
// Window ごとに Capacity 個のトークンをまとめて補充する（連続補充ではない）
type Limit struct {
	Capacity int
	Window   time.Duration
}

// Config はレート制限の全体設定
type Config struct {
	// Limits は区分ごとのバケット設定
	Limits map[Class]Limit
	// MaxTrackedClients は追跡する (クライアント, 区分) キーの上限
	MaxTrackedClients int
	// IdleExpiration は未使用バケットを破棄するまでの時間
	IdleExpiration time.Duration
}

// DefaultConfig は既定のレート制限設定
func DefaultConfig() Config {
	return Config{
		Limits: map[Class]Limit{
			ClassGenerate: {Capacity: 5, Window: 60 * time.Minute},
			ClassMatch:    {Capacity: 100, Window: time.Minute},
		},
		MaxTrackedClients: 10000,
		IdleExpiration:    time.Hour,
	}
}

type bucketKey struct {
	clientID string
	class    Class
}

// bucket は (クライアント, 区分) ごとのトークンバケット
type bucket struct {
	key        bucketKey
	limit      Limit
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
}

// Limiter はクライアント単位の流量制御を行う
//
// バケットは初回リクエスト時に遅延生成され、IdleExpiration を超えて
// 使われなければ破棄される。追跡キー総数は MaxTrackedClients で抑え、
// 超過時は最も長くアイドルなバケットから追い出す（敵対的・多様な
// クライアントによるメモリ肥大を防ぐ）。
// 複数ゴルーチンから安全に利用でき、トークン消費はアトミックに行われる
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[bucketKey]*list.Element
	// idle は lastSeen の新しい順。末尾が追い出し候補
	idle *list.List
}

// Option は Limiter のオプション設定
type Option func(*Limiter)

// WithClock は現在時刻の取得方法を差し替える（テスト用）
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New は新しい Limiter を作成する
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.MaxTrackedClients <= 0 {
		cfg.MaxTrackedClients = DefaultConfig().MaxTrackedClients
	}
	if cfg.IdleExpiration <= 0 {
		cfg.IdleExpiration = DefaultConfig().IdleExpiration
	}

	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[bucketKey]*list.Element),
		idle:    list.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit はリクエスト1件の受け入れ可否を判定し、許可時にトークンを1つ消費する
// 拒否は純粋な bool シグナルで、429レスポンスの生成はトランスポート層の責務
func (l *Limiter) Admit(clientID string, class Class) bool {
	limit, ok := l.cfg.Limits[class]
	if !ok {
		// 未設定の区分は受け入れない
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictExpired(now)

	b := l.getOrCreate(bucketKey{clientID: clientID, class: class}, limit, now)

	// 経過したウィンドウ数に応じてまとめて補充する
	if elapsed := now.Sub(b.lastRefill); elapsed >= b.limit.Window {
		windows := elapsed / b.limit.Window
		b.tokens = b.limit.Capacity
		b.lastRefill = b.lastRefill.Add(windows * b.limit.Window)
	}

	b.lastSeen = now

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// TrackedClients は現在追跡中のバケット数を返す
func (l *Limiter) TrackedClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// getOrCreate はバケットを取得または遅延生成する
// 呼び出し側でロックを取得していることを前提とする
func (l *Limiter) getOrCreate(key bucketKey, limit Limit, now time.Time) *bucket {
	if elem, ok := l.buckets[key]; ok {
		l.idle.MoveToFront(elem)
		return elem.Value.(*bucket)
	}

	b := &bucket{
		key:        key,
		limit:      limit,
		tokens:     limit.Capacity,
		lastRefill: now,
		lastSeen:   now,
	}
	l.buckets[key] = l.idle.PushFront(b)

	// キー総数の上限を超えたら最古のアイドルバケットを追い出す
	for len(l.buckets) > l.cfg.MaxTrackedClients {
		oldest := l.idle.Back()
		if oldest == nil {
			break
		}
		l.idle.Remove(oldest)
		delete(l.buckets, oldest.Value.(*bucket).key)
	}

	return b
}

// evictExpired はアイドル期限切れのバケットを末尾から破棄する
// 呼び出し側でロックを取得していることを前提とする
func (l *Limiter) evictExpired(now time.Time) {
	for {
		oldest := l.idle.Back()
		if oldest == nil {
			return
		}
		b := oldest.Value.(*bucket)
		if now.Sub(b.lastSeen) < l.cfg.IdleExpiration {
			return
		}
		l.idle.Remove(oldest)
		delete(l.buckets, b.key)
	}
}
