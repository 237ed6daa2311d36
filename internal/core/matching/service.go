package matching

import (
	"context"
	"log/slog"
	"time"
)

// EmbeddingSource はプロフィール文字列のEmbedding取得を抽象化する
// （キャッシュ層が実装する）
type EmbeddingSource interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Service はマッチングのユースケースを提供する
// 正規化 → Embedding取得 → パイプライン構築 → ストア実行 → 変換・理由付与 を合成する
type Service struct {
	repo       Repository
	embeddings EmbeddingSource
	normalizer *Normalizer
	explainer  *Explainer
	log        *slog.Logger
}

// NewService は新しい Service を作成する
func NewService(repo Repository, embeddings EmbeddingSource, normalizer *Normalizer, explainer *Explainer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:       repo,
		embeddings: embeddings,
		normalizer: normalizer,
		explainer:  explainer,
		log:        log,
	}
}

// FindMatches はプロフィールに基づいて求人をベクトル類似度で検索する
// limit / minConfidence は任意（nil で既定値）
//
// マッピング・理由生成に失敗したヒットはスキップして処理を続行する。
// 1件の不正レコードがマッチング全体を失敗させてはならない
func (s *Service) FindMatches(ctx context.Context, profileText string, limit *int, minConfidence *float64) ([]*MatchResult, error) {
	start := time.Now()

	query, err := s.normalizer.Normalize(profileText, limit, minConfidence)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embeddings.GetEmbedding(ctx, query.ProfileText)
	if err != nil {
		if KindOf(err) != KindUnknown {
			return nil, err
		}
		return nil, Wrap(KindEmbeddingProvider, "failed to generate profile embedding", err)
	}

	pipeline, err := BuildPipeline(embedding, query.Limit, query.MinConfidence)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ExecutePipeline(ctx, pipeline)
	if err != nil {
		return nil, Wrap(KindStore, "failed to execute vector search", err)
	}

	matches := make([]*MatchResult, 0, len(records))
	for _, rec := range records {
		job := ToJobPosting(rec)
		if job == nil {
			s.log.Warn("skipping unmappable search hit")
			continue
		}
		confidence, reasons := s.explainer.Explain(rec, query.ProfileText)
		matches = append(matches, &MatchResult{
			Job:        job,
			Confidence: confidence,
			Reasons:    reasons,
		})
	}

	s.log.Info("job matching completed",
		"profileLength", len(query.ProfileText),
		"limit", query.Limit,
		"minConfidence", query.MinConfidence,
		"hits", len(records),
		"matches", len(matches),
		"durationMs", time.Since(start).Milliseconds(),
	)

	return matches, nil
}
