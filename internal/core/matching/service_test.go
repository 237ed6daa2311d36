package matching

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, repo *mockRepository, embeddings *mockEmbeddingSource) *Service {
	t.Helper()
	explainer, err := NewExplainer(DefaultThresholds(), nil)
	require.NoError(t, err)
	return NewService(repo, embeddings, NewNormalizer(testNormalizerConfig()), explainer, nil)
}

func TestFindMatches(t *testing.T) {
	ctx := context.Background()

	t.Run("ヒットをマッチ結果に変換し理由を付与する", func(t *testing.T) {
		repo := &mockRepository{
			ExecutePipelineFunc: func(ctx context.Context, pipeline Pipeline) ([]Record, error) {
				return []Record{
					{
						FieldID:            "job-1",
						FieldTitle:         "Java Developer",
						FieldDescription:   "Backend role",
						FieldExperience:    int32(3),
						FieldRequiredTechs: []string{"Java", "Spring"},
						FieldScore:         0.82,
					},
				}, nil
			},
		}
		embeddings := &mockEmbeddingSource{
			GetEmbeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{0.1, 0.2, 0.3}, nil
			},
		}
		svc := newTestService(t, repo, embeddings)

		matches, err := svc.FindMatches(ctx, "5 years experience with Java and Spring Boot", nil, nil)
		require.NoError(t, err)
		require.Len(t, matches, 1)

		m := matches[0]
		assert.Equal(t, "job-1", m.Job.ID)
		assert.Equal(t, 0.82, m.Confidence)
		require.NotEmpty(t, m.Reasons)
		assert.Contains(t, m.Reasons[0], "Very strong semantic match")
		assert.Contains(t, m.Reasons, "Matching technologies: Java, Spring")
		assert.Contains(t, m.Reasons, "Experience level meets requirement (3+ years)")
	})

	t.Run("正規化済みプロフィールでEmbeddingを取得する", func(t *testing.T) {
		repo := &mockRepository{
			ExecutePipelineFunc: func(ctx context.Context, pipeline Pipeline) ([]Record, error) {
				return nil, nil
			},
		}
		embeddings := &mockEmbeddingSource{
			GetEmbeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{0.5}, nil
			},
		}
		svc := newTestService(t, repo, embeddings)

		// 上限2000文字を超えるプロフィールは切り詰めてからEmbedding取得
		long := strings.Repeat("a", 3000)
		_, err := svc.FindMatches(ctx, long, nil, nil)
		require.NoError(t, err)
		require.Len(t, embeddings.requestedTexts, 1)
		assert.Len(t, embeddings.requestedTexts[0], 2000)
	})

	t.Run("limitとminConfidenceがパイプラインへ伝播する", func(t *testing.T) {
		repo := &mockRepository{
			ExecutePipelineFunc: func(ctx context.Context, pipeline Pipeline) ([]Record, error) {
				return nil, nil
			},
		}
		embeddings := &mockEmbeddingSource{
			GetEmbeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{0.5}, nil
			},
		}
		svc := newTestService(t, repo, embeddings)

		_, err := svc.FindMatches(ctx, "profile", intPtr(5), floatPtr(0.7))
		require.NoError(t, err)
		require.Len(t, repo.executedPipelines, 1)

		pipeline := repo.executedPipelines[0]
		require.Len(t, pipeline.Stages, 4)

		knn, ok := pipeline.Stages[0].(KNNStage)
		require.True(t, ok)
		assert.Equal(t, 10, knn.K)

		filter, ok := pipeline.Stages[2].(FilterStage)
		require.True(t, ok)
		assert.Equal(t, 0.7, filter.MinScore)

		limit, ok := pipeline.Stages[3].(LimitStage)
		require.True(t, ok)
		assert.Equal(t, 5, limit.N)
	})

	t.Run("空のプロフィールはKindInvalidArgument", func(t *testing.T) {
		svc := newTestService(t, &mockRepository{}, &mockEmbeddingSource{})

		_, err := svc.FindMatches(ctx, "   ", nil, nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindInvalidArgument))
	})

	t.Run("Embedding取得失敗はKindEmbeddingProvider", func(t *testing.T) {
		embeddings := &mockEmbeddingSource{
			GetEmbeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("api unavailable")
			},
		}
		svc := newTestService(t, &mockRepository{}, embeddings)

		_, err := svc.FindMatches(ctx, "profile", nil, nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindEmbeddingProvider))
	})

	t.Run("Kind付きのEmbeddingエラーは二重ラップしない", func(t *testing.T) {
		embeddings := &mockEmbeddingSource{
			GetEmbeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
				return nil, E(KindRateLimited, "embedding quota exhausted")
			},
		}
		svc := newTestService(t, &mockRepository{}, embeddings)

		_, err := svc.FindMatches(ctx, "profile", nil, nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindRateLimited))
	})

	t.Run("ストア実行失敗はKindStore", func(t *testing.T) {
		repo := &mockRepository{
			ExecutePipelineFunc: func(ctx context.Context, pipeline Pipeline) ([]Record, error) {
				return nil, errors.New("connection reset")
			},
		}
		embeddings := &mockEmbeddingSource{
			GetEmbeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{0.5}, nil
			},
		}
		svc := newTestService(t, repo, embeddings)

		_, err := svc.FindMatches(ctx, "profile", nil, nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindStore))
	})

	t.Run("ヒット0件は空スライスを返す", func(t *testing.T) {
		repo := &mockRepository{
			ExecutePipelineFunc: func(ctx context.Context, pipeline Pipeline) ([]Record, error) {
				return nil, nil
			},
		}
		embeddings := &mockEmbeddingSource{
			GetEmbeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{0.5}, nil
			},
		}
		svc := newTestService(t, repo, embeddings)

		matches, err := svc.FindMatches(ctx, "profile", nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
	})

	t.Run("nilレコードはスキップして続行する", func(t *testing.T) {
		repo := &mockRepository{
			ExecutePipelineFunc: func(ctx context.Context, pipeline Pipeline) ([]Record, error) {
				return []Record{
					nil,
					{FieldID: "job-2", FieldTitle: "Engineer", FieldScore: 0.5},
				}, nil
			},
		}
		embeddings := &mockEmbeddingSource{
			GetEmbeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{0.5}, nil
			},
		}
		svc := newTestService(t, repo, embeddings)

		matches, err := svc.FindMatches(ctx, "profile", nil, nil)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "job-2", matches[0].Job.ID)
	})
}
