package matching

import (
	"context"
)

// mockRepository は Repository のテスト用実装
type mockRepository struct {
	ExecutePipelineFunc func(ctx context.Context, pipeline Pipeline) ([]Record, error)

	executedPipelines []Pipeline
}

func (m *mockRepository) ExecutePipeline(ctx context.Context, pipeline Pipeline) ([]Record, error) {
	m.executedPipelines = append(m.executedPipelines, pipeline)
	return m.ExecutePipelineFunc(ctx, pipeline)
}

// mockEmbeddingSource は EmbeddingSource のテスト用実装
type mockEmbeddingSource struct {
	GetEmbeddingFunc func(ctx context.Context, text string) ([]float32, error)

	requestedTexts []string
}

func (m *mockEmbeddingSource) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.requestedTexts = append(m.requestedTexts, text)
	return m.GetEmbeddingFunc(ctx, text)
}
