package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/george/smart-hire/internal/core/embedding"
	"github.com/george/smart-hire/internal/core/matching"
)

const (
	// embedBatchSize はプロバイダの一括生成上限
	embedBatchSize = 100

	// maxEmbeddingTokens はEmbeddingモデルの入力トークン上限
	maxEmbeddingTokens = 8192

	// tokenEncoding はトークン数の見積もりに使うエンコーディング
	tokenEncoding = "cl100k_base"
)

// PostingInput は取り込み対象の求人1件の入力
type PostingInput struct {
	Title          string   `json:"jobTitle"`
	Description    string   `json:"jobDescription"`
	Experience     *int     `json:"experience,omitempty"`
	RequiredTechs  []string `json:"requiredTechs,omitempty"`
	Company        *string  `json:"company,omitempty"`
	Location       *string  `json:"location,omitempty"`
	EmploymentType *string  `json:"employmentType,omitempty"`
	SalaryMin      *float64 `json:"salaryMin,omitempty"`
	SalaryMax      *float64 `json:"salaryMax,omitempty"`
	Currency       *string  `json:"currency,omitempty"`
}

// Repository は求人とEmbeddingの永続化を抽象化する
type Repository interface {
	// InsertPosting は求人とそのEmbeddingを保存し、IDを返す
	InsertPosting(ctx context.Context, posting *matching.JobPosting, vector []float32) (string, error)
}

// Service は求人のバルク取り込みを提供する
// タイトルと説明文を連結したテキストを一括Embeddingし、ベクトルと共に保存する
type Service struct {
	repo     Repository
	embedder embedding.Provider
	encoder  *tiktoken.Tiktoken
	log      *slog.Logger
}

// NewService は新しい Service を作成する
func NewService(repo Repository, embedder embedding.Provider, log *slog.Logger) (*Service, error) {
	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		embedder: embedder,
		encoder:  encoder,
		log:      log,
	}, nil
}

// IngestPostings は求人を一括で取り込み、保存した件数を返す
func (s *Service) IngestPostings(ctx context.Context, inputs []PostingInput) (int, error) {
	if len(inputs) == 0 {
		return 0, matching.E(matching.KindInvalidArgument, "no postings provided")
	}

	texts := make([]string, 0, len(inputs))
	for i, input := range inputs {
		text, err := s.embeddingText(input)
		if err != nil {
			return 0, fmt.Errorf("posting %d: %w", i, err)
		}
		texts = append(texts, text)
	}

	inserted := 0
	for offset := 0; offset < len(inputs); offset += embedBatchSize {
		end := offset + embedBatchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		vectors, err := s.embedder.BatchEmbed(ctx, texts[offset:end])
		if err != nil {
			return inserted, fmt.Errorf("failed to embed postings %d-%d: %w", offset, end-1, err)
		}
		if len(vectors) != end-offset {
			return inserted, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), end-offset)
		}

		for i, vector := range vectors {
			input := inputs[offset+i]
			id, err := s.repo.InsertPosting(ctx, toPosting(input), vector)
			if err != nil {
				return inserted, fmt.Errorf("failed to store posting %q: %w", input.Title, err)
			}
			inserted++
			s.log.Debug("posting ingested", "id", id, "title", input.Title)
		}
	}

	s.log.Info("posting ingestion completed", "count", inserted)
	return inserted, nil
}

// embeddingText は検証済みのEmbedding入力テキストを組み立てる
func (s *Service) embeddingText(input PostingInput) (string, error) {
	if input.Title == "" {
		return "", matching.E(matching.KindInvalidArgument, "job title is required")
	}
	if input.Description == "" {
		return "", matching.E(matching.KindInvalidArgument, "job description is required")
	}

	text := matching.PreprocessText(input.Title + ". " + input.Description)

	// モデルのコンテキスト長を超える入力は黙って切り詰めず、取り込み時に弾く
	if tokens := len(s.encoder.Encode(text, nil, nil)); tokens > maxEmbeddingTokens {
		return "", matching.E(matching.KindInvalidArgument,
			fmt.Sprintf("posting text is too long: %d tokens exceeds limit of %d", tokens, maxEmbeddingTokens))
	}

	return text, nil
}

// toPosting は入力を JobPosting に変換する
func toPosting(input PostingInput) *matching.JobPosting {
	return &matching.JobPosting{
		Title:          input.Title,
		Description:    input.Description,
		Experience:     input.Experience,
		RequiredTechs:  input.RequiredTechs,
		Company:        input.Company,
		Location:       input.Location,
		EmploymentType: input.EmploymentType,
		SalaryMin:      input.SalaryMin,
		SalaryMax:      input.SalaryMax,
		Currency:       input.Currency,
	}
}
