package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/george/smart-hire/internal/core/ingestion"
	"github.com/george/smart-hire/internal/core/matching"
)

// fieldColumns はレコードのフィールドキーとテーブル列の対応
var fieldColumns = map[string]string{
	matching.FieldTitle:          "job_title",
	matching.FieldDescription:    "job_description",
	matching.FieldExperience:     "experience",
	matching.FieldRequiredTechs:  "required_techs",
	matching.FieldCompany:        "company",
	matching.FieldLocation:       "location",
	matching.FieldEmploymentType: "employment_type",
	matching.FieldSalaryMin:      "salary_min",
	matching.FieldSalaryMax:      "salary_max",
	matching.FieldCurrency:       "currency",
}

// scanFields は射影ステージに要求するフィールドの並び（行スキャンの列順と一致させる）
var scanFields = []string{
	matching.FieldTitle,
	matching.FieldDescription,
	matching.FieldExperience,
	matching.FieldRequiredTechs,
	matching.FieldCompany,
	matching.FieldLocation,
	matching.FieldEmploymentType,
	matching.FieldSalaryMin,
	matching.FieldSalaryMax,
	matching.FieldCurrency,
}

// PostingRepository は求人の保存とベクトル検索を提供する PostgreSQL リポジトリ
// pgvector のコサイン距離演算子で kNN を実行し、類似度 (1 - 距離) を score として返す
type PostingRepository struct {
	pool *pgxpool.Pool
}

// NewPostingRepository は新しい PostingRepository を返す
func NewPostingRepository(pool *pgxpool.Pool) *PostingRepository {
	return &PostingRepository{pool: pool}
}

var (
	_ matching.Repository  = (*PostingRepository)(nil)
	_ ingestion.Repository = (*PostingRepository)(nil)
)

// ExecutePipeline は宣言的パイプラインをSQLにコンパイルして実行する
// 返り値の並びはスコア降順（ストアが順位の権威）
func (r *PostingRepository) ExecutePipeline(ctx context.Context, pipeline matching.Pipeline) ([]matching.Record, error) {
	query, err := compilePipeline(pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to compile search pipeline: %w", err)
	}

	rows, err := r.pool.Query(ctx, query.sql, query.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search pipeline: %w", err)
	}
	defer rows.Close()

	var records []matching.Record
	for rows.Next() {
		var (
			id             string
			title          *string
			description    *string
			experience     *int32
			requiredTechs  []string
			company        *string
			location       *string
			employmentType *string
			salaryMin      *float64
			salaryMax      *float64
			currency       *string
			score          float64
		)
		if err := rows.Scan(&id, &title, &description, &experience, &requiredTechs,
			&company, &location, &employmentType, &salaryMin, &salaryMax, &currency, &score); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}

		rec := matching.Record{
			matching.FieldID:    id,
			matching.FieldScore: score,
		}
		setString(rec, matching.FieldTitle, title)
		setString(rec, matching.FieldDescription, description)
		if experience != nil {
			rec[matching.FieldExperience] = int(*experience)
		}
		if requiredTechs != nil {
			rec[matching.FieldRequiredTechs] = requiredTechs
		}
		setString(rec, matching.FieldCompany, company)
		setString(rec, matching.FieldLocation, location)
		setString(rec, matching.FieldEmploymentType, employmentType)
		setFloat(rec, matching.FieldSalaryMin, salaryMin)
		setFloat(rec, matching.FieldSalaryMax, salaryMax)
		setString(rec, matching.FieldCurrency, currency)

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search hits: %w", err)
	}

	return records, nil
}

// InsertPosting は求人とEmbeddingを保存してIDを返す
func (r *PostingRepository) InsertPosting(ctx context.Context, posting *matching.JobPosting, vector []float32) (string, error) {
	if posting == nil {
		return "", fmt.Errorf("posting is required")
	}
	if len(vector) == 0 {
		return "", fmt.Errorf("embedding vector is required")
	}

	const query = `
		INSERT INTO job_postings (
			id, job_title, job_description, experience, required_techs,
			company, location, employment_type, salary_min, salary_max, currency,
			embedding
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	id := uuid.New().String()
	_, err := r.pool.Exec(ctx, query,
		id,
		posting.Title,
		posting.Description,
		posting.Experience,
		posting.RequiredTechs,
		posting.Company,
		posting.Location,
		posting.EmploymentType,
		posting.SalaryMin,
		posting.SalaryMax,
		posting.Currency,
		pgvector.NewVector(vector),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert posting: %w", err)
	}

	return id, nil
}

// CountPostings は保存済みの求人件数を返す
func (r *PostingRepository) CountPostings(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM job_postings").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count postings: %w", err)
	}
	return count, nil
}

type compiledQuery struct {
	sql  string
	args []any
}

// compilePipeline は宣言的パイプラインをpgvectorクエリに変換する
// ステージの適用順序は kNN → 射影 → 信頼度フィルタ → 件数制限 で固定
func compilePipeline(pipeline matching.Pipeline) (*compiledQuery, error) {
	var (
		knn     *matching.KNNStage
		project *matching.ProjectStage
		filter  *matching.FilterStage
		limit   *matching.LimitStage
	)

	for _, stage := range pipeline.Stages {
		switch st := stage.(type) {
		case matching.KNNStage:
			knn = &st
		case matching.ProjectStage:
			project = &st
		case matching.FilterStage:
			filter = &st
		case matching.LimitStage:
			limit = &st
		default:
			return nil, fmt.Errorf("unsupported pipeline stage: %T", stage)
		}
	}

	if knn == nil {
		return nil, fmt.Errorf("pipeline is missing a kNN stage")
	}
	if project == nil {
		return nil, fmt.Errorf("pipeline is missing a projection stage")
	}
	if limit == nil {
		return nil, fmt.Errorf("pipeline is missing a limit stage")
	}
	if knn.Field != matching.EmbeddingField {
		return nil, fmt.Errorf("unsupported kNN field: %q", knn.Field)
	}
	if !project.IncludeScore {
		return nil, fmt.Errorf("projection stage must include the score field")
	}

	// 行スキャンは列位置に依存するため、射影フィールドの順序を固定する
	if len(project.Fields) != len(scanFields) {
		return nil, fmt.Errorf("unexpected projection field count: %d", len(project.Fields))
	}
	for i, field := range project.Fields {
		if field != scanFields[i] {
			return nil, fmt.Errorf("unexpected projection field order: %q at position %d", field, i)
		}
	}

	columns := make([]string, 0, len(project.Fields)+2)
	columns = append(columns, "id::text AS id")
	for _, field := range project.Fields {
		column, ok := fieldColumns[field]
		if !ok {
			return nil, fmt.Errorf("unknown projection field: %q", field)
		}
		columns = append(columns, column)
	}
	// コサイン距離を類似度に変換して score とする
	columns = append(columns, "1 - (embedding <=> $1) AS score")

	args := []any{pgvector.NewVector(knn.Vector), knn.K}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM (\n")
	sb.WriteString("\tSELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString("\n\tFROM job_postings\n")
	sb.WriteString("\tORDER BY embedding <=> $1\n")
	sb.WriteString("\tLIMIT $2\n")
	sb.WriteString(") AS hits\n")

	if filter != nil {
		args = append(args, filter.MinScore)
		fmt.Fprintf(&sb, "WHERE hits.score >= $%d\n", len(args))
	}

	args = append(args, limit.N)
	fmt.Fprintf(&sb, "ORDER BY hits.score DESC\nLIMIT $%d", len(args))

	return &compiledQuery{sql: sb.String(), args: args}, nil
}

func setString(rec matching.Record, field string, v *string) {
	if v != nil {
		rec[field] = *v
	}
}

func setFloat(rec matching.Record, field string, v *float64) {
	if v != nil {
		rec[field] = *v
	}
}
