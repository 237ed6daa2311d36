package matching

// Pipeline はドキュメントストアが解釈する宣言的な検索ステージ列
// ステージの順序に意味があり、ストア側がこの順で適用する
type Pipeline struct {
	Stages []Stage
}

// Stage は検索パイプラインの1ステージ
type Stage interface {
	stageName() string
}

// KNNStage はベクトル近傍検索ステージ
type KNNStage struct {
	// Vector は検索クエリのEmbedding
	Vector []float32
	// Field は検索対象のベクトルフィールド名
	Field string
	// K は取得する近傍候補数
	K int
}

func (KNNStage) stageName() string { return "knn" }

// ProjectStage は射影ステージ
// 表示用フィールドに加え、ストアのネイティブ類似度スコアを score として計算する
type ProjectStage struct {
	Fields       []string
	IncludeScore bool
}

func (ProjectStage) stageName() string { return "project" }

// FilterStage はスコアが下限未満のヒットを除外するステージ
type FilterStage struct {
	MinScore float64
}

func (FilterStage) stageName() string { return "filter" }

// LimitStage は結果件数を切り詰めるステージ
// 並びはステージ1の降順スコアのまま（ストアが順位の権威であり、この層では再ソートしない）
type LimitStage struct {
	N int
}

func (LimitStage) stageName() string { return "limit" }

// EmbeddingField はベクトル検索の対象フィールド名
const EmbeddingField = "embedding"

// displayFields は検索結果に含める求人の表示フィールド
var displayFields = []string{
	FieldTitle,
	FieldDescription,
	FieldExperience,
	FieldRequiredTechs,
	FieldCompany,
	FieldLocation,
	FieldEmploymentType,
	FieldSalaryMin,
	FieldSalaryMax,
	FieldCurrency,
}

// BuildPipeline は正規化済みリクエストから検索パイプラインを組み立てる
//
// kNNステージは limit の2倍の候補を要求する。ステージ3の信頼度フィルタが
// ヒットを捨てる可能性があるため、多めに取得して最終的に limit 件を
// 返せる確率を上げる（その分の候補スコアリングコストは許容する）
func BuildPipeline(embedding []float32, limit int, minConfidence float64) (Pipeline, error) {
	// 正規化済み入力ではどちらも発生しない条件
	if len(embedding) == 0 {
		return Pipeline{}, E(KindQueryBuild, "embedding must not be empty")
	}
	if limit <= 0 {
		return Pipeline{}, E(KindQueryBuild, "limit must be positive")
	}

	stages := []Stage{
		KNNStage{
			Vector: embedding,
			Field:  EmbeddingField,
			K:      limit * 2,
		},
		ProjectStage{
			Fields:       displayFields,
			IncludeScore: true,
		},
	}

	if minConfidence > 0 {
		stages = append(stages, FilterStage{MinScore: minConfidence})
	}

	stages = append(stages, LimitStage{N: limit})

	return Pipeline{Stages: stages}, nil
}
