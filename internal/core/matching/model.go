package matching

// JobPosting は求人情報を表す
// 任意フィールドはポインタで保持し、欠損値をゼロ値と区別する
type JobPosting struct {
	ID            string   `json:"id"`
	Title         string   `json:"jobTitle"`
	Description   string   `json:"jobDescription"`
	Experience    *int     `json:"experience,omitempty"`
	RequiredTechs []string `json:"requiredTechs,omitempty"`

	Company        *string  `json:"company,omitempty"`
	Location       *string  `json:"location,omitempty"`
	EmploymentType *string  `json:"employmentType,omitempty"`
	SalaryMin      *float64 `json:"salaryMin,omitempty"`
	SalaryMax      *float64 `json:"salaryMax,omitempty"`
	Currency       *string  `json:"currency,omitempty"`
}

// MatchResult はマッチング結果1件を表す
// 構築後は変更されない
type MatchResult struct {
	Job        *JobPosting `json:"job"`
	Confidence float64     `json:"confidence"`
	Reasons    []string    `json:"matchReasons"`
}

// NormalizedQuery は正規化済みのマッチングリクエストを表す
// 1回のマッチング呼び出しが専有し、共有されない
type NormalizedQuery struct {
	ProfileText   string
	Limit         int
	MinConfidence float64
}

// ストアレコードのフィールドキー
const (
	FieldID             = "id"
	FieldTitle          = "jobTitle"
	FieldDescription    = "jobDescription"
	FieldExperience     = "experience"
	FieldRequiredTechs  = "requiredTechs"
	FieldCompany        = "company"
	FieldLocation       = "location"
	FieldEmploymentType = "employmentType"
	FieldSalaryMin      = "salaryMin"
	FieldSalaryMax      = "salaryMax"
	FieldCurrency       = "currency"
	FieldScore          = "score"
)
