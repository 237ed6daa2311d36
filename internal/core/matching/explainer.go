package matching

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// プロフィールから経験年数を抽出するパターン（最初のマッチを採用）
var experienceRe = regexp.MustCompile(`(?i)(\d+)\s*(?:years?|yrs?|yr)\s*(?:of\s*)?experience`)

// 職種タイトルを語に分割するパターン
var titleTermRe = regexp.MustCompile(`[\s-]+`)

// techKeywords は技術キーワードの固定語彙
// 求人側の表記とプロフィール側の表記が完全一致しない場合でも、
// 双方がこの語彙の同じエントリを含んでいればマッチとみなす
var techKeywords = []string{
	"java", "python", "javascript", "typescript", "react", "angular", "vue",
	"node", "spring", "django", "flask", "express", "mongodb", "postgresql",
	"mysql", "redis", "docker", "kubernetes", "aws", "azure", "gcp",
	"git", "ci/cd", "microservices", "rest", "graphql", "sql", "nosql",
}

// Thresholds はスコア帯の閾値設定
// Moderate < Good < VeryStrong を満たすこと
type Thresholds struct {
	VeryStrong float64
	Good       float64
	Moderate   float64
}

// DefaultThresholds は既定のスコア閾値
func DefaultThresholds() Thresholds {
	return Thresholds{VeryStrong: 0.8, Good: 0.6, Moderate: 0.4}
}

// Validate は閾値の順序と範囲を検証する
func (t Thresholds) Validate() error {
	if !(t.Moderate < t.Good && t.Good < t.VeryStrong) {
		return fmt.Errorf("thresholds must satisfy moderate < good < veryStrong, got %v < %v < %v",
			t.Moderate, t.Good, t.VeryStrong)
	}
	for _, v := range []float64{t.Moderate, t.Good, t.VeryStrong} {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %v is out of range [0,1]", v)
		}
	}
	return nil
}

// Explainer はヒットに人間可読なマッチ理由を付与する
type Explainer struct {
	thresholds Thresholds
	log        *slog.Logger
}

// NewExplainer は新しい Explainer を作成する
// 閾値が不正な場合はエラーを返す
func NewExplainer(thresholds Thresholds, log *slog.Logger) (*Explainer, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid explainer thresholds: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Explainer{thresholds: thresholds, log: log}, nil
}

// Explain はヒット1件のスコアと理由リストを返す
//
// 信頼度はレコードの生スコアそのもの（欠損時は0.0）で、理由の数や内容には依存しない。
// 理由リストは空にならない。理由生成中の内部エラーはマッチ全体を失敗させず、
// 汎用理由に差し替える
func (e *Explainer) Explain(rec Record, profileText string) (float64, []string) {
	score, _ := rec.Float(FieldScore)

	reasons := e.generateReasons(rec, profileText, score)
	if len(reasons) == 0 {
		reasons = []string{"Potential match"}
	}
	return score, reasons
}

func (e *Explainer) generateReasons(rec Record, profileText string, score float64) (reasons []string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("match reason generation failed", "panic", r)
			reasons = []string{"Match found"}
		}
	}()

	// スコア帯の理由（最大1件）
	switch {
	case score >= e.thresholds.VeryStrong:
		reasons = append(reasons, fmt.Sprintf("Very strong semantic match (confidence: %.2f)", score))
	case score >= e.thresholds.Good:
		reasons = append(reasons, fmt.Sprintf("Good semantic match (confidence: %.2f)", score))
	case score >= e.thresholds.Moderate:
		reasons = append(reasons, fmt.Sprintf("Moderate semantic match (confidence: %.2f)", score))
	}

	profileLower := strings.ToLower(profileText)

	// 技術スタックの一致
	if techs, ok := rec.StringList(FieldRequiredTechs); ok && len(techs) > 0 {
		var matched []string
		for _, tech := range techs {
			if techMatchesProfile(tech, profileLower) {
				matched = append(matched, tech)
			}
		}
		if len(matched) > 0 {
			reasons = append(reasons, "Matching technologies: "+strings.Join(matched, ", "))
		}
	}

	// 経験年数の充足
	if requiredExp, ok := rec.Int(FieldExperience); ok {
		if extractExperienceYears(profileText) >= requiredExp {
			reasons = append(reasons, fmt.Sprintf("Experience level meets requirement (%d+ years)", requiredExp))
		}
	}

	// 職種タイトルとの関連
	if title, ok := rec.String(FieldTitle); ok && isTitleRelevant(title, profileLower) {
		reasons = append(reasons, "Job title aligns with profile")
	}

	return reasons
}

// techMatchesProfile は求人側の技術がプロフィールに含まれるかを判定する
// 直接の部分一致、または固定語彙の同一キーワードを双方が含む場合にマッチ
func techMatchesProfile(tech, profileLower string) bool {
	techLower := strings.ToLower(tech)
	if strings.Contains(profileLower, techLower) {
		return true
	}
	for _, keyword := range techKeywords {
		if strings.Contains(techLower, keyword) && strings.Contains(profileLower, keyword) {
			return true
		}
	}
	return false
}

// extractExperienceYears はプロフィールから経験年数を抽出する
// マッチしない場合は0を返す
func extractExperienceYears(profile string) int {
	m := experienceRe.FindStringSubmatch(profile)
	if m == nil {
		return 0
	}
	years, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return years
}

// isTitleRelevant は職種タイトルの主要語がプロフィールに現れるかを判定する
func isTitleRelevant(title, profileLower string) bool {
	terms := titleTermRe.Split(strings.ToLower(title), -1)
	for _, term := range terms {
		if len(term) > 3 && strings.Contains(profileLower, term) {
			return true
		}
	}
	return false
}
