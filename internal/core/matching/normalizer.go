package matching

import (
	"regexp"
	"strings"
)

// 連続する空白文字を1つに畳み込むためのパターン
var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizerConfig はパラメータ正規化の設定
type NormalizerConfig struct {
	DefaultLimit         int
	MaxLimit             int
	DefaultMinConfidence float64
	MaxProfileLength     int
}

// Normalizer はマッチングリクエストの入力値を安全な範囲に正規化する
type Normalizer struct {
	cfg NormalizerConfig
}

// NewNormalizer は新しい Normalizer を作成する
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Normalize はプロフィール文字列・件数上限・信頼度下限を検証して NormalizedQuery を返す
// プロフィールが空の場合のみエラーになる。limit と minConfidence が不正な場合は
// エラーにせずデフォルト値へ置き換える（意図的な寛容動作）
func (n *Normalizer) Normalize(profileText string, limit *int, minConfidence *float64) (NormalizedQuery, error) {
	if strings.TrimSpace(profileText) == "" {
		return NormalizedQuery{}, E(KindInvalidArgument, "user profile cannot be empty")
	}

	processed := PreprocessText(profileText)
	// 切り詰めはエラーではなく、先頭部分のみを残す
	// 上限は文字数で数え、マルチバイト文字の途中で切らない
	if r := []rune(processed); len(r) > n.cfg.MaxProfileLength {
		processed = string(r[:n.cfg.MaxProfileLength])
	}

	normalizedLimit := n.cfg.DefaultLimit
	if limit != nil && *limit > 0 && *limit <= n.cfg.MaxLimit {
		normalizedLimit = *limit
	}

	normalizedMinConfidence := n.cfg.DefaultMinConfidence
	if minConfidence != nil && *minConfidence >= 0.0 && *minConfidence <= 1.0 {
		normalizedMinConfidence = *minConfidence
	}

	return NormalizedQuery{
		ProfileText:   processed,
		Limit:         normalizedLimit,
		MinConfidence: normalizedMinConfidence,
	}, nil
}

// PreprocessText はEmbedding生成前のテキスト整形を行う
// 前後の空白を除去し、内部の連続空白を1つのスペースに畳み込む
func PreprocessText(text string) string {
	processed := strings.TrimSpace(text)
	if processed == "" {
		return ""
	}
	return whitespaceRe.ReplaceAllString(processed, " ")
}
