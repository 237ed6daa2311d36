package matching

import (
	"errors"
	"fmt"
)

// Kind はエラーの分類を表す
type Kind int

const (
	// KindUnknown は分類されていない内部エラー
	KindUnknown Kind = iota

	// KindInvalidArgument は不正な入力（クライアントエラー、リトライ不可）
	KindInvalidArgument

	// KindEmbeddingProvider はEmbeddingプロバイダの障害（サーバエラー、呼び出し側でリトライ可）
	KindEmbeddingProvider

	// KindQueryBuild はクエリ構築時の不変条件違反（正規化済み入力では発生しないはずのバグシグナル）
	KindQueryBuild

	// KindStore はドキュメントストアの接続・検索障害
	KindStore

	// KindRateLimited は流量制限による拒否（汎用サーバエラーに包まない）
	KindRateLimited
)

// String は Kind の文字列表現を返す
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindEmbeddingProvider:
		return "embedding_provider_error"
	case KindQueryBuild:
		return "query_build_error"
	case KindStore:
		return "store_error"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Error は分類とメッセージ、原因を持つエラー型
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

// E は原因を持たないエラーを作成する
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap は原因を保持したままエラーを分類する
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap は原因エラーを返す
func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf はエラーの分類を返す
// 分類されていないエラーは KindUnknown
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUnknown
}

// IsKind はエラーが指定の分類かどうかを返す
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
