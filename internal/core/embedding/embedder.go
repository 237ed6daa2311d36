package embedding

import (
	"context"
	"errors"
)

// ErrEmptyEmbedding はプロバイダが空のベクトルを返した場合のエラー
// サービス障害とは区別して扱う
var ErrEmptyEmbedding = errors.New("embedding provider returned an empty result")

// Provider はテキストをベクトル表現に変換する外部プロバイダのインターフェース
type Provider interface {
	// Embed は単一テキストのEmbeddingを生成する
	Embed(ctx context.Context, text string) ([]float32, error)

	// BatchEmbed は複数テキストのEmbeddingを一括生成する
	// （バルクインジェスト経路で使用。マッチング経路は Embed のみ）
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension はEmbeddingベクトルの次元数を返す
	Dimension() int
}
