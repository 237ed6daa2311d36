package matching

import "context"

// Repository はドキュメントストアに対する検索実行を抽象化する
// ストアは宣言的なパイプラインを受け取り、順序付きのレコード列を返す
type Repository interface {
	// ExecutePipeline はパイプラインをストア上で実行する
	// 返り値の並びはストアのスコア降順（この層では再ソートしない）
	ExecutePipeline(ctx context.Context, pipeline Pipeline) ([]Record, error)
}
