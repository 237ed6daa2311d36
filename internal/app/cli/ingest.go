package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/george/smart-hire/internal/core/ingestion"
)

// IngestAction はJSONファイルから求人を一括取り込みするコマンドのアクション
func IngestAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	path := cmd.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("求人ファイルの読み込みに失敗: %w", err)
	}

	var inputs []ingestion.PostingInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("求人ファイルの解析に失敗: %w", err)
	}

	count, err := appCtx.Container.IngestionService.IngestPostings(ctx, inputs)
	if err != nil {
		return fmt.Errorf("求人の取り込みに失敗: %w", err)
	}

	appCtx.Logger().Info("ingestion finished", "file", path, "count", count)
	return nil
}
