package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// MatchAction はプロフィールに対するマッチング検索を実行するコマンドのアクション
func MatchAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	profile := cmd.String("profile")

	var limit *int
	if cmd.IsSet("limit") {
		v := cmd.Int("limit")
		limit = &v
	}

	var minConfidence *float64
	if cmd.IsSet("min-confidence") {
		v := cmd.Float("min-confidence")
		minConfidence = &v
	}

	matches, err := appCtx.Container.MatchingService.FindMatches(ctx, profile, limit, minConfidence)
	if err != nil {
		return fmt.Errorf("マッチングに失敗: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(matches)
}
