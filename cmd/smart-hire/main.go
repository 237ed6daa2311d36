package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	appcli "github.com/george/smart-hire/internal/app/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "smart-hire",
		Usage: "求人プロフィールのセマンティックマッチングサービス",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "HTTPサーバを起動",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "HTTPポート（省略時は環境変数またはデフォルトの8080）",
					},
				},
				Action: appcli.ServeAction,
			},
			{
				Name:  "match",
				Usage: "プロフィールに合う求人を検索",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "profile",
						Usage:    "スキルと希望を記述したプロフィール文字列",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "最大取得件数",
					},
					&cli.FloatFlag{
						Name:  "min-confidence",
						Usage: "信頼度スコアの下限 [0,1]",
					},
				},
				Action: appcli.MatchAction,
			},
			{
				Name:  "ingest",
				Usage: "JSONファイルから求人を一括取り込み",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "file",
						Usage:    "求人リストのJSONファイルパス",
						Required: true,
					},
				},
				Action: appcli.IngestAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
