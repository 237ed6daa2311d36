package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/george/smart-hire/internal/app/server"
)

// ServeAction はHTTPサーバを起動するコマンドのアクション
func ServeAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	port := appCtx.Container.Config().Server.Port
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	return server.New(appCtx.Container).Run(port)
}
