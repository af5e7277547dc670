package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/selvage/pkg/desktop"
)

func runDesktopCommand(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	app := desktop.NewApp(s.cfg,
		desktop.WithLogger(s.log),
		desktop.WithMetrics(s.metrics),
		desktop.WithSnapshots(s.snaps))

	return wails.Run(&options.App{
		Title:  "selvage",
		Width:  1200,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: desktop.Assets(),
		},
		OnStartup: func(ctx context.Context) {
			app.Startup(ctx)
			if len(args) == 1 {
				if res := app.Open(args[0]); len(res.Errors) > 0 {
					s.log.Warn("open failed", "path", args[0], "error", res.Errors[0].Message)
				}
			}
		},
		OnShutdown: app.Shutdown,
		Bind:       []interface{}{app},
	})
}
