package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/statusdeck/statusdeck/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Status  commands.StatusCmd `cmd:"" help:"Fetch an organization's public status page"`
		Watch   commands.WatchCmd  `cmd:"" help:"Follow an organization's live status feed"`
		Debug   bool               `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
