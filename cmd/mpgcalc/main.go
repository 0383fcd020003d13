// Command mpgcalc compares the monthly cost of two cars from the terminal.
package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/sakif/mpg-calculator/cmd/mpgcalc/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Compare commands.CompareCmd `cmd:"" default:"withargs" help:"Compare the current car against a new one"`
		Debug   bool                `help:"Enable debug logging."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("mpgcalc"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
