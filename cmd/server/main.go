// Command server runs the MPG calculator session API.
//
// Configuration comes from flags or MPG_* environment variables; see
// `server --help`. With no subcommand it serves HTTP.
package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/sakif/mpg-calculator/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		LogLevel string           `help:"Log level." default:"info" enum:"debug,info,warn,error" env:"MPG_LOG_LEVEL"`
		Version  kong.VersionFlag `help:"Print the version and exit."`

		Serve   commands.ServeCmd   `cmd:"" default:"withargs" help:"Start the HTTP server"`
		Cleanup commands.CleanupCmd `cmd:"" help:"Delete expired anonymous sessions and exit"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("server"),
		kong.Description("MPG calculator session server."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{LogLevel: cli.LogLevel, Version: version})
	cmd.FatalIfErrorf(err)
}
