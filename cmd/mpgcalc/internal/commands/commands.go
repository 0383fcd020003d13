package commands

import (
	"log/slog"
	"os"
)

type Globals struct {
	Debug   bool
	Version string
}

// Logger writes to stderr so stdout carries only the comparison.
func (g *Globals) Logger() *slog.Logger {
	level := slog.LevelWarn
	if g.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
