package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/mpg-calculator/internal/server"
)

type ServeCmd struct {
	Listen          string        `help:"HTTP listen address." default:"localhost:8080" env:"MPG_LISTEN"`
	CORSOrigins     []string      `help:"Origins allowed to call the API with credentials." env:"MPG_CORS_ORIGINS"`
	CleanupInterval time.Duration `help:"How often to delete expired anonymous sessions (0 disables)." default:"24h" env:"MPG_CLEANUP_INTERVAL"`

	DB StoreFlags `embed:""`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	logger := globals.Logger()

	cfg, err := s.DB.config()
	if err != nil {
		return err
	}
	cfg.Listen = s.Listen
	cfg.CORSOrigins = s.CORSOrigins
	cfg.CleanupInterval = s.CleanupInterval

	logger.Info("starting mpg calculator", slog.String("version", globals.Version))

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Start blocks until SIGINT/SIGTERM.
	return srv.Start(ctx)
}
