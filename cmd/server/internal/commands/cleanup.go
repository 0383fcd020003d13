package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/mpg-calculator/internal/server"
)

type CleanupCmd struct {
	DB StoreFlags `embed:""`
}

func (c *CleanupCmd) Run(ctx context.Context, globals *Globals) error {
	logger := globals.Logger()

	cfg, err := c.DB.config()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer srv.Close()

	deleted, err := srv.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	logger.Info("cleanup finished", slog.Int64("deleted", deleted))
	return nil
}
