package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/mpg-calculator/internal/server"
)

type Globals struct {
	LogLevel string
	Version  string
}

// Logger builds the process logger: text lines on stdout at the configured level.
func (g *Globals) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// StoreFlags select and configure the session store. Every command that
// touches the database embeds them.
type StoreFlags struct {
	Store         string `help:"Session store." default:"sqlite" enum:"sqlite,postgres" env:"MPG_STORE"`
	DBPath        string `help:"SQLite database file." default:"data/mpg.db" env:"MPG_DB_PATH"`
	PostgresURL   string `help:"PostgreSQL connection string." env:"MPG_POSTGRES_URL"`
	SecretKeyBase string `help:"Secret the session cookie key is derived from." env:"MPG_SECRET_KEY_BASE"`
	Production    bool   `help:"Secure cookies and a mandatory secret." env:"MPG_PRODUCTION"`
}

// config turns the flags into a server.Config and makes sure the SQLite
// directory exists.
func (f StoreFlags) config() (server.Config, error) {
	cfg := server.Config{
		Store:         f.Store,
		DBPath:        f.DBPath,
		PostgresURL:   f.PostgresURL,
		SecretKeyBase: f.SecretKeyBase,
		Production:    f.Production,
	}

	switch f.Store {
	case server.StoreSQLite:
		if f.DBPath != ":memory:" {
			dir := filepath.Dir(f.DBPath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return cfg, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
	case server.StorePostgres:
		if f.PostgresURL == "" {
			return cfg, fmt.Errorf("--postgres-url is required with --store=postgres")
		}
	}
	return cfg, nil
}

// cleanupTimeout bounds a one-shot cleanup run.
const cleanupTimeout = 5 * time.Minute
