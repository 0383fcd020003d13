package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreFlagsConfig(t *testing.T) {
	t.Run("sqlite creates the directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "mpg.db")

		cfg, err := StoreFlags{Store: "sqlite", DBPath: path, SecretKeyBase: "x"}.config()
		require.NoError(t, err)

		assert.Equal(t, path, cfg.DBPath)
		assert.Equal(t, "x", cfg.SecretKeyBase)
		info, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("postgres needs a url", func(t *testing.T) {
		_, err := StoreFlags{Store: "postgres"}.config()
		assert.ErrorContains(t, err, "--postgres-url")
	})

	t.Run("postgres", func(t *testing.T) {
		cfg, err := StoreFlags{Store: "postgres", PostgresURL: "postgres://localhost/mpg", Production: true}.config()
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/mpg", cfg.PostgresURL)
		assert.True(t, cfg.Production)
	})
}

func TestGlobalsLogger(t *testing.T) {
	g := &Globals{LogLevel: "warn"}
	assert.False(t, g.Logger().Enabled(t.Context(), -4), "debug is below warn")

	g = &Globals{LogLevel: "bogus"}
	assert.NotNil(t, g.Logger())
}
