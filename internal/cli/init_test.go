package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/config"
	"expenses/internal/core"
	"expenses/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentWorker)
	assert.Equal(t, log.ComponentWorker, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestOpenStore_Memory(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory"}

	repo, cleanup, err := OpenStore(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	defer cleanup()

	assert.Empty(t, repo.Expenses(context.Background()))
	assert.Equal(t, core.DefaultProfileName, repo.Profile(context.Background()).Name)
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "expenses.db"),
	}

	repo, cleanup, err := OpenStore(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, repo.SaveTheme(context.Background(), core.ThemeDark))
	assert.Equal(t, core.ThemeDark, repo.Theme(context.Background()))
}

func TestOpenStore_InvalidBackend(t *testing.T) {
	_, _, err := OpenStore(context.Background(), &config.Config{DataBackend: "sheets"}, log.Discard())
	assert.Error(t, err)
}

func TestOpenAMQP_Disabled(t *testing.T) {
	client, err := OpenAMQP(&config.Config{}, log.Discard())
	assert.NoError(t, err)
	assert.Nil(t, client)
}
