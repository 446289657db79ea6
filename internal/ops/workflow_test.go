package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hollismb/kapture/internal/config"
	"github.com/hollismb/kapture/internal/db"
	"github.com/hollismb/kapture/internal/vault"
)

// TestCaptureWorkflow exercises the whole pipeline the way the daemon runs
// it: resolve config, open the index, ingest a few captures, autocomplete
// against them, then rebuild the index from the files alone.
func TestCaptureWorkflow(t *testing.T) {
	root := t.TempDir()
	t.Setenv(config.EnvVaultPath, root)
	t.Setenv(config.EnvDataDir, filepath.Join(root, "data"))
	t.Setenv(config.EnvConfigPath, filepath.Join(root, "no-such-config.yaml"))

	cfg := config.Load()
	require.Equal(t, root, cfg.Vault.Path)

	database, err := db.Open(cfg.Database.Path)
	require.NoError(t, err)
	defer database.Close()

	store := vault.StoreFor(cfg)

	// Two captures in the same second share a capture ID but never a file.
	first := Ingest(database, store, map[string]any{
		"content":   "call the plumber",
		"tags":      "home, errands",
		"context":   "kitchen",
		"timestamp": "2025-03-01T09:00:00Z",
	})
	second := Ingest(database, store, map[string]any{
		"content":   "fix the sink myself",
		"tags":      "home",
		"timestamp": "2025-03-01T09:00:00Z",
	})
	require.True(t, first.Verified)
	require.True(t, second.Verified)
	require.Equal(t, first.CaptureID, second.CaptureID)
	require.NotEqual(t, first.SavedTo, second.SavedTo)

	for _, path := range []string{first.SavedTo, second.SavedTo} {
		_, err := os.Stat(path)
		require.NoError(t, err)
	}

	// Autocomplete sees the tags.
	suggestions := Suggest(database, "tag", "ho", 10)
	require.NotEmpty(t, suggestions)
	require.Equal(t, "home", suggestions[0].Value)
	require.True(t, Exists(database, "tag", "errands"))
	require.False(t, Exists(database, "tag", "nonexistent"))

	// Blow the index away and rebuild it from the vault.
	require.NoError(t, database.Close())
	require.NoError(t, os.Remove(cfg.Database.Path))

	database, err = db.Open(cfg.Database.Path)
	require.NoError(t, err)
	defer database.Close()

	out, err := Rebuild(database, store)
	require.NoError(t, err)
	require.Equal(t, 2, out.Indexed)
	require.Zero(t, out.Skipped)
	require.True(t, Exists(database, "tag", "errands"))
}
