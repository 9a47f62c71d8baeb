package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/autoback/internal/config"
)

var testMtime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// newTestConfig creates Song.ptx in a temp base directory and returns a
// valid configuration for it. XDG state is redirected so lock files stay in
// the test's temp dir.
func newTestConfig(t *testing.T, content string) *config.Config {
	t.Helper()

	// Registered first so it runs after the environment is restored.
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()

	cfg := config.Default()
	cfg.BaseDir = t.TempDir()
	cfg.Session = "Song"
	cfg.PeriodMinutes = 60

	writeSession(t, cfg, content, testMtime)
	return cfg
}

func writeSession(t *testing.T, cfg *config.Config, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(cfg.SourcePath(), []byte(content), 0o644))
	require.NoError(t, os.Chtimes(cfg.SourcePath(), mtime, mtime))
}

func backupPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.BackupPath(), name)
}
