package commands

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/paths"
	"github.com/thoreinstein/autoback/internal/scheduler"
)

func TestRunSnapshotWithWriter(t *testing.T) {
	cfg := newTestConfig(t, "session v1")
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runSnapshotWithWriter(ctx, cfg, &buf))
	assert.Contains(t, buf.String(), "Created Song.bak.001.ptx (10 bytes)")
	assert.Regexp(t, `\(10 bytes\) at \d{2}:\d{2}:\d{2}\n`, buf.String())

	buf.Reset()
	require.NoError(t, runSnapshotWithWriter(ctx, cfg, &buf))
	assert.Equal(t, "No changes since Song.bak.001.ptx\n", buf.String())

	writeSession(t, cfg, "session v2", testMtime.Add(time.Minute))
	buf.Reset()
	require.NoError(t, runSnapshotWithWriter(ctx, cfg, &buf))
	assert.Contains(t, buf.String(), "Created Song.bak.002.ptx")
}

func TestRunSnapshotWithWriter_Unparseable(t *testing.T) {
	cfg := newTestConfig(t, "session v1")
	require.NoError(t, os.MkdirAll(cfg.BackupPath(), 0o755))

	notes := backupPath(cfg, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("mix notes"), 0o644))
	old := testMtime.Add(-time.Hour)
	require.NoError(t, os.Chtimes(notes, old, old))

	var buf bytes.Buffer
	require.NoError(t, runSnapshotWithWriter(context.Background(), cfg, &buf))
	assert.Contains(t, buf.String(), `Newest file "notes.txt"`)
	assert.Contains(t, buf.String(), "nothing written")
}

func TestRunSnapshotWithWriter_AlreadyRunning(t *testing.T) {
	cfg := newTestConfig(t, "session v1")

	lock, err := scheduler.Lock(paths.LockPath(cfg.BackupPath()))
	require.NoError(t, err)

	var buf bytes.Buffer
	err = runSnapshotWithWriter(context.Background(), cfg, &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAlreadyRunning))
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
	assert.Empty(t, buf.String())
	assert.NoFileExists(t, backupPath(cfg, "Song.bak.001.ptx"))

	// Released by the other instance, the snapshot goes through.
	require.NoError(t, lock.Unlock())
	require.NoError(t, runSnapshotWithWriter(context.Background(), cfg, &buf))
	assert.FileExists(t, backupPath(cfg, "Song.bak.001.ptx"))
}
