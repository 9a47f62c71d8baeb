package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/autoback/internal/errors"
)

func TestRunNextWithWriter_JSON(t *testing.T) {
	cfg := newTestConfig(t, "session v1")
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runNextWithWriter(ctx, cfg, true, &buf))

	var got nextOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, nextOutput{
		Backup:      true,
		Sequence:    1,
		Reason:      "bootstrap",
		Destination: backupPath(cfg, "Song.bak.001.ptx"),
	}, got)

	// next never writes, not even the backup directory.
	_, err := os.Stat(cfg.BackupPath())
	assert.True(t, os.IsNotExist(err))

	buf.Reset()
	require.NoError(t, runSnapshotWithWriter(ctx, cfg, &bytes.Buffer{}))
	require.NoError(t, runNextWithWriter(ctx, cfg, true, &buf))

	got = nextOutput{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, nextOutput{
		Backup: false,
		Reason: "unchanged",
		Latest: "Song.bak.001.ptx",
	}, got)
}

func TestRunNextWithWriter_Text(t *testing.T) {
	cfg := newTestConfig(t, "session v1")

	var buf bytes.Buffer
	require.NoError(t, runNextWithWriter(context.Background(), cfg, false, &buf))
	assert.Equal(t, "Next backup: Song.bak.001.ptx (bootstrap)\n", buf.String())
}

func TestRunNextWithWriter_MissingSource(t *testing.T) {
	cfg := newTestConfig(t, "session v1")
	require.NoError(t, os.Remove(cfg.SourcePath()))

	err := runNextWithWriter(context.Background(), cfg, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
}
