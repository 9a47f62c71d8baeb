package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/autoback/internal/backup"
)

func TestRunListWithWriter_Empty(t *testing.T) {
	cfg := newTestConfig(t, "session v1")

	var buf bytes.Buffer
	require.NoError(t, runListWithWriter(cfg, false, &buf))
	assert.Equal(t, "No backups in "+cfg.BackupPath()+"\n", buf.String())

	buf.Reset()
	require.NoError(t, runListWithWriter(cfg, true, &buf))
	assert.JSONEq(t, "[]", buf.String())
}

func TestRunListWithWriter(t *testing.T) {
	cfg := newTestConfig(t, "v1")
	ctx := context.Background()

	for i, content := range []string{"v1", "v2", "v3"} {
		writeSession(t, cfg, content, testMtime.Add(time.Duration(i)*time.Minute))
		require.NoError(t, runSnapshotWithWriter(ctx, cfg, &bytes.Buffer{}))
	}

	var buf bytes.Buffer
	require.NoError(t, runListWithWriter(cfg, false, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], cfg.BackupPath())
	assert.Contains(t, lines[1], "SEQ")
	assert.Contains(t, lines[2], "*")
	assert.Contains(t, lines[2], "Song.bak.003.ptx")
	assert.Contains(t, lines[3], "Song.bak.002.ptx")
	assert.NotContains(t, lines[3], "*")
	assert.Contains(t, lines[4], "Song.bak.001.ptx")
	assert.Contains(t, lines[4], "2 B")

	buf.Reset()
	require.NoError(t, runListWithWriter(cfg, true, &buf))

	var got []backup.Backup
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].Sequence)
	assert.True(t, got[0].Latest)
	assert.True(t, got[0].ModTime.Equal(testMtime.Add(2*time.Minute)))
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.n), "formatSize(%d)", tt.n)
	}
}
