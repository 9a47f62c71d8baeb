package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/autoback/internal/errors"
)

var (
	base   = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	policy = Policy{Rollover: 3, Extension: "ptx"}
)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func TestNext(t *testing.T) {
	tests := []struct {
		name       string
		source     time.Time
		entries    []Entry
		policy     Policy
		wantBackup bool
		wantSeq    int
		wantReason Reason
	}{
		{
			name:       "empty directory bootstraps at 1",
			source:     at(0),
			entries:    nil,
			policy:     policy,
			wantBackup: true,
			wantSeq:    1,
			wantReason: ReasonBootstrap,
		},
		{
			name:       "empty directory ignores source time",
			source:     time.Time{},
			entries:    []Entry{},
			policy:     policy,
			wantBackup: true,
			wantSeq:    1,
			wantReason: ReasonBootstrap,
		},
		{
			name:       "source older than latest backup",
			source:     at(1),
			entries:    []Entry{{Name: "S.bak.001.ptx", ModTime: at(5)}},
			policy:     policy,
			wantReason: ReasonUnchanged,
		},
		{
			name:       "source equal to latest backup",
			source:     at(5),
			entries:    []Entry{{Name: "S.bak.001.ptx", ModTime: at(5)}},
			policy:     policy,
			wantReason: ReasonUnchanged,
		},
		{
			name:       "source newer advances sequence",
			source:     at(10),
			entries:    []Entry{{Name: "S.bak.001.ptx", ModTime: at(5)}},
			policy:     policy,
			wantBackup: true,
			wantSeq:    2,
			wantReason: ReasonAdvanced,
		},
		{
			name:   "rollover wraps from limit to 1",
			source: at(10),
			entries: []Entry{
				{Name: "S.bak.002.ptx", ModTime: at(2)},
				{Name: "S.bak.003.ptx", ModTime: at(3)},
			},
			policy:     policy,
			wantBackup: true,
			wantSeq:    1,
			wantReason: ReasonRolledOver,
		},
		{
			name:   "latest by time not by name",
			source: at(10),
			entries: []Entry{
				{Name: "S.bak.001.ptx", ModTime: at(4)},
				{Name: "S.bak.002.ptx", ModTime: at(1)},
				{Name: "S.bak.003.ptx", ModTime: at(2)},
			},
			policy:     policy,
			wantBackup: true,
			wantSeq:    2,
			wantReason: ReasonAdvanced,
		},
		{
			name:   "sequence above limit wraps to 1",
			source: at(10),
			entries: []Entry{
				{Name: "S.bak.007.ptx", ModTime: at(1)},
			},
			policy:     policy,
			wantBackup: true,
			wantSeq:    1,
			wantReason: ReasonRolledOver,
		},
		{
			name:       "sequence zero advances to 1",
			source:     at(10),
			entries:    []Entry{{Name: "S.bak.000.ptx", ModTime: at(1)}},
			policy:     policy,
			wantBackup: true,
			wantSeq:    1,
			wantReason: ReasonAdvanced,
		},
		{
			name:       "latest has wrong extension",
			source:     at(10),
			entries:    []Entry{{Name: "S.bak.001.ptf", ModTime: at(1)}},
			policy:     policy,
			wantReason: ReasonUnparseable,
		},
		{
			name: "unrelated newest file blocks backup",
			source: at(10),
			entries: []Entry{
				{Name: "S.bak.001.ptx", ModTime: at(1)},
				{Name: "notes.txt", ModTime: at(2)},
			},
			policy:     policy,
			wantReason: ReasonUnparseable,
		},
		{
			name:       "latest has no numeric component",
			source:     at(10),
			entries:    []Entry{{Name: "S.bak.ptx", ModTime: at(1)}},
			policy:     policy,
			wantReason: ReasonUnparseable,
		},
		{
			name:       "rollover of 1 always writes slot 1",
			source:     at(10),
			entries:    []Entry{{Name: "S.bak.001.ptx", ModTime: at(1)}},
			policy:     Policy{Rollover: 1, Extension: "ptx"},
			wantBackup: true,
			wantSeq:    1,
			wantReason: ReasonRolledOver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.source, tt.entries, tt.policy)
			assert.Equal(t, tt.wantBackup, got.Backup, "Backup")
			assert.Equal(t, tt.wantReason, got.Reason, "Reason")
			if tt.wantBackup {
				assert.Equal(t, tt.wantSeq, got.Sequence, "Sequence")
				assert.GreaterOrEqual(t, got.Sequence, 1)
				assert.LessOrEqual(t, got.Sequence, tt.policy.Rollover)
			}
		})
	}
}

func TestNext_Idempotent(t *testing.T) {
	entries := []Entry{{Name: "S.bak.001.ptx", ModTime: at(5)}}

	first := Next(at(3), entries, policy)
	second := Next(at(3), entries, policy)

	assert.False(t, first.Backup)
	assert.Equal(t, first, second)
}

func TestNext_FullCycle(t *testing.T) {
	// Simulate the copier: every backup is written after the source changed.
	var entries []Entry
	var got []int
	for i := range 7 {
		source := at(i*10 + 1)
		d := Next(source, entries, policy)
		require.True(t, d.Backup, "tick %d", i)
		got = append(got, d.Sequence)

		name := DestinationName("S", d.Sequence, policy)
		entries = upsert(entries, Entry{Name: name, ModTime: at(i*10 + 2)})
	}
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1}, got)
	assert.Len(t, entries, 3)
}

func upsert(entries []Entry, e Entry) []Entry {
	for i := range entries {
		if entries[i].Name == e.Name {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

func TestLatest(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok := Latest(nil)
		assert.False(t, ok)
	})

	t.Run("ties pick first encountered", func(t *testing.T) {
		entries := []Entry{
			{Name: "S.bak.001.ptx", ModTime: at(1)},
			{Name: "S.bak.002.ptx", ModTime: at(3)},
			{Name: "S.bak.003.ptx", ModTime: at(3)},
		}
		got, ok := Latest(entries)
		require.True(t, ok)
		assert.Equal(t, "S.bak.002.ptx", got.Name)
	})
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		ext    string
		want   int
		wantOK bool
	}{
		{"standard", "Song.bak.001.ptx", "ptx", 1, true},
		{"three digits", "Song.bak.999.ptx", "ptx", 999, true},
		{"unpadded", "Song.bak.42.ptx", "ptx", 42, true},
		{"dotted session", "My.Song.bak.010.ptx", "ptx", 10, true},
		{"extension with dot in policy", "Song.bak.002.ptx", ".ptx", 2, true},
		{"no separator", "bak001.ptx", "ptx", 0, false},
		{"wrong extension", "Song.bak.001.ptf", "ptx", 0, false},
		{"extension only as substring", "Song.bak.001.ptxx", "ptx", 0, false},
		{"non numeric", "Song.bak.abc.ptx", "ptx", 0, false},
		{"empty component", "Song.bak..ptx", "ptx", 0, false},
		{"negative", "Song.bak.-1.ptx", "ptx", 0, false},
		{"signed", "Song.bak.+1.ptx", "ptx", 0, false},
		{"no numeric suffix", "Song.bak.ptx", "ptx", 0, false},
		{"just extension", ".ptx", "ptx", 0, false},
		{"overflow", "Song.bak.99999999999999999999999.ptx", "ptx", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSequence(tt.input, Policy{Rollover: 3, Extension: tt.ext})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDestinationName(t *testing.T) {
	tests := []struct {
		session string
		seq     int
		ext     string
		want    string
	}{
		{"S", 1, "ptx", "S.bak.001.ptx"},
		{"Song", 42, "ptx", "Song.bak.042.ptx"},
		{"Song", 999, ".ptx", "Song.bak.999.ptx"},
		{"Mix v2", 3, "wav", "Mix v2.bak.003.wav"},
	}
	for _, tt := range tests {
		got := DestinationName(tt.session, tt.seq, Policy{Rollover: 999, Extension: tt.ext})
		if got != tt.want {
			t.Errorf("DestinationName(%q, %d) = %q, want %q", tt.session, tt.seq, got, tt.want)
		}
	}
}

func TestDestinationName_RoundTrip(t *testing.T) {
	p := Policy{Rollover: MaxRollover, Extension: "ptx"}
	for _, seq := range []int{1, 9, 10, 99, 100, MaxRollover} {
		got, ok := ParseSequence(DestinationName("Song", seq, p), p)
		require.True(t, ok, "seq %d", seq)
		assert.Equal(t, seq, got)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"valid", Policy{Rollover: 10, Extension: "ptx"}, false},
		{"max rollover", Policy{Rollover: MaxRollover, Extension: "ptx"}, false},
		{"zero rollover", Policy{Rollover: 0, Extension: "ptx"}, true},
		{"negative rollover", Policy{Rollover: -1, Extension: "ptx"}, true},
		{"rollover above padding", Policy{Rollover: MaxRollover + 1, Extension: "ptx"}, true},
		{"empty extension", Policy{Rollover: 3, Extension: ""}, true},
		{"dot only extension", Policy{Rollover: 3, Extension: "."}, true},
		{"extension with separator", Policy{Rollover: 3, Extension: "a/b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
		})
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "backup 002 (advanced)", Decision{Backup: true, Sequence: 2, Reason: ReasonAdvanced}.String())
	assert.Equal(t, "no backup (unchanged)", Decision{Reason: ReasonUnchanged}.String())
}
