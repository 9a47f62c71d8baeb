package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/thoreinstein/autoback/internal/errors"
)

var choices = []string{"003  Song.bak.003.ptx", "002  Song.bak.002.ptx", "001  Song.bak.001.ptx"}

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"explicit choice", "2\n", 1},
		{"last choice", "3\n", 2},
		{"empty defaults to first", "\n", 0},
		{"surrounding whitespace", "  3  \n", 2},
		{"no trailing newline", "2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			s := NewSelectorWithIO(strings.NewReader(tt.input), &buf)

			got, err := s.Select("Backups:", choices)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Select() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelect_Output(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader("1\n"), &buf)

	if _, err := s.Select("Backups of Song:", choices); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Backups of Song:\n", "  [1] 003  Song.bak.003.ptx\n", "  [3] 001  Song.bak.001.ptx\n", "Select [1]: "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSelect_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		choices []string
		input   string
		want    error
	}{
		{"no choices", nil, "", ErrNoChoices},
		{"not a number", choices, "abc\n", ErrInvalidSelection},
		{"zero", choices, "0\n", ErrInvalidSelection},
		{"out of range", choices, "4\n", ErrInvalidSelection},
		{"EOF", choices, "", ErrSelectionCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewSelectorWithIO(strings.NewReader(tt.input), &bytes.Buffer{})
			_, err := s.Select("Backups:", tt.choices)
			if !errors.Is(err, tt.want) {
				t.Errorf("Select() error = %v, want %v", err, tt.want)
			}
		})
	}
}
