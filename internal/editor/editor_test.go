package editor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func found(names ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, n := range names {
			if n == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		installed []string
		want      string
		wantErr   bool
	}{
		{
			name: "AUTOBACK_EDITOR wins",
			env:  map[string]string{"AUTOBACK_EDITOR": "hx", "EDITOR": "nvim", "VISUAL": "code"},
			want: "hx",
		},
		{
			name: "EDITOR",
			env:  map[string]string{"EDITOR": "nvim", "VISUAL": "code"},
			want: "nvim",
		},
		{
			name: "VISUAL when EDITOR empty",
			env:  map[string]string{"EDITOR": "", "VISUAL": "code"},
			want: "code",
		},
		{
			name: "whitespace is unset",
			env:  map[string]string{"EDITOR": "  ", "VISUAL": "emacs"},
			want: "emacs",
		},
		{
			name: "arguments are split",
			env:  map[string]string{"EDITOR": "code --wait"},
			want: "code --wait",
		},
		{
			name:      "nano fallback",
			installed: []string{"nano", "vi"},
			want:      "nano",
		},
		{
			name:      "vi fallback",
			installed: []string{"vi"},
			want:      "vi",
		},
		{
			name:    "nothing installed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, env := range []string{"AUTOBACK_EDITOR", "EDITOR", "VISUAL"} {
				t.Setenv(env, tt.env[env])
			}

			e := &Editor{lookPath: found(tt.installed...)}
			got, err := e.command()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("command() = %v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("command() error = %v", err)
			}
			if strings.Join(got, " ") != tt.want {
				t.Errorf("command() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_Integration(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping integration test on windows (uses shell script mock)")
	}

	tmpDir := t.TempDir()
	mockEditor := filepath.Join(tmpDir, "mock-editor.sh")
	outputFile := filepath.Join(tmpDir, "output.txt")

	// The mock writes its arguments to a file.
	script := "#!/bin/sh\necho \"$@\" > " + outputFile + "\n"
	if err := os.WriteFile(mockEditor, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AUTOBACK_EDITOR", mockEditor+" --wait")

	targetFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(targetFile, []byte("session: Song\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	e := &Editor{Stdout: &out, Stderr: &out}
	if err := e.Open(context.Background(), targetFile); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	if want := "--wait " + targetFile; strings.TrimSpace(string(got)) != want {
		t.Errorf("mock editor args = %q, want %q", strings.TrimSpace(string(got)), want)
	}
}

func TestOpen_EditorFails(t *testing.T) {
	t.Setenv("AUTOBACK_EDITOR", "non-existent-editor-binary-12345")

	e := &Editor{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	err := e.Open(context.Background(), "somefile")
	if err == nil {
		t.Fatal("Open() expected error for non-existent editor")
	}
	if !strings.Contains(err.Error(), "running editor") {
		t.Errorf("error = %v, want it to mention running editor", err)
	}
}
