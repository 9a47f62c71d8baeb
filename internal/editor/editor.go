// Package editor launches the user's text editor on a file.
package editor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/autoback/internal/errors"
)

// ErrNoEditor indicates no editor command could be determined.
var ErrNoEditor = errors.New("no editor found")

// Editor runs an editor command attached to the given streams.
type Editor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// lookPath is exec.LookPath, replaced in tests.
	lookPath func(string) (string, error)
}

// New returns an Editor attached to the process's standard streams.
func New() *Editor {
	return &Editor{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Open runs the editor on path and waits for it to exit.
func (e *Editor) Open(ctx context.Context, path string) error {
	argv, err := e.command()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "running editor %s", argv[0])
	}
	return nil
}

// command returns the editor argv. The first non-empty of $AUTOBACK_EDITOR,
// $EDITOR and $VISUAL wins and is split on whitespace, so values like
// "code --wait" work. Otherwise nano, then vi, is used if installed.
func (e *Editor) command() ([]string, error) {
	for _, env := range []string{"AUTOBACK_EDITOR", "EDITOR", "VISUAL"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			return fields, nil
		}
	}

	lookPath := e.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range []string{"nano", "vi"} {
		if _, err := lookPath(name); err == nil {
			return []string{name}, nil
		}
	}
	return nil, ErrNoEditor
}
