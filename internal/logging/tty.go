package logging

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether f is a terminal. f is typically an *os.File; any
// value with an Fd method is accepted, anything else is not a terminal.
func IsTTY(f any) bool {
	fd, ok := f.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(fd.Fd()))
}

// Interactive reports whether full-screen prompts can be shown: both in and
// out must be terminals and TERM must not be "dumb".
func Interactive(in, out any) bool {
	return os.Getenv("TERM") != "dumb" && IsTTY(in) && IsTTY(out)
}

// SupportsColor reports whether ANSI colors should be written to w.
// NO_COLOR (https://no-color.org) and TERM=dumb disable color; otherwise w
// must be a terminal.
func SupportsColor(w any) bool {
	return colorAllowed() && IsTTY(w)
}

func colorAllowed() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
