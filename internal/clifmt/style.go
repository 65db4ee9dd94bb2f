package clifmt

import (
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

var colorEnabled atomic.Bool

// EnableColorFor turns ANSI styling on when f is a terminal and NO_COLOR is
// unset.
func EnableColorFor(f *os.File) {
	colorEnabled.Store(f != nil && os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(f.Fd())))
}

func style(code, s string) string {
	if !colorEnabled.Load() || s == "" {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func Headerf(format string, args ...any) string {
	return style("1;36", fmt.Sprintf(format, args...))
}

func Key(s string) string     { return style("1", s) }
func Dim(s string) string     { return style("2", s) }
func Warn(s string) string    { return style("33", s) }
func Success(s string) string { return style("32", s) }
