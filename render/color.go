package render

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ColorEnabled reports whether output to f should be coloured: the setting
// must allow it, NO_COLOR must be unset and f must be a terminal.
func ColorEnabled(configured bool, f *os.File) bool {
	if !configured || os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
