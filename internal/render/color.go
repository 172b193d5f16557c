package render

import (
	"os"

	"github.com/mattn/go-isatty"
)

// DetectMode chooses ModeColor when stdout is a terminal and NO_COLOR is
// unset, ModeQuotes otherwise — matching the teacher's TTY-gating idiom in
// internal/pipeline/progress.go (isatty.IsTerminal / isatty.IsCygwinTerminal)
// and the conventional NO_COLOR opt-out (https://no-color.org, widely
// honored across the ecosystem the teacher's fatih/color dependency lives
// in).
func DetectMode(out *os.File) Mode {
	if os.Getenv("NO_COLOR") != "" {
		return ModeQuotes
	}
	fd := out.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return ModeColor
	}
	return ModeQuotes
}
