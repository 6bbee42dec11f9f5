package tui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY returns true if stdin and stdout are both terminals and prompts
// have not been disabled through SMARTPICK_NON_INTERACTIVE
func IsTTY() bool {
	if checkInteractiveAllowed() != nil {
		return false
	}
	if !((isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))) {
		return false
	}
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
