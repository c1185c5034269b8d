package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// colorEnabled resolves a -color flag value for w.
func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	}
	return false, fmt.Errorf("invalid color mode %q (must be auto, always or never)", mode)
}
