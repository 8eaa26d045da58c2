package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// isTerminal is swapped in tests.
var isTerminal = IsTerminal

// Output writes text to stdout, through pager when one is configured and
// stdout is a terminal. The pager string is split on whitespace into a
// command and its arguments.
func Output(ctx context.Context, pager, text string, stdout io.Writer) error {
	args := strings.Fields(pager)
	if len(args) == 0 || !isTerminal(stdout) {
		_, err := io.WriteString(stdout, text)
		return err
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("render: pager %q: %w", args[0], err)
	}
	return nil
}
