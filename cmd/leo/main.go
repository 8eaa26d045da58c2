// Command leo looks up words in the LEO online dictionary and prints the
// translations as tables.
//
// Usage:
//
//	leo [flags] word...
//	leo --serve
//	leo --completion bash|zsh|fish|powershell
//
// Every positional argument is a search word, so "leo serve" translates
// "serve".
//
// Settings given as flags (--lang, --pager, --emojis, --color, --cache,
// --cache-dir) are remembered in the user configuration file.
//
// Exit codes:
//
//	0  translations printed
//	1  no matches found
//	2  usage error (unknown flag, missing word, unsupported language)
//	3  any other failure (network, malformed response, cache backend)
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/leocli/internal/domain"
)

const (
	exitOK        = 0
	exitNoMatches = 1
	exitUsage     = 2
	exitFailure   = 3
)

// exitError carries an exit code out of a cobra RunE. A nil err means the
// message was already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error { return &exitError{code: exitUsage, err: err} }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	// cobra falls back to os.Args for a nil slice.
	root.SetArgs(append([]string{}, args...))

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "[!]", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "[!]", err)
	if errors.Is(err, domain.ErrValidation) {
		return exitUsage
	}
	return exitFailure
}
