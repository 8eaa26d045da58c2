package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/leocli/internal/app"
	"github.com/heartmarshall/leocli/internal/config"
)

// serveLong is appended to the root help. Serving and completion are flags
// rather than subcommands so that every positional argument is a word.
const serveLong = `Every argument is a search word, including words such as "serve" or "help".

--serve runs the lookup API (GET /api/lookup?q=word&lang=en), health probes
and Prometheus metrics until interrupted. Address, rate limit and CORS
origins come from the server section of the configuration.

--completion bash|zsh|fish|powershell prints a shell completion script.`

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}

func writeCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return usageError(fmt.Errorf("unsupported shell %q (want one of bash, zsh, fish, powershell)", shell))
}

var errModeTakesNoWords = errors.New("takes no words")
