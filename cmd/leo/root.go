package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/leocli/internal/app"
	"github.com/heartmarshall/leocli/internal/config"
	"github.com/heartmarshall/leocli/internal/domain"
	"github.com/heartmarshall/leocli/internal/render"
	"github.com/heartmarshall/leocli/internal/service/lookup"
	"github.com/heartmarshall/leocli/pkg/ctxutil"
)

// rootFlags holds the raw flag values; only flags the user actually set
// become config overrides.
type rootFlags struct {
	configPath string
	lang       string
	pager      string
	emojis     bool
	color      bool
	cache      bool
	cacheDir   string
	verbose    bool
	dumpXML    bool
	serve      bool
	completion string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:           "leo [flags] word...",
		Short:         "Translate words with the LEO online dictionary",
		Long:          "Translate words with the LEO online dictionary.\n\n" + serveLong,
		Version:       app.BuildVersion(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.completion != "" {
				if len(args) > 0 {
					return usageError(fmt.Errorf("--completion %w", errModeTakesNoWords))
				}
				return writeCompletion(cmd, f.completion, stdout)
			}
			if f.serve {
				if len(args) > 0 {
					return usageError(fmt.Errorf("--serve %w", errModeTakesNoWords))
				}
				if f.dumpXML {
					return usageError(errors.New("--serve and --dump-xml cannot be combined"))
				}
				cfg, err := loadConfig(cmd, &f, stderr)
				if err != nil {
					return err
				}
				return runServe(cmd.Context(), cfg, newLogger(cfg, f.verbose))
			}
			if len(args) == 0 {
				return usageError(errors.New("at least one word required (see leo --help)"))
			}
			cfg, err := loadConfig(cmd, &f, stderr)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, f.verbose)
			return runLookup(cmd.Context(), cfg, logger, args, f.dumpXML, stdout, stderr)
		},
	}
	// No built-in completion command: it would shadow the word "completion".
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "configuration file (default $LEO_CONFIG or the user config dir)")
	pf.BoolVar(&f.verbose, "verbose", false, "log debug output to stderr")

	fl := cmd.Flags()
	fl.StringVarP(&f.lang, "lang", "l", config.DefaultLang, "language to translate from and to German")
	fl.StringVar(&f.pager, "pager", config.DefaultPager, "pager command; --pager= disables paging")
	fl.BoolVar(&f.emojis, "emojis", false, "show flags in the table header")
	fl.BoolVar(&f.color, "color", true, "dim annotations on a terminal")
	fl.BoolVar(&f.cache, "cache", true, "use the result cache")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "directory of the file cache")
	fl.BoolVar(&f.dumpXML, "dump-xml", false, "print the raw dictionary response and exit")
	fl.BoolVar(&f.serve, "serve", false, "serve lookups over HTTP instead of translating")
	fl.StringVar(&f.completion, "completion", "", "print a shell completion script (bash, zsh, fish, powershell)")

	_ = cmd.RegisterFlagCompletionFunc("lang",
		cobra.FixedCompletions(domain.SelectableLanguages(), cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("completion",
		cobra.FixedCompletions(completionShells, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.MarkFlagDirname("cache-dir")
	_ = cmd.MarkPersistentFlagFilename("config", "yaml", "yml")

	return cmd
}

// loadConfig reads the configuration, applies explicitly set flags and
// persists them. A corrupt file is reported and replaced by defaults.
func loadConfig(cmd *cobra.Command, f *rootFlags, stderr io.Writer) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	switch {
	case errors.Is(err, config.ErrCorruptConfig):
		fmt.Fprintf(stderr, "[!] %v; using defaults\n", err)
	case err != nil:
		return nil, usageError(err)
	}

	o := overridesFrom(cmd, f)
	if o.Empty() {
		return cfg, nil
	}
	if err := cfg.ApplyOverrides(o); err != nil {
		return nil, usageError(err)
	}

	path := f.configPath
	if path == "" {
		path = config.UserPath()
	}
	if err := cfg.Save(path); err != nil {
		fmt.Fprintf(stderr, "[!] could not save settings: %v\n", err)
	}
	return cfg, nil
}

func overridesFrom(cmd *cobra.Command, f *rootFlags) config.Overrides {
	var o config.Overrides
	fl := cmd.Flags()
	if fl.Changed("lang") {
		o.Lang = &f.lang
	}
	if fl.Changed("pager") {
		o.Pager = &f.pager
	}
	if fl.Changed("emojis") {
		o.UseEmojis = &f.emojis
	}
	if fl.Changed("color") {
		o.UseColor = &f.color
	}
	if fl.Changed("cache") {
		o.UseCache = &f.cache
	}
	if fl.Changed("cache-dir") {
		o.CacheDir = &f.cacheDir
	}
	return o
}

func newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	return app.NewLogger(logCfg)
}

func runLookup(ctx context.Context, cfg *config.Config, logger *slog.Logger, words []string, dumpXML bool, stdout, stderr io.Writer) error {
	ctx = ctxutil.WithRequestID(ctx, uuid.New().String())

	if dumpXML {
		return dumpRaw(ctx, cfg, logger, words, stdout)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Lookup.Lookup(ctx, lookup.Input{Words: words, Lang: cfg.Lang, UseCache: cfg.UseCache})
	if errors.Is(err, domain.ErrNoMatches) {
		q := domain.Query{Terms: domain.NormalizeTerms(words)}
		fmt.Fprintf(stderr, "[!] No matches found for %s\n", q.QuotedTerms())
		return &exitError{code: exitNoMatches}
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	opts := render.Options{
		Lang1:  res.Query.Lang1,
		Lang2:  res.Query.Lang2,
		Emojis: cfg.UseEmojis,
		Color:  cfg.UseColor && os.Getenv("NO_COLOR") == "" && render.IsTerminal(stdout),
	}
	if err := render.Table(&buf, res.Sections, opts); err != nil {
		return err
	}
	return render.Output(ctx, cfg.Pager, buf.String(), stdout)
}

func dumpRaw(ctx context.Context, cfg *config.Config, logger *slog.Logger, words []string, stdout io.Writer) error {
	q, err := domain.NewQuery(words, cfg.Lang)
	if err != nil {
		return err
	}

	noCache := *cfg
	noCache.UseCache = false
	a, err := app.New(ctx, &noCache, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	raw, err := a.Provider.FetchRaw(ctx, q)
	if err != nil {
		return err
	}
	_, err = stdout.Write(raw)
	return err
}
