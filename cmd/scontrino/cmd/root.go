package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/scontrino/internal/config"
	"github.com/MeKo-Tech/scontrino/internal/version"
)

// app is the state shared by one command tree: its own viper instance,
// the loaded configuration and the hooks tests replace.
type app struct {
	loader  *config.Loader
	cfg     *config.Config
	cfgFile string

	// flag name -> configuration key, per subcommand
	bindings map[*cobra.Command]map[string]string

	// logOutput receives structured logs; nil means the command's stderr.
	logOutput io.Writer
}

// NewRootCommand builds a fresh command tree with its own configuration
// state, so it can be executed more than once in one process.
func NewRootCommand() *cobra.Command {
	a := &app{
		loader:   config.NewLoaderWith(viper.New()),
		bindings: make(map[*cobra.Command]map[string]string),
	}

	rootCmd := &cobra.Command{
		Use:   "scontrino",
		Short: "Read Italian cash-register receipts into structured records",
		Long: `scontrino turns a photograph of an Italian cash-register receipt into a
structured record: receipt total, up to five department totals and quantities,
total piece count and purchase date.

The photo is contrast-normalized, the paper outline is found and
perspective-corrected, text is recognized (Tesseract, or a token sidecar file)
and the token stream is parsed with fuzzy keyword matching.

Examples:
  scontrino scan receipt.jpg
  scontrino scan receipt.heic --format json --validate
  scontrino parse tokens.txt
  scontrino batch inbox/ --recursive --format csv -o records.csv
  scontrino serve --port 8080`,
		Version:           version.String(),
		SilenceUsage:      true,
		PersistentPreRunE: a.preRun,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $XDG_CONFIG_HOME/scontrino, /etc/scontrino)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	pf.String("backend", "tesseract", "recognition backend (tesseract, sidecar)")
	pf.String("language", "ita", "tesseract language(s), e.g. ita or ita+eng")
	pf.String("token-mode", "phrase", "how recognized text is split into tokens (line, phrase, word)")
	pf.String("sidecar", "", "token file replayed by the sidecar backend")
	pf.String("tessdata", "", "tessdata directory")
	pf.Int("max-concurrent", 0, "concurrent recognitions (0 = one per CPU)")

	pf.Int("min-fields", 6, "fields below which the recognizer is retried")
	pf.Float64("fuzzy-threshold", 0.6, "keyword similarity threshold (0..1)")
	pf.String("department-policy", "clear", "department context after its total line (clear, keep)")
	pf.String("debug-dir", "", "write rectification debug images to this directory")

	pf.Bool("cache", false, "cache records by image digest")
	pf.String("cache-path", "", "cache file (default under the user cache directory)")

	a.bindFlags(pf, map[string]string{
		"verbose":           "verbose",
		"log-level":         "log_level",
		"backend":           "recognizer.backend",
		"language":          "recognizer.language",
		"token-mode":        "recognizer.token_mode",
		"sidecar":           "recognizer.sidecar_path",
		"tessdata":          "recognizer.tessdata_prefix",
		"max-concurrent":    "recognizer.max_concurrent",
		"min-fields":        "pipeline.min_fields",
		"fuzzy-threshold":   "pipeline.fuzzy_threshold",
		"department-policy": "pipeline.department_policy",
		"debug-dir":         "pipeline.debug_dir",
		"cache":             "cache.enabled",
		"cache-path":        "cache.path",
	})

	rootCmd.AddCommand(
		newScanCommand(a),
		newParseCommand(a),
		newRectifyCommand(a),
		newBatchCommand(a),
		newWatchCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure. SIGINT and
// SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bind records flag bindings for cmd; they are applied when cmd runs, so
// subcommands may bind the same key to their own flags.
func (a *app) bind(cmd *cobra.Command, keys map[string]string) {
	a.bindings[cmd] = keys
}

// bindFlags maps flag names to configuration keys. Flags only win over
// the config file and environment when set explicitly.
func (a *app) bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	v := a.loader.GetViper()
	for name, key := range keys {
		if f := fs.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	if keys, ok := a.bindings[cmd]; ok {
		a.bindFlags(cmd.Flags(), keys)
	}
	cfg, err := a.loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	out := a.logOutput
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: logLevel(cfg)}))
	slog.SetDefault(logger)
	return nil
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
