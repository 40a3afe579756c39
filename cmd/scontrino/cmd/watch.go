package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scontrino/internal/batch"
)

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Scan receipt photos as they appear in a directory",
		Long: `Watch a directory and scan each new or rewritten image once it has been
quiet for the debounce interval. The record is written next to the image as
<name>.record.json. Stops on SIGINT or SIGTERM.

Examples:
  scontrino watch inbox/
  scontrino watch inbox/ --debounce 2000 --workers 2 --backend sidecar`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			validate, _ := cmd.Flags().GetBool("validate")

			s, cleanup, err := a.newScanner(validate)
			if err != nil {
				return err
			}
			defer cleanup()

			w := batch.NewWatcher(dir, batch.ScanHandler(s)).
				WithDebounce(time.Duration(a.cfg.Batch.DebounceMs)*time.Millisecond).
				WithWorkers(a.cfg.Batch.Workers).
				WithPatterns(a.cfg.Batch.Include, a.cfg.Batch.Exclude)

			slog.Info("watching directory", "dir", dir, "debounce_ms", a.cfg.Batch.DebounceMs)
			return w.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.Int("debounce", 500, "quiet period in milliseconds before a file is scanned")
	f.IntP("workers", "w", 4, "concurrent scans")
	f.StringSlice("include", nil, "only files whose name matches these globs")
	f.StringSlice("exclude", nil, "skip files whose name matches these globs")
	f.Bool("validate", false, "store consistency issues with each record")
	a.bind(cmd, map[string]string{
		"debounce": "batch.debounce_ms",
		"workers":  "batch.workers",
		"include":  "batch.include",
		"exclude":  "batch.exclude",
	})
	return cmd
}
