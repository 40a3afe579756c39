package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scontrino/internal/batch"
)

func newBatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <path> [path...]",
		Short: "Scan many receipt photos concurrently",
		Long: `Scan every supported image in the given files and directories with a
bounded worker pool and print one combined report.

Examples:
  scontrino batch inbox/
  scontrino batch inbox/ --recursive --include '*.jpg' --format csv -o records.csv
  scontrino batch a.jpg b.heic --workers 2 --progress`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := a.cfg.Output.Format
			if err := checkFormat(format); err != nil {
				return err
			}
			validate, _ := cmd.Flags().GetBool("validate")
			showProgress, _ := cmd.Flags().GetBool("progress")

			bc := batch.Config{
				Workers:         a.cfg.Batch.Workers,
				Recursive:       a.cfg.Batch.Recursive,
				IncludePatterns: a.cfg.Batch.Include,
				ExcludePatterns: a.cfg.Batch.Exclude,
				ContinueOnError: a.cfg.Batch.ContinueOnError,
			}
			logProgress := batch.NewLogProgressCallback(slog.Default(), slog.LevelDebug)
			if showProgress {
				bc.Progress = batch.NewMultiProgressCallback(
					batch.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Scanning").WithRate(true),
					logProgress,
				)
			} else {
				bc.Progress = logProgress
			}

			s, cleanup, err := a.newScanner(validate)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := batch.ProcessBatch(cmd.Context(), s, args, bc)
			if res == nil {
				return err
			}
			if werr := writeBatchReport(a, cmd.OutOrStdout(), res, format); werr != nil {
				return werr
			}
			if err != nil {
				return err
			}
			if n := res.Failed(); n > 0 {
				return fmt.Errorf("%d of %d images failed", n, len(res.Items))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntP("workers", "w", 4, "number of parallel workers")
	f.BoolP("recursive", "r", false, "descend into subdirectories")
	f.StringSlice("include", nil, "only files whose name matches these globs")
	f.StringSlice("exclude", nil, "skip files whose name matches these globs")
	f.Bool("continue-on-error", true, "keep going after a failed image")
	f.StringP("format", "f", "text", "output format (text, json, yaml, csv)")
	f.StringP("output", "o", "", "write output to file instead of stdout")
	f.Bool("progress", false, "draw a progress bar on stderr")
	f.Bool("validate", false, "report consistency issues in each record")
	a.bind(cmd, map[string]string{
		"workers":           "batch.workers",
		"recursive":         "batch.recursive",
		"include":           "batch.include",
		"exclude":           "batch.exclude",
		"continue-on-error": "batch.continue_on_error",
		"format":            "output.format",
		"output":            "output.file",
	})
	return cmd
}

func writeBatchReport(a *app, stdout io.Writer, res *batch.Result, format string) error {
	text, err := res.FormatResults(format)
	if err != nil {
		return err
	}
	w, closeOut, err := openOutput(a.cfg.Output.File, stdout)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, text); err != nil {
		_ = closeOut()
		return fmt.Errorf("write output: %w", err)
	}
	return closeOut()
}
