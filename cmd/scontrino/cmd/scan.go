package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scontrino/internal/scanner"
)

func newScanCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image> [image...]",
		Short: "Read receipt photos into records",
		Long: `Read one or more receipt photographs and print the parsed records.

Supported inputs: JPEG, PNG, GIF, BMP, TIFF, WebP and HEIC/HEIF.

Examples:
  scontrino scan receipt.jpg
  scontrino scan receipt.heic --format json
  scontrino scan a.jpg b.jpg --format csv -o records.csv
  scontrino scan receipt.jpg --backend sidecar --sidecar receipt.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := a.cfg.Output.Format
			if err := checkFormat(format); err != nil {
				return err
			}
			validate, _ := cmd.Flags().GetBool("validate")
			showAttempts, _ := cmd.Flags().GetBool("attempts")

			s, cleanup, err := a.newScanner(validate)
			if err != nil {
				return err
			}
			defer cleanup()

			outs := make([]*scanner.Outcome, 0, len(args))
			var failed []error
			for _, path := range args {
				out, err := s.ScanFile(cmd.Context(), path)
				if err != nil {
					slog.Error("scan failed", "file", path, "error", err)
					failed = append(failed, fmt.Errorf("%s: %w", path, err))
					continue
				}
				outs = append(outs, out)
			}

			if len(outs) > 0 {
				w, closeOut, err := openOutput(a.cfg.Output.File, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if err := writeOutcomes(w, format, outs, showAttempts); err != nil {
					_ = closeOut()
					return fmt.Errorf("write output: %w", err)
				}
				if err := closeOut(); err != nil {
					return err
				}
			}
			return errors.Join(failed...)
		},
	}

	cmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml, csv)")
	cmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
	cmd.Flags().Bool("validate", false, "report consistency issues in the record")
	cmd.Flags().Bool("attempts", false, "include every recognition attempt in the output")
	a.bind(cmd, map[string]string{
		"format": "output.format",
		"output": "output.file",
	})
	return cmd
}
