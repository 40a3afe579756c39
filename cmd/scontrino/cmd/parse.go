package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scontrino/internal/recognizer"
	"github.com/MeKo-Tech/scontrino/internal/scanner"
)

func newParseCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse recognized text tokens into a record",
		Long: `Parse a token stream, one token per line, into a receipt record without
touching an image. Reads standard input when no file or "-" is given.

Examples:
  scontrino parse tokens.txt
  printf 'totale\n12,50\n' | scontrino parse --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := a.cfg.Output.Format
			if err := checkFormat(format); err != nil {
				return err
			}
			validate, _ := cmd.Flags().GetBool("validate")

			var in io.Reader = cmd.InOrStdin()
			source := "-"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open tokens: %w", err)
				}
				defer func() { _ = f.Close() }()
				in, source = f, args[0]
			}

			raw, err := recognizer.ReadTokens(in)
			if err != nil {
				return fmt.Errorf("read tokens: %w", err)
			}
			tokens := recognizer.CleanTokens(raw, a.cfg.ToRecognizerConfig().Clean)

			p, err := a.newPipeline(recognizer.Static{})
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			out := scanner.New(p, scanner.WithValidation(validate)).ParseTokens(tokens)
			out.Source = source

			w, closeOut, err := openOutput(a.cfg.Output.File, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := writeOutcomes(w, format, []*scanner.Outcome{out}, false); err != nil {
				_ = closeOut()
				return fmt.Errorf("write output: %w", err)
			}
			return closeOut()
		},
	}

	cmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml, csv)")
	cmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
	cmd.Flags().Bool("validate", false, "report consistency issues in the record")
	a.bind(cmd, map[string]string{
		"format": "output.format",
		"output": "output.file",
	})
	return cmd
}
