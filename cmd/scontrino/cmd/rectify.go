package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scontrino/internal/preprocess"
	"github.com/MeKo-Tech/scontrino/internal/rectify"
	"github.com/MeKo-Tech/scontrino/internal/utils"
)

func newRectifyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rectify <image>",
		Short: "Find the receipt and write the perspective-corrected crop",
		Long: `Normalize contrast, locate the receipt outline and write the unwarped crop.
When no outline is usable the fallback crop is written instead.

Examples:
  scontrino rectify photo.jpg
  scontrino rectify photo.jpg -o flat.png --debug-dir debug/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, _, meta, err := utils.LoadImage(args[0])
			if err != nil {
				return err
			}
			r, err := rectify.New(a.cfg.ToPipelineConfig().Rectification)
			if err != nil {
				return fmt.Errorf("rectifier configuration: %w", err)
			}

			res := r.Rectify(preprocess.AutoContrast(img, a.cfg.Pipeline.ClipPercent))
			out := res.Rectified
			if out == nil {
				out = res.Fallback
			}
			if out == nil {
				return fmt.Errorf("%s: %s", args[0], res.Reason)
			}

			dest, _ := cmd.Flags().GetString("output")
			if dest == "" {
				dest = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".rectified.png"
			}
			if err := imaging.Save(out, dest); err != nil {
				return fmt.Errorf("save %s: %w", dest, err)
			}

			w := cmd.OutOrStdout()
			b := out.Bounds()
			fmt.Fprintf(w, "input:  %s (%dx%d %s)\n", args[0], meta.Width, meta.Height, meta.Format)
			if res.OK() {
				fmt.Fprintf(w, "quad:   %v\n", res.Quad)
			} else {
				fmt.Fprintf(w, "fallback: %s\n", res.Reason)
			}
			fmt.Fprintf(w, "output: %s (%dx%d)\n", dest, b.Dx(), b.Dy())
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output image (default <image>.rectified.png)")
	return cmd
}
