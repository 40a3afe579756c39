package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scontrino/internal/version"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// Skips configuration loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				v, commit, built := version.Info()
				return enc.Encode(map[string]string{"version": v, "commit": commit, "build_date": built})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "scontrino", version.String())
			return err
		},
	}
	cmd.Flags().Bool("json", false, "print as JSON")
	return cmd
}
