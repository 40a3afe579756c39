package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scontrino/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration files",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file,
SCONTRINO_* environment variables and command-line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a.cfg)
			case "yaml", "":
				return config.WriteYAML(cmd.OutOrStdout(), a.cfg)
			default:
				return fmt.Errorf("unsupported format %q (want yaml, json)", format)
			}
		},
	}
	show.Flags().StringP("format", "f", "yaml", "output format (yaml, json)")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.GenerateDefaultConfigFile(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Show the config file in use and the search locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			used := a.loader.GetConfigFileUsed()
			if used == "" {
				used = "(none)"
			}
			fmt.Fprintf(w, "in use: %s\n", used)
			fmt.Fprintln(w, "search paths:")
			for _, p := range config.GetConfigSearchPaths() {
				fmt.Fprintf(w, "  %s\n", p)
			}
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, path)
	return cmd
}
