package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cadenza/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "cadenza",
		Short: "Cadenza keeps media records and their stored blobs consistent",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configLevel := ""
			if cfg != nil {
				configLevel = cfg.LogLevel
			}
			warning, err := configureLoggerForCLI(logLevel, configLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newMigrateCmd(cfg, &jsonOutput),
		newGCCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
		newImportCmd(cfg, &jsonOutput),
		newTokenCmd(),
		newCreateCmd(cfg, &jsonOutput),
		newShowCmd(cfg, &jsonOutput),
		newListCmd(cfg, &jsonOutput),
		newUpdateCmd(cfg, &jsonOutput),
		newDeleteCmd(cfg),
	)

	return cmd
}
