package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadenza/internal/api"
	"cadenza/internal/config"
)

func newDeleteCmd(cfg *config.Config) *cobra.Command {
	var expectedVersion int64

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record and its media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				if err := client.DeleteRecord(cmd.Context(), args[0], expectedVersion); err != nil {
					if api.IsVersionConflict(err) {
						return fmt.Errorf("%w (run \"cadenza show %s\" for the current version)", err, args[0])
					}
					return err
				}
				return writePlain("%s\n", args[0])
			})
		},
	}

	cmd.Flags().Int64VarP(&expectedVersion, "expected-version", "v", 0, "version the delete must apply against")
	_ = cmd.MarkFlagRequired("expected-version")
	return cmd
}
