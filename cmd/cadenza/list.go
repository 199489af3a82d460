package main

import (
	"github.com/spf13/cobra"

	"cadenza/internal/api"
	"cadenza/internal/config"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ListRecords(cmd.Context(), owner)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeRecordList(resp)
			})
		},
	}

	cmd.Flags().StringVarP(&owner, "owner", "o", "", "owner id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
