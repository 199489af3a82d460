package main

import (
	"github.com/spf13/cobra"

	"cadenza/internal/api"
	"cadenza/internal/config"
)

func newGCCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Sweep media blobs no record references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GCBlobs(cmd.Context(), apply)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}

				mode := "dry run"
				if !resp.DryRun {
					mode = "applied"
				}
				return writePlain("%s: %d orphan(s), %d deleted, %d failed\n",
					mode, resp.CandidateCount, resp.DeletedCount, resp.FailedCount)
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "delete orphans instead of listing counts")
	return cmd
}
