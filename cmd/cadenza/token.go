package main

import (
	"github.com/spf13/cobra"

	"cadenza/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "API token helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "hash <token>",
		Short: "Hash a token for the api_token_hash config key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashToken(args[0])
			if err != nil {
				return err
			}
			return writePlain("%s\n", hash)
		},
	})

	return cmd
}
