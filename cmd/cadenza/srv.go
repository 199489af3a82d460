package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cadenza/internal/blobstore"
	"cadenza/internal/config"
	"cadenza/internal/server"
	"cadenza/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the cadenza API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			blobs, err := blobstore.NewLocalDisk(cfg.Media.Root)
			if err != nil {
				return err
			}
			// Media storage must be writable before any upload is accepted.
			if err := blobs.EnsureRoot(); err != nil {
				return fmt.Errorf("init media root %s: %w", blobs.Root(), err)
			}

			srv := server.New(addr, st, blobs, cfg.Media.BaseURL, cfg.Port, logger)
			srv.ConfigureMediaOptions(cfg.Media.MaxUploadBytes, cfg.Media.MultipartMaxMemory)
			srv.ConfigureAuth(cfg.APITokenHash)
			return srv.ListenAndServe()
		},
	}
}
