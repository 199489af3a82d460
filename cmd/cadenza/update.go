package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cadenza/internal/api"
	"cadenza/internal/config"
)

type updateCmdOptions struct {
	title           string
	caption         string
	mediaPath       string
	mediaType       string
	expectedVersion int64
}

func newUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &updateCmdOptions{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a record's fields or replace its media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, cfg, opts, jsonOutput, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "new title")
	cmd.Flags().StringVarP(&opts.caption, "caption", "c", "", "new caption")
	cmd.Flags().StringVarP(&opts.mediaPath, "media", "m", "", "replacement media file")
	cmd.Flags().StringVar(&opts.mediaType, "media-type", "", "declared media content type (default: from extension)")
	cmd.Flags().Int64VarP(&opts.expectedVersion, "expected-version", "v", 0, "version the update must apply against")
	_ = cmd.MarkFlagRequired("expected-version")
	return cmd
}

func runUpdate(cmd *cobra.Command, cfg *config.Config, opts *updateCmdOptions, jsonOutput *bool, id string) error {
	req := api.RecordUpdateRequest{ExpectedVersion: opts.expectedVersion}
	if cmd.Flags().Changed("title") {
		req.Title = &opts.title
	}
	if cmd.Flags().Changed("caption") {
		req.Caption = &opts.caption
	}
	if req.Title == nil && req.Caption == nil && opts.mediaPath == "" {
		return errors.New("no fields to update")
	}

	return withClient(cfg, func(client *api.Client) error {
		var upload *api.MediaUpload
		if opts.mediaPath != "" {
			f, err := os.Open(opts.mediaPath)
			if err != nil {
				return err
			}
			defer f.Close()

			contentType := opts.mediaType
			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(opts.mediaPath))
			}
			upload = &api.MediaUpload{
				Content:     f,
				ContentType: contentType,
				Filename:    filepath.Base(opts.mediaPath),
			}
		}

		resp, err := client.UpdateRecord(cmd.Context(), id, req, upload)
		if err != nil {
			if api.IsVersionConflict(err) {
				return fmt.Errorf("%w (run \"cadenza show %s\" for the current version)", err, id)
			}
			return err
		}
		if *jsonOutput {
			return writeJSON(resp)
		}
		return writePlain("%s v%d\n", resp.ID, resp.Version)
	})
}
