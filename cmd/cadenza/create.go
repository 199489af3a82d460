package main

import (
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cadenza/internal/api"
	"cadenza/internal/config"
)

type createCmdOptions struct {
	owner     string
	caption   string
	mediaPath string
	mediaType string
}

func newCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &createCmdOptions{}
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new record, optionally with a media file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, cfg, opts, jsonOutput, args)
		},
	}

	cmd.Flags().StringVarP(&opts.owner, "owner", "o", "", "owner id")
	cmd.Flags().StringVarP(&opts.caption, "caption", "c", "", "caption")
	cmd.Flags().StringVarP(&opts.mediaPath, "media", "m", "", "media file to upload")
	cmd.Flags().StringVar(&opts.mediaType, "media-type", "", "declared media content type (default: from extension)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func runCreate(cmd *cobra.Command, cfg *config.Config, opts *createCmdOptions, jsonOutput *bool, args []string) error {
	if len(args) == 0 {
		return errors.New("title is required")
	}
	title := strings.Join(args, " ")

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

		resp, err := client.CreateRecord(cmd.Context(), opts.owner, title, opts.caption, upload)
		if err != nil {
			return err
		}
		if *jsonOutput {
			return writeJSON(resp)
		}
		return writePlain("%s\n", resp.ID)
	})
}
