package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cadenza/internal/api"
	"cadenza/internal/config"
)

// seedFile is the YAML document accepted by the import command.
type seedFile struct {
	Records []seedRecord `yaml:"records"`
}

type seedRecord struct {
	OwnerID string `yaml:"owner_id"`
	Title   string `yaml:"title"`
	Caption string `yaml:"caption"`
	// Media is a path to a local file, resolved relative to the seed file.
	Media string `yaml:"media"`
}

func newImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Seed records from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("--input is required")
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return err
			}
			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("parse %s: %w", inputPath, err)
			}
			if len(seed.Records) == 0 {
				return fmt.Errorf("no records found in %s", inputPath)
			}

			baseDir := filepath.Dir(inputPath)
			return withClient(cfg, func(client *api.Client) error {
				created := make([]api.RecordResponse, 0, len(seed.Records))
				for i, rec := range seed.Records {
					resp, err := importSeedRecord(cmd, client, baseDir, rec)
					if err != nil {
						return fmt.Errorf("record %d: %w", i+1, err)
					}
					created = append(created, resp)
				}

				if *jsonOutput {
					return writeJSON(created)
				}
				for _, rec := range created {
					if err := writePlain("%s\n", rec.ID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "YAML seed file")
	return cmd
}

func importSeedRecord(cmd *cobra.Command, client *api.Client, baseDir string, rec seedRecord) (api.RecordResponse, error) {
	var upload *api.MediaUpload
	if rec.Media != "" {
		path := rec.Media
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return api.RecordResponse{}, err
		}
		defer f.Close()

		upload = &api.MediaUpload{
			Content:     f,
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Filename:    filepath.Base(path),
		}
	}

	return client.CreateRecord(cmd.Context(), rec.OwnerID, rec.Title, rec.Caption, upload)
}
