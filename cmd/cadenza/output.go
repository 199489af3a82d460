package main

import (
	"fmt"
	"os"
	"time"

	"cadenza/internal/api"
	"cadenza/internal/format"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeRecordList(records []api.RecordResponse) error {
	for _, rec := range records {
		if err := writePlain("%s\n", formatRecordLine(rec)); err != nil {
			return err
		}
	}
	return nil
}

func writeRecordDetail(rec api.RecordResponse) error {
	lines := []string{
		fmt.Sprintf("id: %s", rec.ID),
		fmt.Sprintf("owner: %s", rec.OwnerID),
		fmt.Sprintf("media_kind: %s", rec.MediaKind),
		fmt.Sprintf("version: %d", rec.Version),
		fmt.Sprintf("created_at: %s", formatTime(rec.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(rec.UpdatedAt)),
	}
	if rec.Title != "" {
		lines = append(lines, fmt.Sprintf("title: %s", rec.Title))
	}
	if rec.Caption != "" {
		lines = append(lines, fmt.Sprintf("caption: %s", rec.Caption))
	}
	if rec.MediaRef != "" {
		lines = append(lines, fmt.Sprintf("media_ref: %s", rec.MediaRef))
	}

	for _, line := range lines {
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func formatRecordLine(rec api.RecordResponse) string {
	title := rec.Title
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%s [%s] v%d - %s", rec.ID, rec.MediaKind, rec.Version, title)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
