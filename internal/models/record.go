package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind classifies the media payload attached to a record.
type MediaKind string

const (
	MediaKindImage MediaKind = "IMAGE"
	MediaKindVideo MediaKind = "VIDEO"
	MediaKindAudio MediaKind = "AUDIO"
	MediaKindNone  MediaKind = "NONE"
)

var validMediaKinds = map[MediaKind]struct{}{
	MediaKindImage: {},
	MediaKindVideo: {},
	MediaKindAudio: {},
	MediaKindNone:  {},
}

// MediaRecord is a database-resident entity that references at most one blob.
// MediaRef holds the client-facing locator of the stored blob; it is empty
// when MediaKind is NONE. Version is the optimistic-concurrency token bumped
// on every successful update.
type MediaRecord struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	MediaKind string    `json:"media_kind"`
	MediaRef  string    `json:"media_ref,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMedia reports whether the record references a stored blob.
func (r *MediaRecord) HasMedia() bool {
	return r != nil && r.MediaRef != ""
}

// ParseMediaKind validates a raw media kind value.
func ParseMediaKind(raw string) (MediaKind, error) {
	value := MediaKind(strings.ToUpper(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("media kind is required")
	}
	if _, ok := validMediaKinds[value]; !ok {
		return "", fmt.Errorf("invalid media kind: %s", value)
	}
	return value, nil
}

// MediaKindFromContentType maps a declared content type onto the kind of
// media it carries. Only image, video, and audio payloads are accepted.
func MediaKindFromContentType(contentType string) (MediaKind, error) {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return MediaKindImage, nil
	case strings.HasPrefix(mediaType, "video/"):
		return MediaKindVideo, nil
	case strings.HasPrefix(mediaType, "audio/"):
		return MediaKindAudio, nil
	}
	return "", fmt.Errorf("unsupported media type: %s", contentType)
}
