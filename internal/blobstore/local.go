package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const tmpDirName = "tmp"

// Common media extensions, preferred over mime.ExtensionsByType which is
// platform dependent and unordered.
var preferredExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
	"audio/mpeg": ".mp3",
	"audio/ogg":  ".ogg",
	"audio/wav":  ".wav",
	"audio/flac": ".flac",
}

// LocalDisk stores blob bytes as flat files under a local root directory.
type LocalDisk struct {
	root string
}

// NewLocalDisk creates a local blob store rooted at root. The root is not
// created here; call EnsureRoot once at startup.
func NewLocalDisk(root string) (*LocalDisk, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("blob store root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &LocalDisk{root: abs}, nil
}

// Root returns the absolute storage root path.
func (d *LocalDisk) Root() string {
	if d == nil {
		return ""
	}
	return d.root
}

// EnsureRoot creates the storage root and its staging directory.
func (d *LocalDisk) EnsureRoot() error {
	if d == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(d.root, tmpDirName), 0o755)
}

// Store streams the payload to a staging file and renames it into place under
// a generated name, so a partial write is never visible under the final name.
func (d *LocalDisk) Store(ctx context.Context, r io.Reader, contentType string) (BlobHandle, error) {
	var zero BlobHandle
	if d == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	tmp, err := os.CreateTemp(filepath.Join(d.root, tmpDirName), "put-*")
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		return zero, err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return zero, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zero, err
	}

	name := uuid.NewString() + extensionForContentType(contentType)
	dst, err := d.pathFromName(name)
	if err != nil {
		cleanup()
		return zero, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return zero, err
	}

	return BlobHandle{Name: name, SizeBytes: n, ContentType: contentType}, nil
}

// Open returns a reader for one stored blob.
func (d *LocalDisk) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if d == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.pathFromName(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes one blob. Missing names report false, not an error.
func (d *LocalDisk) Delete(ctx context.Context, name string) (bool, error) {
	if d == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := d.pathFromName(name)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns the names of all stored blobs, sorted.
func (d *LocalDisk) List(ctx context.Context) ([]string, error) {
	if d == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (d *LocalDisk) pathFromName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("blob name is required")
	}
	clean := filepath.Clean(name)
	if clean != name || clean == "." || filepath.IsAbs(clean) || strings.ContainsAny(clean, `/\`) {
		return "", fmt.Errorf("invalid blob name")
	}
	return filepath.Join(d.root, clean), nil
}

func extensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil {
		return ""
	}
	if ext, ok := preferredExtensions[mediaType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	sort.Strings(exts)
	return exts[0]
}
