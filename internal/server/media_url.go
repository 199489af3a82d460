package server

import (
	"strconv"
	"strings"
)

// mediaRoot is the URL path segment under which blob bytes are served. It is
// part of the persisted locator format; changing it invalidates stored
// media_ref values.
const mediaRoot = "media"

// ResolveMediaURL maps a stored blob name and the deployment base address
// into the client-facing media locator. When the base address already
// carries an explicit port, the default port is not appended. The function
// is deterministic; its output is persisted verbatim in media_ref.
func ResolveMediaURL(baseURL string, port int, blobName string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !hostCarriesPort(base) && port > 0 {
		base += ":" + strconv.Itoa(port)
	}
	return base + "/" + mediaRoot + "/" + blobName
}

// BlobNameFromMediaRef extracts the stored blob name from a persisted media
// locator. It is the inverse of ResolveMediaURL.
func BlobNameFromMediaRef(mediaRef string) string {
	ref := strings.TrimRight(strings.TrimSpace(mediaRef), "/")
	if ref == "" {
		return ""
	}
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

// hostCarriesPort reports whether the address contains an explicit port
// after the scheme separator.
func hostCarriesPort(baseURL string) bool {
	rest := baseURL
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+len("://"):]
	}
	if idx := strings.IndexAny(rest, "/"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.Contains(rest, ":")
}
