package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cadenza/internal/auth"
	"cadenza/internal/blobstore"
	"cadenza/internal/config"
	"cadenza/internal/store"
)

const (
	allowRemoteEnvKey = "CADENZA_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 60 * time.Second
	writeTimeout      = 120 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server wraps HTTP handlers for the cadenza API.
type Server struct {
	addr         string
	store        store.RecordStore
	blobs        blobstore.BlobStore
	service      *RecordService
	logger       *slog.Logger
	apiTokenHash string

	maxUploadBytes     int64
	multipartMaxMemory int64
}

// New creates a new server instance.
func New(addr string, recordStore store.RecordStore, blobs blobstore.BlobStore, baseURL string, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:               addr,
		store:              recordStore,
		blobs:              blobs,
		service:            NewRecordService(recordStore, blobs, baseURL, port, logger),
		logger:             logger,
		maxUploadBytes:     config.DefaultMediaMaxUploadBytes,
		multipartMaxMemory: config.DefaultMediaMultipartMaxMemory,
	}
}

// ConfigureMediaOptions overrides the upload size limits.
func (s *Server) ConfigureMediaOptions(maxUploadBytes, multipartMaxMemory int64) {
	if maxUploadBytes > 0 {
		s.maxUploadBytes = maxUploadBytes
	}
	if multipartMaxMemory > 0 {
		s.multipartMaxMemory = multipartMaxMemory
	}
}

// ConfigureAuth sets the bcrypt hash incoming bearer tokens are checked
// against. An empty hash leaves the API open.
func (s *Server) ConfigureAuth(tokenHash string) {
	s.apiTokenHash = strings.TrimSpace(tokenHash)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return server.ListenAndServe()
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// withAuth enforces the bearer token on API routes. Health and media
// downloads stay open; media URLs are handed out for direct consumption.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiTokenHash == "" ||
			r.URL.Path == "/health" ||
			strings.HasPrefix(r.URL.Path, "/media/") {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" || !auth.VerifyToken(s.apiTokenHash, token) {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("invalid or missing api token")))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
