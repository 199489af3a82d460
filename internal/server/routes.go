package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /health", s.handleHealth)

	// Records collection.
	mux.HandleFunc("POST /v1/records", s.handleCreateRecord)
	mux.HandleFunc("GET /v1/records", s.handleListRecords)

	// Single record.
	mux.HandleFunc("GET /v1/records/{id}", s.handleGetRecord)
	mux.HandleFunc("PATCH /v1/records/{id}", s.handleUpdateRecord)
	mux.HandleFunc("DELETE /v1/records/{id}", s.handleDeleteRecord)

	// Media bytes.
	mux.HandleFunc("GET /media/{name}", s.handleGetMedia)

	// Maintenance.
	mux.HandleFunc("POST /v1/gc/blobs", s.handleGCBlobs)

	return s.withRequestLogging(s.withAuth(mux))
}
