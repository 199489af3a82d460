package server

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"cadenza/internal/api"
	"cadenza/internal/models"
)

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseRecordForm(w, r)
	if !ok {
		return
	}
	defer form.close()

	rec, err := s.service.Create(r.Context(), CreateRecordInput{
		OwnerID: form.value("owner_id"),
		Title:   form.value("title"),
		Caption: form.value("caption"),
	}, form.media)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, recordToResponse(rec))
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recordToResponse(rec))
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListByOwner(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := make([]api.RecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, recordToResponse(rec))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var input UpdateRecordInput
	var media *MediaPayload

	if isMultipart(r) {
		form, ok := s.parseRecordForm(w, r)
		if !ok {
			return
		}
		defer form.close()

		version, err := parseExpectedVersion(form.value("expected_version"))
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, err)
			return
		}
		input.ExpectedVersion = version
		input.Title = form.optionalValue("title")
		input.Caption = form.optionalValue("caption")
		media = form.media
	} else {
		var req api.RecordUpdateRequest
		if !s.decodeJSONReq(w, r, &req) {
			return
		}
		if req.ExpectedVersion < 1 {
			s.writeErrorReq(w, r, http.StatusBadRequest,
				badRequestCode(fmt.Errorf("expected_version is required"), ErrCodeInvalidVersion))
			return
		}
		input.ExpectedVersion = req.ExpectedVersion
		input.Title = req.Title
		input.Caption = req.Caption
	}

	rec, err := s.service.Update(r.Context(), id, input, media)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recordToResponse(rec))
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	version, err := parseExpectedVersion(r.URL.Query().Get("expected_version"))
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	if err := s.service.Delete(r.Context(), r.PathValue("id"), version); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rc, err := s.service.OpenMedia(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer rc.Close()

	if contentType := mime.TypeByExtension(filepath.Ext(name)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.log().Debug("media stream aborted", "blob", name, "error", err)
	}
}

func (s *Server) handleGCBlobs(w http.ResponseWriter, r *http.Request) {
	apply := strings.EqualFold(r.URL.Query().Get("apply"), "true")
	result, err := s.service.GCOrphans(r.Context(), apply)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.BlobGCResponse{
		CandidateCount: result.CandidateCount,
		DeletedCount:   result.DeletedCount,
		FailedCount:    result.FailedCount,
		DryRun:         result.DryRun,
	})
}

// recordForm holds the parsed multipart fields and the optional media part.
type recordForm struct {
	request *http.Request
	file    multipart.File
	media   *MediaPayload
}

func (f *recordForm) value(key string) string {
	return strings.TrimSpace(f.request.FormValue(key))
}

// optionalValue distinguishes an absent field from an empty one.
func (f *recordForm) optionalValue(key string) *string {
	if f.request.MultipartForm == nil {
		return nil
	}
	values, ok := f.request.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	value := strings.TrimSpace(values[0])
	return &value
}

func (f *recordForm) close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

func (s *Server) parseRecordForm(w http.ResponseWriter, r *http.Request) (*recordForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.multipartMaxMemory); err != nil {
		classified := classifyMultipartError(err)
		s.writeErrorReq(w, r, httpStatusFromError(classified), classified)
		return nil, false
	}

	form := &recordForm{request: r}

	file, header, err := r.FormFile("media")
	if err == http.ErrMissingFile {
		return form, true
	}
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequest(fmt.Errorf("invalid media part: %w", err)))
		return nil, false
	}
	form.file = file

	// The declared part type wins; sniffed bytes are the fallback.
	buffered := bufio.NewReader(file)
	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || strings.EqualFold(contentType, "application/octet-stream") {
		peek, _ := buffered.Peek(512)
		contentType = http.DetectContentType(peek)
	}

	form.media = &MediaPayload{Content: buffered, ContentType: contentType}
	return form, true
}

func isMultipart(r *http.Request) bool {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return strings.HasPrefix(contentType, "multipart/")
}

func parseExpectedVersion(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, badRequestCode(fmt.Errorf("expected_version is required"), ErrCodeInvalidVersion)
	}
	version, err := strconv.ParseInt(value, 10, 64)
	if err != nil || version < 1 {
		return 0, badRequestCode(fmt.Errorf("invalid expected_version %q", value), ErrCodeInvalidVersion)
	}
	return version, nil
}

func recordToResponse(rec models.MediaRecord) api.RecordResponse {
	return api.RecordResponse{
		ID:        rec.ID,
		OwnerID:   rec.OwnerID,
		Title:     rec.Title,
		Caption:   rec.Caption,
		MediaKind: rec.MediaKind,
		MediaRef:  rec.MediaRef,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
