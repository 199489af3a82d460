package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cadenza/internal/blobstore"
	"cadenza/internal/models"
	"cadenza/internal/store"
)

// RecordService coordinates the media record lifecycle across the record
// store and the blob store. The two resources cannot be committed together,
// so the service sequences them: blob writes happen before the record
// commits, blob deletes happen after. The only drift a failure can leave
// behind is an orphaned, unreferenced blob; a committed record never points
// at a blob that was not durably written first.
type RecordService struct {
	records store.RecordStore
	blobs   blobstore.BlobStore
	baseURL string
	port    int
	logger  *slog.Logger
}

// NewRecordService constructs a RecordService.
func NewRecordService(records store.RecordStore, blobs blobstore.BlobStore, baseURL string, port int, logger *slog.Logger) *RecordService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordService{records: records, blobs: blobs, baseURL: baseURL, port: port, logger: logger}
}

// MediaPayload is an incoming media upload with its declared content type.
type MediaPayload struct {
	Content     io.Reader
	ContentType string
}

// CreateRecordInput describes creation of a media record.
type CreateRecordInput struct {
	OwnerID string
	Title   string
	Caption string
}

// UpdateRecordInput describes a partial update. Nil fields are left
// unchanged. ExpectedVersion guards against concurrent writers.
type UpdateRecordInput struct {
	Title           *string
	Caption         *string
	ExpectedVersion int64
}

// BlobGCResult reports one orphan sweep.
type BlobGCResult struct {
	CandidateCount int  `json:"candidate_count"`
	DeletedCount   int  `json:"deleted_count"`
	FailedCount    int  `json:"failed_count"`
	DryRun         bool `json:"dry_run"`
}

// Create validates the optional media payload, stores its bytes, and commits
// the record. A record-store failure after the blob was written triggers a
// compensating blob delete, so a failed create leaves neither resource
// behind.
func (s *RecordService) Create(ctx context.Context, in CreateRecordInput, media *MediaPayload) (models.MediaRecord, error) {
	var zero models.MediaRecord
	if s == nil || s.records == nil || s.blobs == nil {
		return zero, internalError(fmt.Errorf("record service is not configured"))
	}

	ownerID := strings.TrimSpace(in.OwnerID)
	if ownerID == "" {
		return zero, badRequestCode(fmt.Errorf("owner_id is required"), ErrCodeMissingRequired)
	}

	// Validation happens before any side effect.
	kind := models.MediaKindNone
	if media != nil {
		parsed, err := models.MediaKindFromContentType(media.ContentType)
		if err != nil {
			return zero, badRequestCode(err, ErrCodeUnsupportedMediaKind)
		}
		kind = parsed
	}

	id, err := s.records.GenerateRecordID(ctx)
	if err != nil {
		return zero, persistenceFailure(fmt.Errorf("generate record id: %w", err))
	}

	rec := models.MediaRecord{
		ID:        id,
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(in.Title),
		Caption:   strings.TrimSpace(in.Caption),
		MediaKind: string(kind),
	}

	var staged blobstore.BlobHandle
	hasStaged := false
	if media != nil {
		staged, err = s.blobs.Store(ctx, media.Content, media.ContentType)
		if err != nil {
			return zero, storageFailure(fmt.Errorf("store media: %w", err))
		}
		hasStaged = true
		rec.MediaRef = ResolveMediaURL(s.baseURL, s.port, staged.Name)
	}

	if err := s.records.CreateRecord(ctx, &rec); err != nil {
		if hasStaged {
			s.discardBlob(ctx, staged.Name, "create compensation")
		}
		return zero, persistenceFailure(fmt.Errorf("create record: %w", err))
	}

	return rec, nil
}

// Get returns one record by id.
func (s *RecordService) Get(ctx context.Context, id string) (models.MediaRecord, error) {
	var zero models.MediaRecord
	if s == nil || s.records == nil {
		return zero, internalError(fmt.Errorf("record service is not configured"))
	}
	rec, err := s.loadRecord(ctx, id)
	if err != nil {
		return zero, err
	}
	return *rec, nil
}

// ListByOwner lists an owner's records, newest first.
func (s *RecordService) ListByOwner(ctx context.Context, ownerID string) ([]models.MediaRecord, error) {
	if s == nil || s.records == nil {
		return nil, internalError(fmt.Errorf("record service is not configured"))
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, badRequestCode(fmt.Errorf("owner is required"), ErrCodeMissingRequired)
	}
	records, err := s.records.ListRecordsByOwner(ctx, ownerID)
	if err != nil {
		return nil, persistenceFailure(fmt.Errorf("list records: %w", err))
	}
	return records, nil
}

// Update applies a partial field update and optionally replaces the record's
// media. A replacement blob is staged before the versioned record write; if
// that write loses the version race or fails, the staged blob is deleted and
// the pre-update record and blob stay authoritative. Only after the record
// has committed is the replaced blob deleted, best effort.
func (s *RecordService) Update(ctx context.Context, id string, in UpdateRecordInput, media *MediaPayload) (models.MediaRecord, error) {
	var zero models.MediaRecord
	if s == nil || s.records == nil || s.blobs == nil {
		return zero, internalError(fmt.Errorf("record service is not configured"))
	}

	current, err := s.loadRecord(ctx, id)
	if err != nil {
		return zero, err
	}

	updated := *current
	if in.Title != nil {
		updated.Title = strings.TrimSpace(*in.Title)
	}
	if in.Caption != nil {
		updated.Caption = strings.TrimSpace(*in.Caption)
	}

	var kind models.MediaKind
	if media != nil {
		kind, err = models.MediaKindFromContentType(media.ContentType)
		if err != nil {
			return zero, badRequestCode(err, ErrCodeUnsupportedMediaKind)
		}
	}

	oldRef := current.MediaRef
	var staged blobstore.BlobHandle
	hasStaged := false
	if media != nil {
		// The old blob stays untouched until the record commit succeeds.
		staged, err = s.blobs.Store(ctx, media.Content, media.ContentType)
		if err != nil {
			return zero, storageFailure(fmt.Errorf("store media: %w", err))
		}
		hasStaged = true
		updated.MediaKind = string(kind)
		updated.MediaRef = ResolveMediaURL(s.baseURL, s.port, staged.Name)
	}

	if err := s.records.UpdateRecord(ctx, &updated, in.ExpectedVersion); err != nil {
		if hasStaged {
			s.discardBlob(ctx, staged.Name, "update compensation")
		}
		switch {
		case errors.Is(err, store.ErrNotFound):
			return zero, notFoundCode(fmt.Errorf("record not found"), ErrCodeRecordNotFound)
		case errors.Is(err, store.ErrVersionConflict):
			return zero, conflictCode(fmt.Errorf("record version conflict"), ErrCodeVersionConflict)
		default:
			return zero, persistenceFailure(fmt.Errorf("update record: %w", err))
		}
	}

	if hasStaged && oldRef != "" {
		// The record has moved on; a failed cleanup leaves an orphan, not an
		// inconsistency.
		s.discardBlob(ctx, BlobNameFromMediaRef(oldRef), "replaced media")
	}

	return updated, nil
}

// Delete removes the record first, then attempts to remove its blob. The
// record delete is authoritative; blob cleanup is best effort.
func (s *RecordService) Delete(ctx context.Context, id string, expectedVersion int64) error {
	if s == nil || s.records == nil || s.blobs == nil {
		return internalError(fmt.Errorf("record service is not configured"))
	}

	current, err := s.loadRecord(ctx, id)
	if err != nil {
		return err
	}

	if err := s.records.DeleteRecord(ctx, id, expectedVersion); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return notFoundCode(fmt.Errorf("record not found"), ErrCodeRecordNotFound)
		case errors.Is(err, store.ErrVersionConflict):
			return conflictCode(fmt.Errorf("record version conflict"), ErrCodeVersionConflict)
		default:
			return persistenceFailure(fmt.Errorf("delete record: %w", err))
		}
	}

	if current.MediaRef != "" {
		s.discardBlob(ctx, BlobNameFromMediaRef(current.MediaRef), "record deleted")
	}

	return nil
}

// OpenMedia opens the byte stream for one stored blob.
func (s *RecordService) OpenMedia(ctx context.Context, name string) (io.ReadCloser, error) {
	if s == nil || s.blobs == nil {
		return nil, internalError(fmt.Errorf("record service is not configured"))
	}
	rc, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, notFoundCode(fmt.Errorf("media not found"), ErrCodeMediaNotFound)
	}
	return rc, nil
}

// GCOrphans sweeps blobs that no record references and optionally deletes
// them. Orphans are an accepted residue of compensations and best-effort
// cleanups; this reclaims them out-of-band.
func (s *RecordService) GCOrphans(ctx context.Context, apply bool) (BlobGCResult, error) {
	result := BlobGCResult{DryRun: !apply}
	if s == nil || s.records == nil || s.blobs == nil {
		return result, internalError(fmt.Errorf("record service is not configured"))
	}

	refs, err := s.records.ListMediaRefs(ctx)
	if err != nil {
		return result, persistenceFailure(fmt.Errorf("list media refs: %w", err))
	}
	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		referenced[BlobNameFromMediaRef(ref)] = struct{}{}
	}

	names, err := s.blobs.List(ctx)
	if err != nil {
		return result, storageFailure(fmt.Errorf("list blobs: %w", err))
	}

	for _, name := range names {
		if _, ok := referenced[name]; ok {
			continue
		}
		result.CandidateCount++
		if !apply {
			continue
		}
		if _, err := s.blobs.Delete(ctx, name); err != nil {
			result.FailedCount++
			s.logger.Warn("orphan blob delete failed", "blob", name, "error", err)
			continue
		}
		result.DeletedCount++
	}

	return result, nil
}

func (s *RecordService) loadRecord(ctx context.Context, id string) (*models.MediaRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, badRequestCode(fmt.Errorf("record id is required"), ErrCodeInvalidID)
	}
	rec, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return nil, persistenceFailure(fmt.Errorf("load record: %w", err))
	}
	if rec == nil {
		return nil, notFoundCode(fmt.Errorf("record not found"), ErrCodeRecordNotFound)
	}
	return rec, nil
}

// discardBlob deletes a blob without surfacing failure: the caller has
// already committed (or reported) the authoritative outcome, and a stray
// blob is tolerable where a confusing secondary error is not.
func (s *RecordService) discardBlob(ctx context.Context, name, reason string) {
	if name == "" {
		return
	}
	if _, err := s.blobs.Delete(ctx, name); err != nil {
		s.logger.Warn("blob cleanup failed", "blob", name, "reason", reason, "error", err)
	}
}
