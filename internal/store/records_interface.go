package store

import (
	"context"

	"cadenza/internal/models"
)

// RecordStore is the metadata persistence surface for media records.
//
// Updates and deletes are guarded by an expected version token; a stale
// token surfaces ErrVersionConflict rather than silently overwriting a
// concurrent change.
type RecordStore interface {
	CreateRecord(ctx context.Context, rec *models.MediaRecord) error
	GetRecord(ctx context.Context, id string) (*models.MediaRecord, error)
	ListRecordsByOwner(ctx context.Context, ownerID string) ([]models.MediaRecord, error)
	UpdateRecord(ctx context.Context, rec *models.MediaRecord, expectedVersion int64) error
	DeleteRecord(ctx context.Context, id string, expectedVersion int64) error

	ListMediaRefs(ctx context.Context) ([]string, error)
	GenerateRecordID(ctx context.Context) (string, error)
}

var _ RecordStore = (*Store)(nil)
