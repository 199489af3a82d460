package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cadenza/internal/models"
)

const recordColumns = "id, owner_id, title, caption, media_kind, media_ref, version, created_at, updated_at"

var (
	// ErrNotFound reports that no record exists under the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict reports an optimistic-concurrency loss: the stored
	// version no longer matches the caller's expected version.
	ErrVersionConflict = errors.New("record version conflict")
)

// CreateRecord inserts one record row. The initial version is always 1.
func (s *Store) CreateRecord(ctx context.Context, rec *models.MediaRecord) error {
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("record id is required")
	}
	if strings.TrimSpace(rec.OwnerID) == "" {
		return fmt.Errorf("owner_id is required")
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	if strings.TrimSpace(rec.MediaKind) == "" {
		rec.MediaKind = string(models.MediaKindNone)
	}
	rec.Version = 1

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, owner_id, title, caption, media_kind, media_ref, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.OwnerID,
		nullIfEmpty(strings.TrimSpace(rec.Title)),
		nullIfEmpty(strings.TrimSpace(rec.Caption)),
		rec.MediaKind,
		nullIfEmpty(strings.TrimSpace(rec.MediaRef)),
		rec.Version,
		dbFormatTime(rec.CreatedAt),
		dbFormatTime(rec.UpdatedAt),
	)
	return err
}

// GetRecord returns one record by id, or nil when absent.
func (s *Store) GetRecord(ctx context.Context, id string) (*models.MediaRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	return scanRecord(row)
}

// ListRecordsByOwner lists records for one owner, newest first.
func (s *Store) ListRecordsByOwner(ctx context.Context, ownerID string) ([]models.MediaRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.MediaRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpdateRecord writes mutable fields guarded by the expected version. On
// success the record's version is bumped. Zero rows updated is disambiguated
// into ErrNotFound or ErrVersionConflict.
func (s *Store) UpdateRecord(ctx context.Context, rec *models.MediaRecord, expectedVersion int64) error {
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("record id is required")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET title = ?, caption = ?, media_kind = ?, media_ref = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`,
		nullIfEmpty(strings.TrimSpace(rec.Title)),
		nullIfEmpty(strings.TrimSpace(rec.Caption)),
		rec.MediaKind,
		nullIfEmpty(strings.TrimSpace(rec.MediaRef)),
		dbFormatTime(now),
		rec.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.classifyMissedWrite(ctx, rec.ID)
	}

	rec.Version = expectedVersion + 1
	rec.UpdatedAt = now
	return nil
}

// DeleteRecord hard-deletes one record guarded by the expected version.
func (s *Store) DeleteRecord(ctx context.Context, id string, expectedVersion int64) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("record id is required")
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ? AND version = ?", id, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.classifyMissedWrite(ctx, id)
	}
	return nil
}

// ListMediaRefs returns the media_ref of every record that holds one.
func (s *Store) ListMediaRefs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT media_ref FROM records WHERE media_ref IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) classifyMissedWrite(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM records WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

func (s *Store) recordIDExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM records WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanRecord(scanner interface {
	Scan(dest ...any) error
}) (*models.MediaRecord, error) {
	rec := models.MediaRecord{}

	var title, caption, mediaRef sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&rec.ID,
		&rec.OwnerID,
		&title,
		&caption,
		&rec.MediaKind,
		&mediaRef,
		&rec.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rec.Title = title.String
	rec.Caption = caption.String
	rec.MediaRef = mediaRef.String

	parsedCreated, err := dbParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	parsedUpdated, err := dbParseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = parsedCreated
	rec.UpdatedAt = parsedUpdated

	return &rec, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func dbFormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func dbParseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", raw, err)
	}
	return t.UTC(), nil
}
