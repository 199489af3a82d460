package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cadenza/internal/models"
)

func newStoreForTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "records_test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return st
}

func TestCreateAndGetRecord(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()

	rec := &models.MediaRecord{
		ID:        "pu-abc123",
		OwnerID:   "user-1",
		Caption:   "first chords",
		MediaKind: string(models.MediaKindAudio),
		MediaRef:  "http://127.0.0.1:8095/media/x.mp3",
	}
	if err := st.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", rec.Version)
	}

	got, err := st.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.OwnerID != "user-1" || got.Caption != "first chords" || got.MediaKind != "AUDIO" {
		t.Fatalf("unexpected record: %#v", got)
	}
	if got.MediaRef != rec.MediaRef {
		t.Fatalf("expected media_ref %q, got %q", rec.MediaRef, got.MediaRef)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set: %#v", got)
	}

	missing, err := st.GetRecord(ctx, "pu-nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing record, got %#v", missing)
	}
}

func TestUpdateRecordVersionGuard(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()

	rec := &models.MediaRecord{ID: "pu-upd001", OwnerID: "user-1", Caption: "before", MediaKind: string(models.MediaKindNone)}
	if err := st.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated := *rec
	updated.Caption = "after"
	if err := st.UpdateRecord(ctx, &updated, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2 after update, got %d", updated.Version)
	}

	stale := *rec
	stale.Caption = "stale write"
	err := st.UpdateRecord(ctx, &stale, 1)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, err := st.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Caption != "after" || got.Version != 2 {
		t.Fatalf("stale write must not change the row: %#v", got)
	}

	gone := models.MediaRecord{ID: "pu-gone99", OwnerID: "user-1", MediaKind: string(models.MediaKindNone)}
	err = st.UpdateRecord(ctx, &gone, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestUpdateRecordConcurrentWritersOneWins(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()

	rec := &models.MediaRecord{ID: "pu-race01", OwnerID: "user-7", Caption: "start", MediaKind: string(models.MediaKindNone)}
	if err := st.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	captions := []string{"writer a", "writer b"}
	errs := make([]error, len(captions))
	var wg sync.WaitGroup
	for i, caption := range captions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attempt := *rec
			attempt.Caption = caption
			errs[i] = st.UpdateRecord(ctx, &attempt, 1)
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected update error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("expected one winner and one conflict, got wins=%d conflicts=%d (%v)", wins, conflicts, errs)
	}

	got, err := st.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("expected version 2 after the race, got %d", got.Version)
	}
	if got.Caption != "writer a" && got.Caption != "writer b" {
		t.Fatalf("winning caption lost: %#v", got)
	}
}

func TestDeleteRecordVersionGuard(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()

	rec := &models.MediaRecord{ID: "pu-del001", OwnerID: "user-2", MediaKind: string(models.MediaKindNone)}
	if err := st.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := st.DeleteRecord(ctx, rec.ID, 99); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for wrong version, got %v", err)
	}
	if got, err := st.GetRecord(ctx, rec.ID); err != nil || got == nil {
		t.Fatalf("record must survive a conflicted delete: rec=%v err=%v", got, err)
	}

	if err := st.DeleteRecord(ctx, rec.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, err := st.GetRecord(ctx, rec.ID); err != nil || got != nil {
		t.Fatalf("expected record gone: rec=%v err=%v", got, err)
	}

	if err := st.DeleteRecord(ctx, rec.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted id, got %v", err)
	}
}

func TestListRecordsByOwnerNewestFirst(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"pu-aaa001", "pu-aaa002", "pu-aaa003"} {
		rec := &models.MediaRecord{
			ID:        id,
			OwnerID:   "user-3",
			MediaKind: string(models.MediaKindNone),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.CreateRecord(ctx, rec); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	other := &models.MediaRecord{ID: "pu-bbb001", OwnerID: "user-4", MediaKind: string(models.MediaKindNone)}
	if err := st.CreateRecord(ctx, other); err != nil {
		t.Fatalf("create other owner: %v", err)
	}

	records, err := st.ListRecordsByOwner(ctx, "user-3")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"pu-aaa003", "pu-aaa002", "pu-aaa001"} {
		if records[i].ID != want {
			t.Fatalf("expected %s at position %d, got %s", want, i, records[i].ID)
		}
	}
}

func TestListMediaRefs(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()

	withMedia := &models.MediaRecord{
		ID:        "pu-ref001",
		OwnerID:   "user-5",
		MediaKind: string(models.MediaKindImage),
		MediaRef:  "http://127.0.0.1:8095/media/a.png",
	}
	withoutMedia := &models.MediaRecord{ID: "pu-ref002", OwnerID: "user-5", MediaKind: string(models.MediaKindNone)}
	if err := st.CreateRecord(ctx, withMedia); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.CreateRecord(ctx, withoutMedia); err != nil {
		t.Fatalf("create: %v", err)
	}

	refs, err := st.ListMediaRefs(ctx)
	if err != nil {
		t.Fatalf("list refs: %v", err)
	}
	if len(refs) != 1 || refs[0] != withMedia.MediaRef {
		t.Fatalf("expected single ref %q, got %v", withMedia.MediaRef, refs)
	}
}

func TestGenerateRecordID(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()

	id, err := st.GenerateRecordID(ctx)
	if err != nil {
		t.Fatalf("generate id: %v", err)
	}
	if len(id) != len("pu-")+idHashLength {
		t.Fatalf("unexpected id shape: %q", id)
	}
	if id[:3] != "pu-" {
		t.Fatalf("expected pu- prefix, got %q", id)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "migrate_test.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	status, err := st.MigrationStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.CurrentVersion != status.AvailableVersion {
		t.Fatalf("expected fully migrated db, got %#v", status)
	}
	if len(status.Pending) != 0 {
		t.Fatalf("expected no pending migrations, got %v", status.Pending)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	rec := &models.MediaRecord{ID: "pu-mig001", OwnerID: "user-6", MediaKind: string(models.MediaKindNone)}
	if err := st.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("create after reopen: %v", err)
	}
}
