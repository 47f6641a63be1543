package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/protech/repairbot/internal/database"
)

func setupStore(t *testing.T) database.Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	return database.NewStore(db, nil)
}

func newInquiry(ref string) *database.Inquiry {
	return &database.Inquiry{
		Reference: ref,
		Name:      "Tariro",
		Email:     "tariro@example.com",
		Phone:     "+263 77 000 0000",
		Message:   "My laptop will not boot",
	}
}

// claim moves a freshly saved inquiry into sending, failing the test otherwise.
func claim(t *testing.T, store database.Store, id int64) {
	t.Helper()
	ok, err := store.ClaimInquiry(context.Background(), id, time.Now())
	if err != nil || !ok {
		t.Fatalf("ClaimInquiry(%d) = %v, %v; want true, nil", id, ok, err)
	}
}

func TestSaveAndGetInquiry(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	inq := newInquiry("ref-1")
	if err := store.SaveInquiry(ctx, inq); err != nil {
		t.Fatalf("SaveInquiry: %v", err)
	}
	if inq.ID == 0 {
		t.Error("SaveInquiry did not set ID")
	}

	got, err := store.GetInquiryByReference(ctx, "ref-1")
	if err != nil {
		t.Fatalf("GetInquiryByReference: %v", err)
	}
	if got.Status != database.InquiryPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if got.Email != inq.Email || got.Message != inq.Message {
		t.Errorf("got %+v, want fields of %+v", got, inq)
	}
	if got.SentAt.Valid {
		t.Error("SentAt should be NULL for a new inquiry")
	}

	if _, err := store.GetInquiryByReference(ctx, "nope"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("GetInquiryByReference(unknown) error = %v, want ErrNotFound", err)
	}

	if err := store.SaveInquiry(ctx, newInquiry("ref-1")); err == nil {
		t.Error("duplicate reference should fail")
	}
}

func TestPendingLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first := newInquiry("ref-a")
	second := newInquiry("ref-b")
	for _, inq := range []*database.Inquiry{first, second} {
		if err := store.SaveInquiry(ctx, inq); err != nil {
			t.Fatalf("SaveInquiry: %v", err)
		}
	}

	pending, err := store.GetPendingInquiries(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingInquiries: %v", err)
	}
	if len(pending) != 2 || pending[0].Reference != "ref-a" {
		t.Fatalf("pending = %+v, want ref-a then ref-b", pending)
	}

	if err := store.MarkInquirySent(ctx, first.ID, time.Now()); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("MarkInquirySent on unclaimed inquiry error = %v, want ErrNotFound", err)
	}

	claim(t, store, first.ID)
	if err := store.MarkInquirySent(ctx, first.ID, time.Now()); err != nil {
		t.Fatalf("MarkInquirySent: %v", err)
	}

	claim(t, store, second.ID)
	status, err := store.RecordInquiryFailure(ctx, second.ID, "relay down", 2)
	if err != nil {
		t.Fatalf("RecordInquiryFailure: %v", err)
	}
	if status != database.InquiryPending {
		t.Errorf("status after 1/2 attempts = %q, want pending", status)
	}

	claim(t, store, second.ID)
	status, err = store.RecordInquiryFailure(ctx, second.ID, "relay still down", 2)
	if err != nil {
		t.Fatalf("RecordInquiryFailure: %v", err)
	}
	if status != database.InquiryFailed {
		t.Errorf("status after 2/2 attempts = %q, want failed", status)
	}

	if _, err := store.RecordInquiryFailure(ctx, second.ID, "again", 2); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("failure on non-pending inquiry error = %v, want ErrNotFound", err)
	}

	pending, err = store.GetPendingInquiries(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingInquiries: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}

	sent, err := store.GetInquiryByReference(ctx, "ref-a")
	if err != nil {
		t.Fatalf("GetInquiryByReference: %v", err)
	}
	if sent.Status != database.InquirySent || !sent.SentAt.Valid || sent.Attempts != 1 {
		t.Errorf("sent inquiry = %+v", sent)
	}

	failed, err := store.GetInquiryByReference(ctx, "ref-b")
	if err != nil {
		t.Fatalf("GetInquiryByReference: %v", err)
	}
	if failed.Attempts != 2 || failed.LastError != "relay still down" {
		t.Errorf("failed inquiry = %+v", failed)
	}
}

func TestClaimInquiry(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	inq := newInquiry("ref-claim")
	if err := store.SaveInquiry(ctx, inq); err != nil {
		t.Fatalf("SaveInquiry: %v", err)
	}

	claim(t, store, inq.ID)
	if ok, err := store.ClaimInquiry(ctx, inq.ID, time.Now()); err != nil || ok {
		t.Errorf("second ClaimInquiry = %v, %v; want false, nil", ok, err)
	}

	pending, err := store.GetPendingInquiries(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingInquiries: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("claimed inquiry still listed as pending")
	}

	if err := store.ReleaseInquiry(ctx, inq.ID); err != nil {
		t.Fatalf("ReleaseInquiry: %v", err)
	}
	got, err := store.GetInquiryByReference(ctx, "ref-claim")
	if err != nil {
		t.Fatalf("GetInquiryByReference: %v", err)
	}
	if got.Status != database.InquiryPending || got.Attempts != 0 {
		t.Errorf("released inquiry = %+v, want pending with 0 attempts", got)
	}
	if err := store.ReleaseInquiry(ctx, inq.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("ReleaseInquiry on pending error = %v, want ErrNotFound", err)
	}
}

func TestRequeueStaleInquiries(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	inq := newInquiry("ref-stale")
	if err := store.SaveInquiry(ctx, inq); err != nil {
		t.Fatalf("SaveInquiry: %v", err)
	}
	claim(t, store, inq.ID)

	requeued, err := store.RequeueStaleInquiries(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("RequeueStaleInquiries: %v", err)
	}
	if requeued != 0 {
		t.Errorf("fresh claim requeued: %d", requeued)
	}

	requeued, err = store.RequeueStaleInquiries(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("RequeueStaleInquiries: %v", err)
	}
	if requeued != 1 {
		t.Errorf("requeued = %d, want 1", requeued)
	}

	pending, err := store.GetPendingInquiries(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingInquiries: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}
}

func TestDeleteSentInquiriesBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	old := newInquiry("old")
	recent := newInquiry("recent")
	unsent := newInquiry("unsent")
	for _, inq := range []*database.Inquiry{old, recent, unsent} {
		if err := store.SaveInquiry(ctx, inq); err != nil {
			t.Fatalf("SaveInquiry: %v", err)
		}
	}

	for _, inq := range []*database.Inquiry{old, recent} {
		claim(t, store, inq.ID)
	}

	now := time.Now()
	if err := store.MarkInquirySent(ctx, old.ID, now.Add(-48*time.Hour)); err != nil {
		t.Fatalf("MarkInquirySent: %v", err)
	}
	if err := store.MarkInquirySent(ctx, recent.ID, now); err != nil {
		t.Fatalf("MarkInquirySent: %v", err)
	}

	deleted, err := store.DeleteSentInquiriesBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteSentInquiriesBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if _, err := store.GetInquiryByReference(ctx, "old"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("old inquiry still present, err = %v", err)
	}
	for _, ref := range []string{"recent", "unsent"} {
		if _, err := store.GetInquiryByReference(ctx, ref); err != nil {
			t.Errorf("inquiry %s missing: %v", ref, err)
		}
	}
}

func TestTopicHits(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now()

	for _, cat := range []string{"upgrade", "contact", "upgrade", "upgrade", "contact", "fallback"} {
		if err := store.RecordTopicHit(ctx, cat, now); err != nil {
			t.Fatalf("RecordTopicHit(%s): %v", cat, err)
		}
	}
	if err := store.RecordTopicHit(ctx, "", now); err == nil {
		t.Error("empty category should fail")
	}

	hits, err := store.GetTopicHits(ctx)
	if err != nil {
		t.Fatalf("GetTopicHits: %v", err)
	}

	want := []struct {
		category string
		hits     int64
	}{{"upgrade", 3}, {"contact", 2}, {"fallback", 1}}
	if len(hits) != len(want) {
		t.Fatalf("len(hits) = %d, want %d", len(hits), len(want))
	}
	for i, w := range want {
		if hits[i].Category != w.category || hits[i].Hits != w.hits {
			t.Errorf("hits[%d] = %+v, want %s=%d", i, hits[i], w.category, w.hits)
		}
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	store := setupStore(t)
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance: %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestApplyMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	db, err := database.NewDB(path)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer database.CloseDB(db)

	version, err := database.ApplyMigrations(db.DB, path)
	if err != nil {
		t.Fatalf("ApplyMigrations on current schema: %v", err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}

	if _, err := database.ApplyMigrations(nil, path); err == nil {
		t.Error("ApplyMigrations(nil) should fail")
	}
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"storage.db":                     "storage.db",
		"file:storage.db":                "storage.db",
		"file:storage.db?_pragma=foo(1)": "storage.db",
		"my%20data.db":                   "my data.db",
	}
	for in, want := range tests {
		if got := database.ExtractDBNameFromPath(in); got != want {
			t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
