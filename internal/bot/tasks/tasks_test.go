package tasks_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/protech/repairbot/internal/bot/tasks"
	"github.com/protech/repairbot/internal/contact"
	"github.com/protech/repairbot/internal/database"
)

type stubRelay struct{ err error }

func (r stubRelay) Send(context.Context, map[string]string) error { return r.err }

func newDeps(t *testing.T, relay contact.Relay) tasks.TaskDeps {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, log)
	return tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Contact: contact.NewService(store, relay, contact.Options{}, log),
	}
}

func TestRegisterAllTasks(t *testing.T) {
	registered := tasks.RegisterAllTasks(newDeps(t, stubRelay{}))

	for _, name := range []string{tasks.InquiryRelay, tasks.InquiryCleanup, tasks.SQLMaintenance} {
		task, ok := registered[name]
		if !ok {
			t.Fatalf("task %q not registered", name)
		}
		if err := task(context.Background()); err != nil {
			t.Errorf("task %q error = %v", name, err)
		}
	}
}

func TestInquiryRelayTaskDeliversQueued(t *testing.T) {
	relay := &switchRelay{err: errors.New("offline")}
	deps := newDeps(t, relay)
	ctx := context.Background()

	inq, err := deps.Contact.Submit(ctx, contact.Form{Name: "Rudo", Email: "rudo@example.com", Message: "RAM upgrade"})
	if !errors.Is(err, contact.ErrRelayFailed) {
		t.Fatalf("Submit() error = %v, want ErrRelayFailed", err)
	}

	relay.err = nil
	if err := tasks.RegisterAllTasks(deps)[tasks.InquiryRelay](ctx); err != nil {
		t.Fatalf("inquiry_relay error = %v", err)
	}

	stored, err := deps.Store.GetInquiryByReference(ctx, inq.Reference)
	if err != nil {
		t.Fatalf("GetInquiryByReference: %v", err)
	}
	if stored.Status != database.InquirySent {
		t.Errorf("Status = %q, want sent", stored.Status)
	}
}

type switchRelay struct{ err error }

func (r *switchRelay) Send(context.Context, map[string]string) error { return r.err }

func TestSQLMaintenanceTaskReportsQueue(t *testing.T) {
	deps := newDeps(t, stubRelay{err: errors.New("offline")})
	ctx := context.Background()

	if _, err := deps.Contact.Submit(ctx, contact.Form{Name: "Rudo", Email: "rudo@example.com", Message: "Windows 11 install"}); !errors.Is(err, contact.ErrRelayFailed) {
		t.Fatalf("Submit() error = %v, want ErrRelayFailed", err)
	}

	var buf bytes.Buffer
	deps.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	if err := tasks.RegisterAllTasks(deps)[tasks.SQLMaintenance](ctx); err != nil {
		t.Fatalf("sql_maintenance error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Inquiry store compacted") || !strings.Contains(out, "queued_inquiries=1") {
		t.Errorf("log output = %q, want compaction line with queued_inquiries=1", out)
	}
}
