package contact_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/protech/repairbot/internal/contact"
	"github.com/protech/repairbot/internal/database"
	"github.com/protech/repairbot/internal/emailjs"
	"github.com/protech/repairbot/internal/resilience"
)

// fakeRelay returns queued errors in order, then nil.
type fakeRelay struct {
	mu     sync.Mutex
	errs   []error
	params []map[string]string
}

func (f *fakeRelay) Send(_ context.Context, params map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, params)
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeRelay) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.params)
}

func setup(t *testing.T, relay contact.Relay, opts contact.Options) (*contact.Service, database.Store) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "contact.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, nil)
	return contact.NewService(store, relay, opts, nil), store
}

func validForm() contact.Form {
	return contact.Form{
		Name:    "  Tariro Moyo ",
		Email:   "tariro@example.com",
		Phone:   "+263 77 000 0000",
		Message: "My laptop shows a BitLocker screen",
	}
}

func TestSubmit_Success(t *testing.T) {
	relay := &fakeRelay{}
	svc, store := setup(t, relay, contact.Options{})
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validForm())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if inq.Status != database.InquirySent {
		t.Errorf("Status = %q, want sent", inq.Status)
	}
	if inq.Name != "Tariro Moyo" {
		t.Errorf("Name = %q, want trimmed", inq.Name)
	}

	stored, err := store.GetInquiryByReference(ctx, inq.Reference)
	if err != nil {
		t.Fatalf("GetInquiryByReference: %v", err)
	}
	if stored.Status != database.InquirySent {
		t.Errorf("stored Status = %q, want sent", stored.Status)
	}

	if relay.calls() != 1 {
		t.Fatalf("relay calls = %d, want 1", relay.calls())
	}
	params := relay.params[0]
	if params["reference"] != inq.Reference || params["reply_to"] != "tariro@example.com" {
		t.Errorf("params = %v", params)
	}
}

func TestSubmit_InvalidForm(t *testing.T) {
	relay := &fakeRelay{}
	svc, store := setup(t, relay, contact.Options{})

	tests := []struct {
		name   string
		form   contact.Form
		fields []string
	}{
		{name: "Empty", form: contact.Form{}, fields: []string{"name", "email", "message"}},
		{name: "Bad email", form: contact.Form{Name: "A", Email: "nope", Message: "m"}, fields: []string{"email"}},
		{name: "Blank message", form: contact.Form{Name: "A", Email: "a@b.co", Message: "   "}, fields: []string{"message"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.form)
			if !errors.Is(err, contact.ErrInvalidForm) {
				t.Fatalf("Submit() error = %v, want ErrInvalidForm", err)
			}
			var verr *contact.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %T is not a ValidationError", err)
			}
			for _, f := range tt.fields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field error for %q in %v", f, verr.Fields)
				}
			}
		})
	}

	if relay.calls() != 0 {
		t.Errorf("relay called %d times for invalid forms", relay.calls())
	}
	pending, err := store.GetPendingInquiries(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetPendingInquiries: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("invalid forms were stored: %d", len(pending))
	}
}

func TestSubmit_RelayFailureKeepsInquiry(t *testing.T) {
	relay := &fakeRelay{errs: []error{errors.New("network unreachable")}}
	svc, store := setup(t, relay, contact.Options{MaxAttempts: 3})
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validForm())
	if !errors.Is(err, contact.ErrRelayFailed) {
		t.Fatalf("Submit() error = %v, want ErrRelayFailed", err)
	}
	if inq == nil || inq.Status != database.InquiryPending || inq.Attempts != 1 {
		t.Fatalf("inquiry = %+v, want pending with 1 attempt", inq)
	}

	sent, failed, err := svc.RelayPending(ctx)
	if err != nil {
		t.Fatalf("RelayPending() error = %v", err)
	}
	if sent != 1 || failed != 0 {
		t.Errorf("RelayPending() = (%d, %d), want (1, 0)", sent, failed)
	}

	stored, err := store.GetInquiryByReference(ctx, inq.Reference)
	if err != nil {
		t.Fatalf("GetInquiryByReference: %v", err)
	}
	if stored.Status != database.InquirySent || stored.Attempts != 2 {
		t.Errorf("stored = %+v, want sent after 2 attempts", stored)
	}
}

func TestRelayPending_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("relay down")
	relay := &fakeRelay{errs: []error{boom, boom}}
	svc, store := setup(t, relay, contact.Options{MaxAttempts: 2})
	ctx := context.Background()

	inq, _ := svc.Submit(ctx, validForm())

	sent, failed, err := svc.RelayPending(ctx)
	if err != nil {
		t.Fatalf("RelayPending() error = %v", err)
	}
	if sent != 0 || failed != 1 {
		t.Errorf("RelayPending() = (%d, %d), want (0, 1)", sent, failed)
	}

	stored, err := store.GetInquiryByReference(ctx, inq.Reference)
	if err != nil {
		t.Fatalf("GetInquiryByReference: %v", err)
	}
	if stored.Status != database.InquiryFailed || stored.LastError != "relay down" {
		t.Errorf("stored = %+v, want failed", stored)
	}
}

func TestSubmit_PermanentErrorFailsImmediately(t *testing.T) {
	relay := &fakeRelay{errs: []error{&emailjs.RelayError{StatusCode: 400, Text: "bad template"}}}
	svc, _ := setup(t, relay, contact.Options{MaxAttempts: 5})

	inq, err := svc.Submit(context.Background(), validForm())
	if !errors.Is(err, contact.ErrRelayFailed) {
		t.Fatalf("Submit() error = %v, want ErrRelayFailed", err)
	}
	if inq.Status != database.InquiryFailed {
		t.Errorf("Status = %q, want failed", inq.Status)
	}
}

func TestRelayPending_UnsentAttemptsNotCounted(t *testing.T) {
	for _, relayErr := range []error{emailjs.ErrNotConfigured, resilience.ErrCircuitOpen, resilience.ErrTooManyRequests} {
		t.Run(relayErr.Error(), func(t *testing.T) {
			relay := &fakeRelay{errs: []error{relayErr, relayErr}}
			svc, store := setup(t, relay, contact.Options{MaxAttempts: 1})
			ctx := context.Background()

			inq, err := svc.Submit(ctx, validForm())
			if !errors.Is(err, relayErr) {
				t.Fatalf("Submit() error = %v, want %v", err, relayErr)
			}

			sent, failed, err := svc.RelayPending(ctx)
			if err != nil || sent != 0 || failed != 0 {
				t.Errorf("RelayPending() = (%d, %d, %v), want (0, 0, nil)", sent, failed, err)
			}

			stored, err := store.GetInquiryByReference(ctx, inq.Reference)
			if err != nil {
				t.Fatalf("GetInquiryByReference: %v", err)
			}
			if stored.Status != database.InquiryPending || stored.Attempts != 0 {
				t.Errorf("stored = %+v, want untouched pending", stored)
			}
		})
	}
}

func TestPurge(t *testing.T) {
	relay := &fakeRelay{}
	svc, _ := setup(t, relay, contact.Options{})
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validForm())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deleted, err := svc.Purge(ctx, time.Now())
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("Purge() deleted %d fresh inquiries", deleted)
	}
	if _, err := svc.Lookup(ctx, inq.Reference); err != nil {
		t.Errorf("Lookup() error = %v", err)
	}

	deleted, err = svc.Purge(ctx, time.Now().Add(31*24*time.Hour))
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Purge() after retention deleted %d, want 1", deleted)
	}
	if _, err := svc.Lookup(ctx, inq.Reference); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Lookup() after purge error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Lookup(ctx, "missing"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrNotFound", err)
	}
}

// blockingRelay holds the first Send until release is closed.
type blockingRelay struct {
	fakeRelay
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingRelay) Send(ctx context.Context, params map[string]string) error {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.entered)
		<-b.release
	}
	return b.fakeRelay.Send(ctx, params)
}

func TestRelayPending_SkipsInquiryBeingSubmitted(t *testing.T) {
	relay := &blockingRelay{entered: make(chan struct{}), release: make(chan struct{})}
	svc, store := setup(t, relay, contact.Options{})
	ctx := context.Background()

	type result struct {
		inq *database.Inquiry
		err error
	}
	done := make(chan result, 1)
	go func() {
		inq, err := svc.Submit(ctx, validForm())
		done <- result{inq, err}
	}()

	<-relay.entered
	sent, failed, err := svc.RelayPending(ctx)
	if err != nil || sent != 0 || failed != 0 {
		t.Errorf("RelayPending() during Submit = (%d, %d, %v), want (0, 0, nil)", sent, failed, err)
	}
	close(relay.release)

	res := <-done
	if res.err != nil {
		t.Fatalf("Submit() error = %v", res.err)
	}
	if n := relay.calls(); n != 1 {
		t.Errorf("relay calls = %d, want 1", n)
	}

	stored, err := store.GetInquiryByReference(ctx, res.inq.Reference)
	if err != nil {
		t.Fatalf("GetInquiryByReference: %v", err)
	}
	if stored.Status != database.InquirySent || stored.Attempts != 1 {
		t.Errorf("stored = %+v, want sent after 1 attempt", stored)
	}
}
