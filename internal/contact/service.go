package contact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/protech/repairbot/internal/database"
	"github.com/protech/repairbot/internal/emailjs"
	"github.com/protech/repairbot/internal/resilience"
)

// ErrRelayFailed means the inquiry was stored but the relay did not accept it yet.
var ErrRelayFailed = errors.New("contact: relay failed, inquiry kept for retry")

// Relay delivers one templated email.
type Relay interface {
	Send(ctx context.Context, params map[string]string) error
}

// Options is the outbox policy. ClaimTimeout is how long an inquiry may
// stay in sending before the relay task treats the claim as abandoned.
type Options struct {
	MaxAttempts  int
	Retention    time.Duration
	BatchSize    int
	ClaimTimeout time.Duration
}

// Service stores contact-form inquiries and relays them by email.
type Service struct {
	store    database.Store
	relay    Relay
	opts     Options
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service. Zero options fall back to 5 attempts,
// 30 days retention, batches of 50 and a 10 minute claim timeout.
func NewService(store database.Store, relay Relay, opts Options, logger *slog.Logger) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Retention <= 0 {
		opts.Retention = 30 * 24 * time.Hour
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.ClaimTimeout <= 0 {
		opts.ClaimTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		store:    store,
		relay:    relay,
		opts:     opts,
		validate: newValidator(),
		logger:   logger.With("component", "contact"),
		now:      time.Now,
	}
}

// Submit validates and stores form, then tries to relay it once.
// The inquiry is stored already claimed, so the relay task cannot pick
// it up while this first attempt is in flight. Invalid forms are not stored. A relay failure returns the stored
// inquiry together with an error wrapping ErrRelayFailed.
func (s *Service) Submit(ctx context.Context, form Form) (*database.Inquiry, error) {
	form = form.Normalize()
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}

	inquiry := &database.Inquiry{
		Reference: uuid.NewString(),
		Name:      form.Name,
		Email:     form.Email,
		Phone:     form.Phone,
		Message:   form.Message,
		Status:    database.InquirySending,
	}
	if err := s.store.SaveInquiry(ctx, inquiry); err != nil {
		return nil, fmt.Errorf("failed to store inquiry: %w", err)
	}

	log := s.logger.With("reference", inquiry.Reference)
	log.InfoContext(ctx, "Inquiry stored, relaying")

	if err := s.deliver(ctx, inquiry); err != nil {
		log.WarnContext(ctx, "Inquiry relay failed", "error", err, "status", inquiry.Status)
		return inquiry, fmt.Errorf("%w: %w", ErrRelayFailed, err)
	}

	log.InfoContext(ctx, "Inquiry relayed")
	return inquiry, nil
}

// RelayPending retries one batch of pending inquiries. It stops early
// when ctx is done or the relay is unavailable.
func (s *Service) RelayPending(ctx context.Context) (sent, failed int, err error) {
	if _, err := s.store.RequeueStaleInquiries(ctx, s.now().Add(-s.opts.ClaimTimeout)); err != nil {
		return 0, 0, fmt.Errorf("failed to requeue stale inquiries: %w", err)
	}

	inquiries, err := s.store.GetPendingInquiries(ctx, s.opts.BatchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get pending inquiries: %w", err)
	}
	if len(inquiries) == 0 {
		s.logger.DebugContext(ctx, "No pending inquiries to relay")
		return 0, 0, nil
	}

	s.logger.InfoContext(ctx, "Relaying pending inquiries", "count", len(inquiries))

	for _, inquiry := range inquiries {
		if ctx.Err() != nil {
			return sent, failed, ctx.Err()
		}

		claimed, err := s.store.ClaimInquiry(ctx, inquiry.ID, s.now())
		if err != nil {
			return sent, failed, fmt.Errorf("failed to claim inquiry: %w", err)
		}
		if !claimed {
			s.logger.DebugContext(ctx, "Inquiry already claimed, skipping", "reference", inquiry.Reference)
			continue
		}
		inquiry.Status = database.InquirySending

		deliverErr := s.deliver(ctx, inquiry)
		switch {
		case deliverErr == nil:
			sent++
		case isStoreError(deliverErr):
			return sent, failed, deliverErr
		case errors.Is(deliverErr, emailjs.ErrNotConfigured):
			s.logger.WarnContext(ctx, "Email relay not configured, leaving inquiries pending")
			return sent, failed, nil
		case isUnsent(deliverErr):
			s.logger.WarnContext(ctx, "Email relay circuit open, stopping batch", "sent", sent, "error", deliverErr)
			return sent, failed, nil
		case inquiry.Status == database.InquiryFailed:
			failed++
		}
	}

	return sent, failed, nil
}

// Purge deletes inquiries sent more than the retention period before now.
func (s *Service) Purge(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.opts.Retention)
	deleted, err := s.store.DeleteSentInquiriesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge inquiries: %w", err)
	}
	s.logger.InfoContext(ctx, "Purged sent inquiries", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

// Lookup returns the inquiry with the given reference.
func (s *Service) Lookup(ctx context.Context, reference string) (*database.Inquiry, error) {
	return s.store.GetInquiryByReference(ctx, reference)
}

type storeError struct{ err error }

func (e storeError) Error() string { return e.err.Error() }
func (e storeError) Unwrap() error { return e.err }

func isStoreError(err error) bool {
	var se storeError
	return errors.As(err, &se)
}

// isUnsent reports relay errors that guarantee nothing reached EmailJS.
func isUnsent(err error) bool {
	return errors.Is(err, emailjs.ErrNotConfigured) ||
		errors.Is(err, resilience.ErrCircuitOpen) ||
		errors.Is(err, resilience.ErrTooManyRequests)
}

// deliver relays one claimed inquiry and records the outcome, updating
// inquiry in place. Relay errors are returned as-is; bookkeeping errors
// are wrapped in storeError.
func (s *Service) deliver(ctx context.Context, inquiry *database.Inquiry) error {
	relayErr := s.relay.Send(ctx, templateParams(inquiry))
	if relayErr == nil {
		if err := s.store.MarkInquirySent(ctx, inquiry.ID, s.now()); err != nil {
			return storeError{fmt.Errorf("inquiry relayed but not marked sent: %w", err)}
		}
		inquiry.Status = database.InquirySent
		inquiry.Attempts++
		return nil
	}

	// Nothing was sent, so the attempt is not counted.
	if isUnsent(relayErr) {
		if err := s.store.ReleaseInquiry(ctx, inquiry.ID); err != nil {
			return storeError{fmt.Errorf("failed to release inquiry: %w", err)}
		}
		inquiry.Status = database.InquiryPending
		return relayErr
	}

	maxAttempts := s.opts.MaxAttempts
	if emailjs.IsPermanent(relayErr) {
		maxAttempts = 1
	}

	status, err := s.store.RecordInquiryFailure(ctx, inquiry.ID, relayErr.Error(), maxAttempts)
	if err != nil {
		return storeError{fmt.Errorf("failed to record relay failure: %w", err)}
	}
	inquiry.Status = status
	inquiry.Attempts++
	inquiry.LastError = relayErr.Error()

	return relayErr
}

func templateParams(inquiry *database.Inquiry) map[string]string {
	return map[string]string{
		"reference": inquiry.Reference,
		"name":      inquiry.Name,
		"email":     inquiry.Email,
		"reply_to":  inquiry.Email,
		"phone":     inquiry.Phone,
		"message":   inquiry.Message,
	}
}
