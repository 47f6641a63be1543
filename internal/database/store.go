package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveInquiry inserts a new inquiry and sets its ID.
	SaveInquiry(ctx context.Context, inquiry *Inquiry) error

	// GetInquiryByReference returns ErrNotFound for unknown references.
	GetInquiryByReference(ctx context.Context, reference string) (*Inquiry, error)

	// GetPendingInquiries returns up to limit pending inquiries, oldest first.
	GetPendingInquiries(ctx context.Context, limit int) ([]*Inquiry, error)

	// ClaimInquiry moves a pending inquiry to sending. It reports false
	// when another worker claimed it first.
	ClaimInquiry(ctx context.Context, id int64, at time.Time) (bool, error)

	// ReleaseInquiry returns a sending inquiry to pending without counting an attempt.
	ReleaseInquiry(ctx context.Context, id int64) error

	// RequeueStaleInquiries returns inquiries stuck in sending since before
	// cutoff to pending, e.g. after a crash mid-relay.
	RequeueStaleInquiries(ctx context.Context, cutoff time.Time) (int64, error)

	// MarkInquirySent records a successful delivery of a sending inquiry.
	MarkInquirySent(ctx context.Context, id int64, at time.Time) error

	// RecordInquiryFailure records a failed delivery of a sending inquiry.
	// It goes back to pending, or to failed once attempts reach maxAttempts.
	// Returns the new status.
	RecordInquiryFailure(ctx context.Context, id int64, reason string, maxAttempts int) (InquiryStatus, error)

	// DeleteSentInquiriesBefore removes sent inquiries delivered before cutoff.
	DeleteSentInquiriesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RecordTopicHit increments the counter for category.
	RecordTopicHit(ctx context.Context, category string, at time.Time) error

	// GetTopicHits returns all counters, most frequent first.
	GetTopicHits(ctx context.Context) ([]TopicHit, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveInquiry inserts a new inquiry record.
func (s *sqlxStore) SaveInquiry(ctx context.Context, inquiry *Inquiry) error {
	if inquiry == nil {
		return fmt.Errorf("cannot save nil inquiry")
	}
	if inquiry.Reference == "" {
		return fmt.Errorf("inquiry must have a reference")
	}
	if inquiry.Status == "" {
		inquiry.Status = InquiryPending
	}

	now := time.Now().UTC()
	inquiry.CreatedAt = now
	inquiry.UpdatedAt = now

	query := `
        INSERT INTO inquiries (reference, name, email, phone, message, status, attempts, last_error, sent_at, created_at, updated_at)
        VALUES (:reference, :name, :email, :phone, :message, :status, :attempts, :last_error, :sent_at, :created_at, :updated_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, inquiry)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving inquiry", "reference", inquiry.Reference, "error", err)
		return fmt.Errorf("failed to save inquiry %s: %w", inquiry.Reference, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inquiry id: %w", err)
	}
	inquiry.ID = id

	s.logger.DebugContext(ctx, "Inquiry saved", "inquiry_id", inquiry.ID, "reference", inquiry.Reference)
	return nil
}

const inquiryColumns = `id, reference, name, email, phone, message, status, attempts, last_error, sent_at, created_at, updated_at`

// GetInquiryByReference loads a single inquiry by its public reference.
func (s *sqlxStore) GetInquiryByReference(ctx context.Context, reference string) (*Inquiry, error) {
	var inquiry Inquiry
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE reference = ?;`

	err := s.db.GetContext(ctx, &inquiry, query, reference)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting inquiry", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get inquiry %s: %w", reference, err)
	}

	return &inquiry, nil
}

// GetPendingInquiries returns pending inquiries in submission order.
func (s *sqlxStore) GetPendingInquiries(ctx context.Context, limit int) ([]*Inquiry, error) {
	if limit <= 0 {
		limit = 50
	}

	var inquiries []*Inquiry
	query := `SELECT ` + inquiryColumns + `
        FROM inquiries
        WHERE status = ?
        ORDER BY created_at ASC, id ASC
        LIMIT ?;`

	err := s.db.SelectContext(ctx, &inquiries, query, InquiryPending, limit)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching pending inquiries", "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting pending inquiries", "error", err)
		return nil, fmt.Errorf("failed to get pending inquiries: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched pending inquiries", "count", len(inquiries))
	return inquiries, nil
}

// ClaimInquiry is a compare-and-set on the status column, so only one
// caller relays a given inquiry.
func (s *sqlxStore) ClaimInquiry(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `UPDATE inquiries SET status = ?, updated_at = ? WHERE id = ? AND status = ?;`

	result, err := s.db.ExecContext(ctx, query, InquirySending, at.UTC(), id, InquiryPending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error claiming inquiry", "inquiry_id", id, "error", err)
		return false, fmt.Errorf("failed to claim inquiry %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count claimed rows for inquiry %d: %w", id, err)
	}
	return affected == 1, nil
}

// ReleaseInquiry gives up a claim without touching the attempt counter.
func (s *sqlxStore) ReleaseInquiry(ctx context.Context, id int64) error {
	query := `UPDATE inquiries SET status = ?, updated_at = ? WHERE id = ? AND status = ?;`

	result, err := s.db.ExecContext(ctx, query, InquiryPending, time.Now().UTC(), id, InquirySending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error releasing inquiry", "inquiry_id", id, "error", err)
		return fmt.Errorf("failed to release inquiry %d: %w", id, err)
	}
	return requireOneRow(result, id)
}

// RequeueStaleInquiries releases claims older than cutoff.
func (s *sqlxStore) RequeueStaleInquiries(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE inquiries SET status = ?, updated_at = ? WHERE status = ? AND updated_at < ?;`

	result, err := s.db.ExecContext(ctx, query, InquiryPending, time.Now().UTC(), InquirySending, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error requeueing stale inquiries", "error", err)
		return 0, fmt.Errorf("failed to requeue stale inquiries: %w", err)
	}

	requeued, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count requeued inquiries: %w", err)
	}
	if requeued > 0 {
		s.logger.WarnContext(ctx, "Requeued inquiries stuck in sending", "count", requeued)
	}
	return requeued, nil
}

// MarkInquirySent sets a claimed inquiry to sent and counts the attempt.
func (s *sqlxStore) MarkInquirySent(ctx context.Context, id int64, at time.Time) error {
	query := `
        UPDATE inquiries
        SET status = ?, attempts = attempts + 1, last_error = '', sent_at = ?, updated_at = ?
        WHERE id = ? AND status = ?;`

	at = at.UTC()
	result, err := s.db.ExecContext(ctx, query, InquirySent, at, at, id, InquirySending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking inquiry sent", "inquiry_id", id, "error", err)
		return fmt.Errorf("failed to mark inquiry %d sent: %w", id, err)
	}

	return requireOneRow(result, id)
}

// RecordInquiryFailure counts a failed attempt inside a transaction so
// the returned status matches what was written.
func (s *sqlxStore) RecordInquiryFailure(ctx context.Context, id int64, reason string, maxAttempts int) (InquiryStatus, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	query := `
        UPDATE inquiries
        SET attempts = attempts + 1,
            last_error = ?,
            status = CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END,
            updated_at = ?
        WHERE id = ? AND status = ?;`

	result, err := tx.ExecContext(ctx, query, reason, maxAttempts, InquiryFailed, InquiryPending,
		time.Now().UTC(), id, InquirySending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording inquiry failure", "inquiry_id", id, "error", err)
		return "", fmt.Errorf("failed to record failure for inquiry %d: %w", id, err)
	}
	if err := requireOneRow(result, id); err != nil {
		return "", err
	}

	var status InquiryStatus
	if err := tx.GetContext(ctx, &status, `SELECT status FROM inquiries WHERE id = ?;`, id); err != nil {
		return "", fmt.Errorf("failed to read status for inquiry %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return status, nil
}

// DeleteSentInquiriesBefore purges delivered inquiries older than cutoff.
func (s *sqlxStore) DeleteSentInquiriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM inquiries WHERE status = ? AND sent_at < ?;`

	result, err := s.db.ExecContext(ctx, query, InquirySent, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting sent inquiries", "error", err)
		return 0, fmt.Errorf("failed to delete sent inquiries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted inquiries: %w", err)
	}
	return deleted, nil
}

// RecordTopicHit upserts the counter row for category.
func (s *sqlxStore) RecordTopicHit(ctx context.Context, category string, at time.Time) error {
	if category == "" {
		return fmt.Errorf("category cannot be empty")
	}

	query := `
        INSERT INTO topic_hits (category, hits, last_seen_at)
        VALUES (?, 1, ?)
        ON CONFLICT(category) DO UPDATE SET hits = hits + 1, last_seen_at = excluded.last_seen_at;`

	if _, err := s.db.ExecContext(ctx, query, category, at.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error recording topic hit", "category", category, "error", err)
		return fmt.Errorf("failed to record topic hit for %s: %w", category, err)
	}
	return nil
}

// GetTopicHits returns every counter ordered by hits.
func (s *sqlxStore) GetTopicHits(ctx context.Context) ([]TopicHit, error) {
	var hits []TopicHit
	query := `SELECT category, hits, last_seen_at FROM topic_hits ORDER BY hits DESC, category ASC;`

	if err := s.db.SelectContext(ctx, &hits, query); err != nil {
		s.logger.ErrorContext(ctx, "Error getting topic hits", "error", err)
		return nil, fmt.Errorf("failed to get topic hits: %w", err)
	}
	return hits, nil
}

// RunSQLMaintenance runs PRAGMA optimize followed by VACUUM.
// VACUUM cannot run inside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		s.logger.WarnContext(ctx, "PRAGMA optimize failed, continuing with VACUUM", "error", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Failed to execute VACUUM", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully.")
	return nil
}

func requireOneRow(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count affected rows for inquiry %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("inquiry %d: %w", id, ErrNotFound)
	}
	return nil
}
