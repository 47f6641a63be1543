package database

import (
	"database/sql"
	"time"
)

// InquiryStatus is the delivery state of a contact-form inquiry.
type InquiryStatus string

const (
	// InquiryPending has not been relayed yet and will be retried.
	InquiryPending InquiryStatus = "pending"
	// InquirySending is claimed by one relay attempt in progress.
	InquirySending InquiryStatus = "sending"
	// InquirySent was accepted by the email relay.
	InquirySent InquiryStatus = "sent"
	// InquiryFailed exhausted its delivery attempts.
	InquiryFailed InquiryStatus = "failed"
)

// Inquiry is a contact-form submission kept in the outbox until the
// email relay accepts it.
type Inquiry struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Reference string `db:"reference"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Phone     string `db:"phone"`
	Message   string `db:"message"`

	Status    InquiryStatus `db:"status"`
	Attempts  int           `db:"attempts"`
	LastError string        `db:"last_error"`
	SentAt    sql.NullTime  `db:"sent_at"`
}

// TopicHit counts how often the assistant answered with one category.
// Only the counter is stored, never the question text.
type TopicHit struct {
	Category   string    `db:"category"`
	Hits       int64     `db:"hits"`
	LastSeenAt time.Time `db:"last_seen_at"`
}
