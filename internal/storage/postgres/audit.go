package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
)

const (
	insertAttemptSQL = `INSERT INTO checkout_attempts
		(id, session_id, order_id, user_id, payment_method, delivery_method,
		 total, succeeded, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	recentAttemptsSQL = `SELECT session_id, order_id, user_id, payment_method,
		delivery_method, total, succeeded, error_message, created_at
		FROM checkout_attempts WHERE session_id = $1
		ORDER BY created_at DESC LIMIT $2`
)

var _ checkout.AuditLog = (*AuditStore)(nil)

// AuditStore implements checkout.AuditLog backed by PostgreSQL.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore returns an AuditStore that uses the given pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Record appends one checkout attempt to the audit trail.
func (s *AuditStore) Record(ctx context.Context, a checkout.Attempt) error {
	_, err := s.pool.Exec(ctx, insertAttemptSQL,
		uuid.New().String(),
		a.SessionID,
		nullable(a.OrderID),
		nullable(a.UserID),
		string(a.PaymentMethod),
		string(a.DeliveryMethod),
		a.Total,
		a.Succeeded,
		nullable(a.ErrorMessage),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording checkout attempt for session %q: %w", a.SessionID, err)
	}
	return nil
}

// Recent returns the latest attempts for a session, newest first.
func (s *AuditStore) Recent(ctx context.Context, sessionID string, limit int) ([]checkout.Attempt, error) {
	rows, err := s.pool.Query(ctx, recentAttemptsSQL, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing attempts for session %q: %w", sessionID, err)
	}

	attempts, err := pgx.CollectRows(rows, scanAttempt)
	if err != nil {
		return nil, fmt.Errorf("listing attempts for session %q: %w", sessionID, err)
	}
	return attempts, nil
}

func scanAttempt(row pgx.CollectableRow) (checkout.Attempt, error) {
	var (
		a          checkout.Attempt
		orderID    *string
		userID     *string
		payMethod  string
		delMethod  string
		total      decimal.Decimal
		errMessage *string
		createdAt  time.Time
	)
	err := row.Scan(
		&a.SessionID, &orderID, &userID, &payMethod,
		&delMethod, &total, &a.Succeeded, &errMessage, &createdAt,
	)
	if err != nil {
		return a, err
	}
	if orderID != nil {
		a.OrderID = *orderID
	}
	if userID != nil {
		a.UserID = *userID
	}
	if errMessage != nil {
		a.ErrorMessage = *errMessage
	}
	a.PaymentMethod = checkout.PaymentMethod(payMethod)
	a.DeliveryMethod = checkout.DeliveryMethod(delMethod)
	a.Total = total
	a.CreatedAt = createdAt
	return a, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
