package postgres

import (
	"context"
	"errors"
	"fmt"

	"installment-platform/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// NotificationRepo implements ports.NotificationRepository.
type NotificationRepo struct {
	pool Pool
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(pool Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Upsert inserts or refreshes the fan-out record keyed by number.
func (r *NotificationRepo) Upsert(ctx context.Context, n *domain.TransactionNotification) error {
	query := `INSERT INTO transaction_notifications (id, transaction_number, callbacks, emails, push, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (transaction_number) DO UPDATE SET
			callbacks = EXCLUDED.callbacks,
			emails = EXCLUDED.emails,
			push = EXCLUDED.push,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		n.ID, n.Number, n.Callbacks, n.Emails, n.Push, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	return nil
}

// GetByNumber fetches the fan-out record for a transaction number.
func (r *NotificationRepo) GetByNumber(ctx context.Context, number string) (*domain.TransactionNotification, error) {
	query := `SELECT id, transaction_number, callbacks, emails, push, created_at, updated_at
		FROM transaction_notifications WHERE transaction_number = $1`

	n := &domain.TransactionNotification{}
	err := r.pool.QueryRow(ctx, query, number).Scan(
		&n.ID, &n.Number, &n.Callbacks, &n.Emails, &n.Push, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return n, nil
}

// SaveCallbackRules stores the per-transaction delivery overrides set at
// QR generation time.
func (r *NotificationRepo) SaveCallbackRules(ctx context.Context, rules *domain.CallbackRules) error {
	query := `INSERT INTO callback_rules (transaction_number, override_urls, append_urls, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (transaction_number) DO UPDATE SET
			override_urls = EXCLUDED.override_urls,
			append_urls = EXCLUDED.append_urls`

	_, err := r.pool.Exec(ctx, query, rules.Number, rules.Override, rules.Append)
	if err != nil {
		return fmt.Errorf("save callback rules: %w", err)
	}
	return nil
}

// GetCallbackRules fetches delivery overrides for a transaction number.
func (r *NotificationRepo) GetCallbackRules(ctx context.Context, number string) (*domain.CallbackRules, error) {
	query := `SELECT transaction_number, override_urls, append_urls FROM callback_rules
		WHERE transaction_number = $1`

	rules := &domain.CallbackRules{}
	err := r.pool.QueryRow(ctx, query, number).Scan(&rules.Number, &rules.Override, &rules.Append)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan callback rules: %w", err)
	}
	return rules, nil
}
