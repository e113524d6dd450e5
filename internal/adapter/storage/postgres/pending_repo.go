package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"installment-platform/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// PendingRepo implements ports.PendingTransactionRepository.
type PendingRepo struct {
	pool Pool
}

// NewPendingRepo creates a new PendingRepo.
func NewPendingRepo(pool Pool) *PendingRepo {
	return &PendingRepo{pool: pool}
}

const pendingColumns = `id, transaction_number, total, user_id, store_id, termin_duration,
	payment_method, card_token_enc, custom_fields, status, pending, bucket,
	gateway_response, reminder, created_at, updated_at`

// GetByNumber fetches a pending transaction by number.
func (r *PendingRepo) GetByNumber(ctx context.Context, number string) (*domain.PendingTransaction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_transactions WHERE transaction_number = $1`

	p := &domain.PendingTransaction{}
	err := r.pool.QueryRow(ctx, query, number).Scan(
		&p.ID, &p.Number, &p.Total, &p.UserID, &p.StoreID, &p.TerminDuration,
		&p.Method, &p.CardTokenEnc, &p.CustomFields, &p.Status, &p.Pending,
		&p.Bucket, &p.GatewayResponse, &p.Reminder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan pending transaction: %w", err)
	}
	return p, nil
}

// Upsert inserts or refreshes the staged record keyed by number.
func (r *PendingRepo) Upsert(ctx context.Context, p *domain.PendingTransaction) error {
	query := `INSERT INTO pending_transactions (` + pendingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (transaction_number) DO UPDATE SET
			total = EXCLUDED.total,
			user_id = EXCLUDED.user_id,
			termin_duration = EXCLUDED.termin_duration,
			payment_method = EXCLUDED.payment_method,
			card_token_enc = EXCLUDED.card_token_enc,
			custom_fields = EXCLUDED.custom_fields,
			pending = EXCLUDED.pending,
			reminder = EXCLUDED.reminder,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Number, p.Total, p.UserID, p.StoreID, p.TerminDuration,
		p.Method, p.CardTokenEnc, p.CustomFields, p.Status, p.Pending,
		p.Bucket, p.GatewayResponse, p.Reminder, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert pending transaction: %w", err)
	}
	return nil
}

// StageBucket persists the built schedule onto the pending row before
// any charge is attempted.
func (r *PendingRepo) StageBucket(ctx context.Context, number string, bucket *domain.Transaction) error {
	query := `UPDATE pending_transactions SET bucket = $1, updated_at = now()
		WHERE transaction_number = $2`

	tag, err := r.pool.Exec(ctx, query, bucket, number)
	if err != nil {
		return fmt.Errorf("stage bucket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending transaction not found: %s", number)
	}
	return nil
}

// SetGatewayResponse stores the raw provider response for audit.
func (r *PendingRepo) SetGatewayResponse(ctx context.Context, number string, raw json.RawMessage) error {
	query := `UPDATE pending_transactions SET gateway_response = $1, updated_at = now()
		WHERE transaction_number = $2`

	_, err := r.pool.Exec(ctx, query, raw, number)
	if err != nil {
		return fmt.Errorf("set gateway response: %w", err)
	}
	return nil
}

// MarkCompleted transitions the pending row to completed within the
// orchestrator's commit transaction.
func (r *PendingRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, number string) error {
	query := `UPDATE pending_transactions SET status = $1, pending = false, updated_at = now()
		WHERE transaction_number = $2 AND status = $3`

	tag, err := tx.Exec(ctx, query, domain.PendingStatusCompleted, number, domain.PendingStatusPending)
	if err != nil {
		return fmt.Errorf("mark pending completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending transaction not open: %s", number)
	}
	return nil
}

// MarkExpired sweeps still-open rows older than the cutoff to expired.
func (r *PendingRepo) MarkExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `UPDATE pending_transactions SET status = $1, pending = false, updated_at = now()
		WHERE status = $2 AND created_at < $3`

	tag, err := r.pool.Exec(ctx, query, domain.PendingStatusExpired, domain.PendingStatusPending, olderThan)
	if err != nil {
		return 0, fmt.Errorf("mark pending expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
