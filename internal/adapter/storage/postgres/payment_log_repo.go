package postgres

import (
	"context"
	"fmt"

	"installment-platform/internal/core/domain"
)

// PaymentLogRepo implements ports.PaymentLogRepository. Rows are
// append-only.
type PaymentLogRepo struct {
	pool Pool
}

// NewPaymentLogRepo creates a new PaymentLogRepo.
func NewPaymentLogRepo(pool Pool) *PaymentLogRepo {
	return &PaymentLogRepo{pool: pool}
}

// Create appends one gateway interaction record.
func (r *PaymentLogRepo) Create(ctx context.Context, entry *domain.PaymentLog) error {
	query := `INSERT INTO payment_logs (id, user_id, store_id, gateway, payment_id, order_id,
		log_type, gross_amount, remaining_credit, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.StoreID, entry.Gateway,
		entry.PaymentID, entry.OrderID, entry.Type,
		entry.GrossAmount, entry.RemainingCredit, entry.Detail, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment log: %w", err)
	}
	return nil
}
