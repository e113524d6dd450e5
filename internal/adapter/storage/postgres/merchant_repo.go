package postgres

import (
	"context"
	"errors"
	"fmt"

	"installment-platform/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// GetByID fetches a merchant by UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT id, name, prefix, fees, created_at, updated_at FROM merchants WHERE id = $1`

	m := &domain.Merchant{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.Prefix, &m.Fees, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return m, nil
}

// PrefixExists reports whether any merchant already owns the prefix.
func (r *MerchantRepo) PrefixExists(ctx context.Context, prefix string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM merchants WHERE prefix = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, prefix).Scan(&exists); err != nil {
		return false, fmt.Errorf("check prefix exists: %w", err)
	}
	return exists, nil
}

// SetPrefix assigns a prefix to a merchant that has none yet. The WHERE
// guard keeps an already-assigned prefix stable under concurrent
// assignment attempts.
func (r *MerchantRepo) SetPrefix(ctx context.Context, id uuid.UUID, prefix string) error {
	query := `UPDATE merchants SET prefix = $1, updated_at = now() WHERE id = $2 AND prefix = ''`

	tag, err := r.pool.Exec(ctx, query, prefix, id)
	if err != nil {
		return fmt.Errorf("set merchant prefix: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant %s already has a prefix", id)
	}
	return nil
}
