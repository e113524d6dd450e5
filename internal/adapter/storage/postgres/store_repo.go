package postgres

import (
	"context"
	"errors"
	"fmt"

	"installment-platform/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StoreRepo implements ports.StoreRepository.
type StoreRepo struct {
	pool Pool
}

// NewStoreRepo creates a new StoreRepo.
func NewStoreRepo(pool Pool) *StoreRepo {
	return &StoreRepo{pool: pool}
}

// GetByID fetches a store by UUID.
func (r *StoreRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	query := `SELECT id, merchant_id, name, email, salt, callback_url, active, online, created_at, updated_at
		FROM stores WHERE id = $1`

	s := &domain.Store{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.MerchantID, &s.Name, &s.Email, &s.Salt,
		&s.CallbackURL, &s.Active, &s.Online, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan store: %w", err)
	}
	return s, nil
}
