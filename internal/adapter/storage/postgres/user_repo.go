package postgres

import (
	"context"
	"errors"
	"fmt"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, mobile_number, name, email, remaining_credit, status,
	pin_hash, fcm_token, otp_settings, cards, created_at, updated_at`

// GetByID fetches a user by UUID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByMobileNumber fetches a user by mobile number.
func (r *UserRepo) GetByMobileNumber(ctx context.Context, mobile string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE mobile_number = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, mobile))
}

// DecrementCredit atomically subtracts amount from the user's remaining
// credit. The WHERE guard keeps the balance non-negative; a no-op update
// means the credit did not cover the amount.
func (r *UserRepo) DecrementCredit(ctx context.Context, id uuid.UUID, amount int64) error {
	query := `UPDATE users SET remaining_credit = remaining_credit - $1, updated_at = now()
		WHERE id = $2 AND remaining_credit >= $1`

	tag, err := r.pool.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("decrement credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrInsufficientCredit
	}
	return nil
}

// AdjustCredit applies a signed delta and returns the new balance. The
// update always lands, but the balance never drops below zero: a wallet
// capture larger than the user's remaining credit exhausts the credit
// rather than overdrawing it.
func (r *UserRepo) AdjustCredit(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	query := `UPDATE users SET remaining_credit = GREATEST(remaining_credit + $1, 0), updated_at = now()
		WHERE id = $2 RETURNING remaining_credit`

	var balance int64
	if err := r.pool.QueryRow(ctx, query, delta, id).Scan(&balance); err != nil {
		return 0, fmt.Errorf("adjust credit: %w", err)
	}
	return balance, nil
}

// CountTransactions counts the user's confirmed transactions.
func (r *UserRepo) CountTransactions(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE user_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count user transactions: %w", err)
	}
	return count, nil
}

// The otp_settings and cards jsonb columns need their own structs: the
// domain types hide secrets from API marshalling with json:"-", which
// the pgx JSON codec would honor too, dropping them on every read.
type dbOTPSettings struct {
	Secret string `json:"secret"`
	Digits int    `json:"digits"`
	Step   int    `json:"step"`
}

func (o dbOTPSettings) toDomain() domain.OTPSettings {
	return domain.OTPSettings{Secret: o.Secret, Digits: o.Digits, Step: o.Step}
}

type dbCard struct {
	TokenEnc     string `json:"token_enc"`
	MaskedNumber string `json:"masked_number"`
	Gateway      string `json:"gateway"`
	AuthID       string `json:"auth_id"`
	Default      bool   `json:"default"`
}

func (c dbCard) toDomain() domain.Card {
	return domain.Card{
		TokenEnc:     c.TokenEnc,
		MaskedNumber: c.MaskedNumber,
		Gateway:      domain.Gateway(c.Gateway),
		AuthID:       c.AuthID,
		Default:      c.Default,
	}
}

func (r *UserRepo) scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	var otp dbOTPSettings
	var cards []dbCard
	err := row.Scan(
		&u.ID, &u.MobileNumber, &u.Name, &u.Email,
		&u.RemainingCredit, &u.Status, &u.PINHash, &u.FCMToken,
		&otp, &cards, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.OTP = otp.toDomain()
	if len(cards) > 0 {
		u.Cards = make([]domain.Card, 0, len(cards))
		for _, c := range cards {
			u.Cards = append(u.Cards, c.toDomain())
		}
	}
	return u, nil
}
