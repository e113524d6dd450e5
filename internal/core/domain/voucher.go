package domain

import (
	"time"

	"github.com/google/uuid"
)

// Voucher is a discount credit granted to a user, currently only on
// their first completed transaction.
type Voucher struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
	Redeemed  bool      `json:"redeemed"`
	CreatedAt time.Time `json:"created_at"`
}
