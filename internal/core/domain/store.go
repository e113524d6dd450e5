package domain

import (
	"time"

	"github.com/google/uuid"
)

// Store is a merchant outlet. The salt signs QR payloads and MD5
// digests for transactions originating from this store; the callback
// URL receives transaction outcome notifications.
type Store struct {
	ID          uuid.UUID `json:"id"`
	MerchantID  uuid.UUID `json:"merchant_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Salt        string    `json:"-"`
	CallbackURL string    `json:"callback_url"`
	Active      bool      `json:"active"`
	Online      bool      `json:"online"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
