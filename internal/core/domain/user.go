package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus represents the verification state of an end user.
// Only approved users may transact.
type UserStatus int

const (
	UserStatusUnverified      UserStatus = 0
	UserStatusPendingApproval UserStatus = 1
	UserStatusApproved        UserStatus = 2
	UserStatusBanned          UserStatus = 3
	UserStatusRejected        UserStatus = 4
	UserStatusFrozen          UserStatus = 5
)

// Gateway identifies which external charge provider a stored payment
// method belongs to.
type Gateway string

const (
	GatewayMidtrans Gateway = "midtrans"
	GatewayXendit   Gateway = "xendit"
	GatewayDana     Gateway = "dana"
	GatewayGopay    Gateway = "gopay"
)

// Card is a tokenized payment card stored against a user. The raw token
// is encrypted at rest; adapters receive the decrypted value only for
// the duration of a charge call.
type Card struct {
	TokenEnc     string  `json:"-"`
	MaskedNumber string  `json:"masked_number"`
	Gateway      Gateway `json:"gateway"`
	AuthID       string  `json:"-"`
	Default      bool    `json:"default"`
}

// OTPSettings holds the per-user TOTP parameters. Secret is base32.
type OTPSettings struct {
	Secret string `json:"-"`
	Digits int    `json:"digits"`
	Step   int    `json:"step"` // seconds
}

// User is an end user of the installment program.
type User struct {
	ID              uuid.UUID   `json:"id"`
	MobileNumber    string      `json:"mobile_number"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	RemainingCredit int64       `json:"remaining_credit"`
	Status          UserStatus  `json:"status"`
	PINHash         string      `json:"-"`
	FCMToken        string      `json:"-"`
	OTP             OTPSettings `json:"-"`
	Cards           []Card      `json:"cards,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// CanTransact reports whether the user may start a new transaction.
func (u *User) CanTransact() bool {
	return u.Status == UserStatusApproved
}

// DefaultCard returns the user's default card, or nil when the user has
// no usable card on file.
func (u *User) DefaultCard() *Card {
	for i := range u.Cards {
		if u.Cards[i].Default {
			return &u.Cards[i]
		}
	}
	if len(u.Cards) > 0 {
		return &u.Cards[0]
	}
	return nil
}
