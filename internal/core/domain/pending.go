package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MaxCustomFields caps the merchant-supplied fields carried through a
// transaction and echoed back on callbacks.
const MaxCustomFields = 5

// PendingStatus tracks the pre-approval lifecycle.
type PendingStatus int

const (
	PendingStatusPending   PendingStatus = 0
	PendingStatusCompleted PendingStatus = 1
	PendingStatusExpired   PendingStatus = 2
)

// PaymentMethod is the user-chosen settlement channel for a pending
// transaction.
type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodDana  PaymentMethod = "dana"
	PaymentMethodGopay PaymentMethod = "gopay"
)

// CheckoutReminder holds the contact details for a nudge email when a
// staged checkout is abandoned.
type CheckoutReminder struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Sent  bool   `json:"sent"`
}

// PendingTransaction is a staged purchase awaiting verification and
// first charge. Terminal states are completed or expired; rows are
// never deleted.
type PendingTransaction struct {
	ID              uuid.UUID         `json:"id"`
	Number          string            `json:"transaction_number"`
	Total           int64             `json:"total"`
	UserID          *uuid.UUID        `json:"user_id,omitempty"`
	StoreID         uuid.UUID         `json:"store_id"`
	TerminDuration  int               `json:"termin_duration"`
	Method          PaymentMethod     `json:"payment_method"`
	CardTokenEnc    string            `json:"-"`
	CustomFields    map[string]string `json:"custom_fields,omitempty"`
	Status          PendingStatus     `json:"status"`
	Pending         bool              `json:"pending"`
	Bucket          *Transaction      `json:"bucket,omitempty"`
	GatewayResponse json.RawMessage   `json:"-"`
	Reminder        CheckoutReminder  `json:"reminder"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Finished reports whether the pending transaction reached a terminal
// state and can no longer be approved.
func (p *PendingTransaction) Finished() bool {
	return p.Status != PendingStatusPending
}
