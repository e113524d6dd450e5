package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentLogType distinguishes the first synchronous charge from later
// installment collections.
type PaymentLogType int

const (
	PaymentLogInstallment PaymentLogType = 1
	PaymentLogFirstCharge PaymentLogType = 2
)

// PaymentLog is an append-only record of one external gateway
// interaction. Rows are never mutated after insert.
type PaymentLog struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	StoreID         uuid.UUID       `json:"store_id"`
	Gateway         Gateway         `json:"gateway"`
	PaymentID       string          `json:"payment_id"`
	OrderID         string          `json:"order_id"`
	Type            PaymentLogType  `json:"type"`
	GrossAmount     int64           `json:"gross_amount"`
	RemainingCredit int64           `json:"remaining_credit"`
	Detail          json.RawMessage `json:"detail,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
