package dto

import (
	"encoding/json"
	"fmt"

	"installment-platform/internal/core/domain"
)

// CreateTransactionRequest is the request body for the primary create
// endpoint. Either the QR payload carries the signed checkout tuple, or
// the explicit fields do. Merchant custom fields arrive as extra
// top-level keys and are extracted separately.
type CreateTransactionRequest struct {
	QR             string `json:"qr,omitempty"`
	Token          string `json:"token,omitempty"`
	StoreID        string `json:"store_id,omitempty" binding:"omitempty,uuid"`
	MobileNumber   string `json:"mobile_number,omitempty"`
	Amount         int64  `json:"amount,omitempty" binding:"omitempty,gt=0"`
	Number         string `json:"transaction_number,omitempty"`
	Digest         string `json:"digest,omitempty"`
	OTP            string `json:"otp" binding:"required"`
	TerminDuration int    `json:"termin_duration,omitempty"`
}

// WalletCallbackRequest is the request body for the dana/gopay capture
// callbacks. The wallet provider already moved the money; this records
// the outcome.
type WalletCallbackRequest struct {
	Number      string `json:"transaction_number" binding:"required"`
	GrossAmount int64  `json:"gross_amount" binding:"required,gt=0"`
	PaymentID   string `json:"payment_id" binding:"required"`
	Method      string `json:"payment_method,omitempty"`
}

// PreApprovedRequest is the request body for approving a staged
// transaction using its stored card token.
type PreApprovedRequest struct {
	Number string `json:"transaction_number" binding:"required"`
}

// InitPendingRequest is the request body for staging a prospective
// purchase before approval.
type InitPendingRequest struct {
	Number         string            `json:"transaction_number" binding:"required"`
	StoreID        string            `json:"store_id" binding:"required,uuid"`
	Total          int64             `json:"total" binding:"required,gt=0"`
	TerminDuration int               `json:"termin_duration,omitempty"`
	Method         string            `json:"payment_method" binding:"required,oneof=card dana gopay"`
	Custom         map[string]string `json:"custom_fields,omitempty"`
	ReminderEmail  string            `json:"reminder_email,omitempty" binding:"omitempty,email"`
	ReminderName   string            `json:"reminder_name,omitempty"`
}

// GenerateQRRequest is the request body for store QR generation.
// Callback rules arrive as headers, not body fields.
type GenerateQRRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Number string `json:"transaction_number" binding:"required,max=100"`
}

// GenerateQRResponse is the rendered code plus its digest.
type GenerateQRResponse struct {
	Number  string `json:"transaction_number"`
	Digest  string `json:"digest"`
	Payload string `json:"payload"`
	PNG     string `json:"qr_image"`
}

// LoginRequest is the request body for end user login.
type LoginRequest struct {
	MobileNumber string `json:"mobile_number" binding:"required,min=8,max=20"`
	PIN          string `json:"pin" binding:"required,min=4,max=12"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
}

// knownCreateKeys are the fixed fields of CreateTransactionRequest;
// every other top-level string value counts as a custom field.
var knownCreateKeys = map[string]struct{}{
	"qr": {}, "token": {}, "store_id": {}, "mobile_number": {},
	"amount": {}, "transaction_number": {}, "digest": {}, "otp": {},
	"termin_duration": {},
}

// ExtractCustomFields pulls merchant custom fields out of a raw create
// body: leftover top-level keys with string values, capped at
// domain.MaxCustomFields.
func ExtractCustomFields(body []byte) (map[string]string, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing request body: %w", err)
	}

	var custom map[string]string
	for k, v := range raw {
		if _, known := knownCreateKeys[k]; known {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue // non-string extras are ignored
		}
		if custom == nil {
			custom = make(map[string]string)
		}
		custom[k] = s
	}
	if len(custom) > domain.MaxCustomFields {
		return nil, fmt.Errorf("at most %d custom fields are allowed", domain.MaxCustomFields)
	}
	return custom, nil
}
