package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Termin durations supported by the installment program, in days.
const (
	TerminDuration14 = 14
	TerminDuration30 = 30
)

// TermCount is the fixed number of installments per transaction.
const TermCount = 4

// VAUnavailable marks a term whose virtual-account issuance failed.
// The transaction proceeds; collection retries the VA request later.
const VAUnavailable = "VA_UNAVAILABLE"

// TransactionStatus tracks the repayment lifecycle of a confirmed
// transaction.
type TransactionStatus int

const (
	TransactionStatusCreated    TransactionStatus = 0
	TransactionStatusInProgress TransactionStatus = 1
	TransactionStatusPaidOff    TransactionStatus = 2
	TransactionStatusDisputed   TransactionStatus = 3
)

// TermPayment records how (and whether) a single term was settled.
type TermPayment struct {
	Paid       bool       `json:"paid"`
	StatusCode StatusCode `json:"status_code"`
	Date       *time.Time `json:"date,omitempty"`
	Method     string     `json:"method,omitempty"`
	Gateway    Gateway    `json:"gateway,omitempty"`
	PaymentID  string     `json:"payment_id,omitempty"`
	OrderID    string     `json:"order_id,omitempty"`
}

// Term is one installment of a 4-part schedule.
type Term struct {
	Number        int         `json:"number"`
	Amount        int64       `json:"amount"`
	DueDate       time.Time   `json:"due_date"`
	LateFee       int64       `json:"late_fee"`
	Discount      int64       `json:"discount"`
	Reimbursement int64       `json:"reimbursement"`
	Payment       TermPayment `json:"payment"`
}

// Transaction is a committed installment agreement. It exists only
// after the first term has been charged successfully.
type Transaction struct {
	ID             uuid.UUID         `json:"id"`
	Number         string            `json:"transaction_number"`
	Total          int64             `json:"total"`
	ConvenienceFee int64             `json:"convenience_fee"`
	TerminDuration int               `json:"termin_duration"`
	Terms          []Term            `json:"terms"`
	Status         TransactionStatus `json:"status"`
	UserID         uuid.UUID         `json:"user_id"`
	StoreID        uuid.UUID         `json:"store_id"`
	VoucherID      *uuid.UUID        `json:"voucher_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// PaidOff reports whether every term has been settled.
func (t *Transaction) PaidOff() bool {
	for i := range t.Terms {
		if !t.Terms[i].Payment.Paid {
			return false
		}
	}
	return len(t.Terms) > 0
}

// PaymentOrderID builds the gateway order id for one term. The leading
// "2" designates an installment payment in the legacy numbering scheme
// and is load-bearing for merchant reconciliation tooling.
func PaymentOrderID(number string, term int) string {
	return "2-" + number + "-" + strconv.Itoa(term)
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// SanitizeNumber strips the punctuation merchants tend to embed in
// invoice numbers so the prefixed form stays unambiguous.
func SanitizeNumber(raw string) string {
	return nonWord.ReplaceAllString(raw, "")
}

// PrefixedNumber namespaces a raw merchant invoice number under the
// merchant's prefix.
func PrefixedNumber(prefix, raw string) string {
	return prefix + "." + SanitizeNumber(raw)
}

// BareNumber returns the merchant-side invoice number with the platform
// prefix removed. Callbacks echo this form so merchants can match
// against their own records.
func BareNumber(number string) string {
	if i := strings.Index(number, "."); i >= 0 {
		return number[i+1:]
	}
	return number
}
