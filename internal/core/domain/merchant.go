package domain

import (
	"time"

	"github.com/google/uuid"
)

// Default convenience fees applied when a merchant has no explicit
// schedule configured.
const (
	DefaultFeeMonthly   int64 = 25000
	DefaultFeeTwoWeekly int64 = 0
)

// FeeSchedule is the merchant-configured convenience-fee table keyed by
// termin duration.
type FeeSchedule struct {
	TwoWeekly *int64 `json:"two_weekly,omitempty"`
	Monthly   *int64 `json:"monthly,omitempty"`
}

// Merchant groups one or more stores under a single installment
// program contract. The prefix namespaces every transaction number the
// merchant's stores produce.
type Merchant struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Prefix    string      `json:"prefix"`
	Fees      FeeSchedule `json:"fees"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FeeFor returns the convenience fee for the given termin duration,
// falling back to platform defaults when the merchant has no schedule.
func (m *Merchant) FeeFor(terminDuration int) int64 {
	switch terminDuration {
	case TerminDuration14:
		if m.Fees.TwoWeekly != nil {
			return *m.Fees.TwoWeekly
		}
		return DefaultFeeTwoWeekly
	default:
		if m.Fees.Monthly != nil {
			return *m.Fees.Monthly
		}
		return DefaultFeeMonthly
	}
}
