package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CallbackJob is one merchant webhook delivery, queued on the
// notification row until an attempt succeeds.
type CallbackJob struct {
	URL       string            `json:"url"`
	Payload   json.RawMessage   `json:"payload"`
	Sent      bool              `json:"sent"`
	Responses []CallbackAttempt `json:"responses,omitempty"`
}

// CallbackAttempt records one delivery attempt against the merchant.
type CallbackAttempt struct {
	At         time.Time `json:"at"`
	StatusCode int       `json:"status_code"`
	Body       string    `json:"body,omitempty"`
	Err        string    `json:"error,omitempty"`
}

// EmailJob is a templated email queued for delivery.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sent    bool   `json:"sent"`
}

// PushJob is a mobile push notification queued for delivery. The token
// must survive persistence so an unsent job can be re-driven later.
type PushJob struct {
	FCMToken string `json:"fcm_token,omitempty"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Sent     bool   `json:"sent"`
}

// TransactionNotification is the fan-out record for one transaction
// outcome: merchant callback, emails, and push, each independently
// deliverable. Unsent jobs are re-driven by an external dispatcher.
type TransactionNotification struct {
	ID        uuid.UUID     `json:"id"`
	Number    string        `json:"transaction_number"`
	Callbacks []CallbackJob `json:"callbacks"`
	Emails    []EmailJob    `json:"emails,omitempty"`
	Push      *PushJob      `json:"push,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CallbackRules let a merchant override or extend the store's
// configured callback URL per transaction number, set via headers at QR
// generation time.
type CallbackRules struct {
	Number   string   `json:"transaction_number"`
	Override []string `json:"override,omitempty"`
	Append   []string `json:"append,omitempty"`
}

// URLs resolves the final delivery targets given the store default.
func (r *CallbackRules) URLs(storeURL string) []string {
	if r != nil && len(r.Override) > 0 {
		return r.Override
	}
	urls := make([]string, 0, 3)
	if storeURL != "" {
		urls = append(urls, storeURL)
	}
	if r != nil {
		urls = append(urls, r.Append...)
	}
	return urls
}
