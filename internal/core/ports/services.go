package ports

import (
	"context"
	"encoding/json"
	"time"

	"installment-platform/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption of data
// at rest (stored card tokens).
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService proves a request originates from the legitimate
// user/store pairing before money moves.
type SignatureService interface {
	// Digest computes the MD5 over amount, transaction number, store id
	// and the store's signing salt.
	Digest(amount int64, number, storeID, salt string) string
	Verify(amount int64, number, storeID, salt, digest string) bool
	EncodeQR(p QRPayload) (string, error)
	DecodeQR(raw string) (QRPayload, error)
}

// QRPayload is the decoded pipe-delimited QR content.
type QRPayload struct {
	StoreID string
	Amount  int64
	Digest  string
	Number  string
	Custom  map[string]string
}

// OTPService validates and produces time-based one-time codes.
type OTPService interface {
	Verify(user *domain.User, code string) bool
	Generate(user *domain.User) (string, error)
	// Run refreshes the user's code every step interval and publishes
	// it to the user's live channel until ctx is cancelled.
	Run(ctx context.Context, user *domain.User, registry Registry)
}

// HashService handles PIN hashing (Argon2id).
type HashService interface {
	Hash(pin string) (string, error)
	Verify(pin string, hash string) (bool, error)
}

// TokenService handles user JWT operations for the QR approval flow.
type TokenService interface {
	Generate(mobileNumber string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	MobileNumber string
}

// ChargeGuard is the Redis fast path of the at-most-one-charge
// invariant. The database unique index is the authority; the guard
// only cuts off concurrent duplicates early.
type ChargeGuard interface {
	// Acquire returns true when this caller is first for the number.
	Acquire(ctx context.Context, number string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, number string) error
}

// ReplayCache stores the final success payload per transaction number
// so duplicate wallet callbacks and pre-approved retries can be
// answered idempotently.
type ReplayCache interface {
	Get(ctx context.Context, number string) ([]byte, error) // nil when absent
	Set(ctx context.Context, number string, payload []byte, ttl time.Duration) error
}

// RateLimitStore counts requests per key within a rolling window.
type RateLimitStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// --- Service Ports (Business Logic) ---

// TransactionService is the orchestrator driving a transaction through
// validation, verification, charge, commit and fan-out.
type TransactionService interface {
	Create(ctx context.Context, req CreateRequest) (*domain.Callback, error)
	WalletCallback(ctx context.Context, req WalletCallbackRequest) (*domain.Callback, error)
	CreateFromPreApproved(ctx context.Context, req PreApprovedRequest) (*domain.Callback, error)
	InitPending(ctx context.Context, req InitPendingRequest) (*domain.PendingTransaction, error)
	GetByNumber(ctx context.Context, number string) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// CreateRequest holds input for the primary create operation. Either QR
// carries the store/amount/digest/number tuple, or the explicit fields
// do.
type CreateRequest struct {
	QR             string
	Token          string // user JWT, QR flow only
	StoreID        string
	MobileNumber   string
	Amount         int64
	Number         string
	Digest         string
	OTP            string
	TerminDuration int
	Custom         map[string]string
}

// WalletCallbackRequest records an externally captured wallet payment.
type WalletCallbackRequest struct {
	Number      string
	Gateway     domain.Gateway
	GrossAmount int64
	PaymentID   string
	Method      string
	Raw         json.RawMessage
}

// PreApprovedRequest approves a previously staged transaction using its
// stored card token.
type PreApprovedRequest struct {
	Number string
}

// InitPendingRequest stages a prospective purchase before approval.
type InitPendingRequest struct {
	Number         string
	StoreID        uuid.UUID
	Total          int64
	TerminDuration int
	Method         domain.PaymentMethod
	Custom         map[string]string
	ReminderEmail  string
	ReminderName   string
}

// ScheduleBuilder produces the fixed 4-term installment schedule.
type ScheduleBuilder interface {
	Build(ctx context.Context, req ScheduleRequest) ([]domain.Term, error)
}

// ScheduleRequest is the validated input for schedule building.
type ScheduleRequest struct {
	Number         string
	Total          int64
	TerminDuration int
	Now            time.Time
}

// NotificationService builds and best-effort delivers the fan-out for a
// finished transaction outcome.
type NotificationService interface {
	Dispatch(ctx context.Context, outcome TransactionOutcome)
}

// TransactionOutcome carries everything fan-out needs. Transaction is
// nil for failed attempts.
type TransactionOutcome struct {
	Transaction     *domain.Transaction
	Store           *domain.Store
	User            *domain.User
	Number          string
	Code            domain.StatusCode
	GrossAmount     int64
	RemainingCredit int64
	Custom          map[string]string
	Voucher         *domain.Voucher
}

// QRService renders signed QR codes for store checkouts.
type QRService interface {
	Generate(ctx context.Context, req GenerateQRRequest) (*GenerateQRResult, error)
}

// GenerateQRRequest holds input for QR generation.
type GenerateQRRequest struct {
	StoreID  uuid.UUID
	Amount   int64
	Number   string
	Custom   map[string]string
	Override []string // callback rule headers
	Append   []string
}

// GenerateQRResult is the rendered code plus its digest.
type GenerateQRResult struct {
	Number  string
	Digest  string
	Payload string
	PNG     string // base64 data URL
}

// AuthService authenticates end users for the QR approval flow.
type AuthService interface {
	Login(ctx context.Context, mobileNumber, pin string) (string, time.Time, error) // token, expiry
}

// Registry is the live connection registry keyed by channel id
// (store or user). Injected wherever live updates are published.
type Registry interface {
	Subscribe(channel string) (<-chan []byte, func())
	Publish(channel string, message []byte)
}

// WebhookSender POSTs merchant callback payloads.
type WebhookSender interface {
	Send(ctx context.Context, url string, payload []byte) *domain.CallbackAttempt
}

// Mailer delivers templated email jobs.
type Mailer interface {
	Send(ctx context.Context, job domain.EmailJob) error
}

// Pusher delivers mobile push notifications.
type Pusher interface {
	Push(ctx context.Context, job domain.PushJob) error
}
