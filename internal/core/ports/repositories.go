package ports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"installment-platform/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateNumber is returned by TransactionRepository.Create when
// the unique index on transaction number rejects the insert. It is the
// hard idempotency boundary; callers map it to status 202.
var ErrDuplicateNumber = errors.New("transaction number already exists")

// ErrInsufficientCredit is returned by UserRepository.DecrementCredit
// when the conditional decrement matches no row.
var ErrInsufficientCredit = errors.New("remaining credit insufficient")

// UserRepository defines persistence operations for end users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByMobileNumber(ctx context.Context, mobile string) (*domain.User, error)
	// DecrementCredit atomically subtracts amount where the remaining
	// credit still covers it. Returns ErrInsufficientCredit when the
	// guard fails; never drives the balance negative.
	DecrementCredit(ctx context.Context, id uuid.UUID, amount int64) error
	// AdjustCredit applies a signed delta unconditionally and returns
	// the new balance. Used for compensating restores.
	AdjustCredit(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
	CountTransactions(ctx context.Context, id uuid.UUID) (int64, error)
}

// StoreRepository defines persistence operations for stores.
type StoreRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error)
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	PrefixExists(ctx context.Context, prefix string) (bool, error)
	SetPrefix(ctx context.Context, id uuid.UUID, prefix string) error
}

// PendingTransactionRepository manages staged pre-approval records.
// Methods accepting pgx.Tx run inside the orchestrator's commit block.
type PendingTransactionRepository interface {
	GetByNumber(ctx context.Context, number string) (*domain.PendingTransaction, error)
	Upsert(ctx context.Context, p *domain.PendingTransaction) error
	// StageBucket persists the built schedule onto the pending row
	// before any charge is attempted.
	StageBucket(ctx context.Context, number string, bucket *domain.Transaction) error
	SetGatewayResponse(ctx context.Context, number string, raw json.RawMessage) error
	MarkCompleted(ctx context.Context, tx pgx.Tx, number string) error
	// MarkExpired transitions pending rows older than the cutoff to
	// expired, returning how many were swept.
	MarkExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// TransactionRepository manages confirmed installment agreements.
type TransactionRepository interface {
	// Create performs the atomic conditional insert. A unique-index
	// violation on number surfaces as ErrDuplicateNumber.
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByNumber(ctx context.Context, number string) (*domain.Transaction, error)
	// DeleteByNumber removes a just-committed record during charge
	// compensation. Not used outside that path.
	DeleteByNumber(ctx context.Context, number string) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for store-scoped listing.
type TransactionListParams struct {
	StoreID  uuid.UUID
	Status   *domain.TransactionStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// PaymentLogRepository appends gateway interaction records.
type PaymentLogRepository interface {
	Create(ctx context.Context, entry *domain.PaymentLog) error
}

// NotificationRepository persists fan-out records and callback rules.
type NotificationRepository interface {
	Upsert(ctx context.Context, n *domain.TransactionNotification) error
	GetByNumber(ctx context.Context, number string) (*domain.TransactionNotification, error)
	SaveCallbackRules(ctx context.Context, rules *domain.CallbackRules) error
	GetCallbackRules(ctx context.Context, number string) (*domain.CallbackRules, error)
}

// VoucherRepository manages granted vouchers.
type VoucherRepository interface {
	Create(ctx context.Context, v *domain.Voucher) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
