package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
	// transaction counts come from the transaction repo so the voucher
	// grant check sees committed rows
	txns *inMemoryTransactionRepo
}

func newInMemoryUserRepo(txns *inMemoryTransactionRepo) *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User), txns: txns}
}

func (r *inMemoryUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByMobileNumber(ctx context.Context, mobile string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.MobileNumber == mobile {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) DecrementCredit(ctx context.Context, id uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	if u.RemainingCredit < amount {
		return ports.ErrInsufficientCredit
	}
	u.RemainingCredit -= amount
	return nil
}

func (r *inMemoryUserRepo) AdjustCredit(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, fmt.Errorf("user not found")
	}
	u.RemainingCredit += delta
	if u.RemainingCredit < 0 {
		u.RemainingCredit = 0
	}
	return u.RemainingCredit, nil
}

func (r *inMemoryUserRepo) CountTransactions(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.txns.countByUser(id), nil
}

// --- In-Memory Store Repo ---

type inMemoryStoreRepo struct {
	mu     sync.RWMutex
	stores map[uuid.UUID]*domain.Store
}

func newInMemoryStoreRepo() *inMemoryStoreRepo {
	return &inMemoryStoreRepo{stores: make(map[uuid.UUID]*domain.Store)}
}

func (r *inMemoryStoreRepo) add(s *domain.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[s.ID] = s
}

func (r *inMemoryStoreRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) add(m *domain.Merchant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants[m.ID] = m
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMerchantRepo) PrefixExists(ctx context.Context, prefix string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Prefix == prefix {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryMerchantRepo) SetPrefix(ctx context.Context, id uuid.UUID, prefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.Prefix = prefix
	return nil
}

// --- In-Memory Pending Repo ---

type inMemoryPendingRepo struct {
	mu      sync.RWMutex
	pending map[string]*domain.PendingTransaction
}

func newInMemoryPendingRepo() *inMemoryPendingRepo {
	return &inMemoryPendingRepo{pending: make(map[string]*domain.PendingTransaction)}
}

func (r *inMemoryPendingRepo) GetByNumber(ctx context.Context, number string) (*domain.PendingTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pending[number]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryPendingRepo) Upsert(ctx context.Context, p *domain.PendingTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.pending[p.Number] = &cp
	return nil
}

func (r *inMemoryPendingRepo) StageBucket(ctx context.Context, number string, bucket *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[number]
	if !ok {
		return fmt.Errorf("pending transaction not found")
	}
	p.Bucket = bucket
	p.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryPendingRepo) SetGatewayResponse(ctx context.Context, number string, raw json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[number]
	if !ok {
		return fmt.Errorf("pending transaction not found")
	}
	p.GatewayResponse = raw
	return nil
}

func (r *inMemoryPendingRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[number]
	if !ok {
		return fmt.Errorf("pending transaction not found")
	}
	p.Status = domain.PendingStatusCompleted
	p.Pending = false
	p.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryPendingRepo) MarkExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.pending {
		if p.Status == domain.PendingStatusPending && p.CreatedAt.Before(olderThan) {
			p.Status = domain.PendingStatusExpired
			p.Pending = false
			n++
		}
	}
	return n, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction // keyed by number
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[string]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transactions[t.Number]; exists {
		return ports.ErrDuplicateNumber
	}
	cp := *t
	r.transactions[t.Number] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByNumber(ctx context.Context, number string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[number]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) DeleteByNumber(ctx context.Context, number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transactions, number)
	return nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.StoreID != params.StoreID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.From != nil && t.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && t.CreatedAt.After(*params.To) {
			continue
		}
		result = append(result, *t)
	}
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryTransactionRepo) countByUser(userID uuid.UUID) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, t := range r.transactions {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

// --- In-Memory Payment Log Repo ---

type inMemoryPaymentLogRepo struct {
	mu      sync.Mutex
	entries []*domain.PaymentLog
}

func newInMemoryPaymentLogRepo() *inMemoryPaymentLogRepo {
	return &inMemoryPaymentLogRepo{}
}

func (r *inMemoryPaymentLogRepo) Create(ctx context.Context, entry *domain.PaymentLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// --- In-Memory Notification Repo ---

type inMemoryNotificationRepo struct {
	mu            sync.RWMutex
	notifications map[string]*domain.TransactionNotification
	rules         map[string]*domain.CallbackRules
}

func newInMemoryNotificationRepo() *inMemoryNotificationRepo {
	return &inMemoryNotificationRepo{
		notifications: make(map[string]*domain.TransactionNotification),
		rules:         make(map[string]*domain.CallbackRules),
	}
}

func (r *inMemoryNotificationRepo) Upsert(ctx context.Context, n *domain.TransactionNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.notifications[n.Number] = &cp
	return nil
}

func (r *inMemoryNotificationRepo) GetByNumber(ctx context.Context, number string) (*domain.TransactionNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifications[number]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *inMemoryNotificationRepo) SaveCallbackRules(ctx context.Context, rules *domain.CallbackRules) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rules
	r.rules[rules.Number] = &cp
	return nil
}

func (r *inMemoryNotificationRepo) GetCallbackRules(ctx context.Context, number string) (*domain.CallbackRules, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules, ok := r.rules[number]
	if !ok {
		return nil, nil
	}
	cp := *rules
	return &cp, nil
}

// --- In-Memory Voucher Repo ---

type inMemoryVoucherRepo struct {
	mu       sync.RWMutex
	vouchers map[uuid.UUID]*domain.Voucher
}

func newInMemoryVoucherRepo() *inMemoryVoucherRepo {
	return &inMemoryVoucherRepo{vouchers: make(map[uuid.UUID]*domain.Voucher)}
}

func (r *inMemoryVoucherRepo) Create(ctx context.Context, v *domain.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vouchers[v.ID] = v
	return nil
}

func (r *inMemoryVoucherRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, v := range r.vouchers {
		if v.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- Fake Payment Gateway ---

// fakeGateway captures charges in memory so tests can count exactly how
// many times money moved.
type fakeGateway struct {
	name    domain.Gateway
	charges atomic.Int64
	cancels atomic.Int64
	decline atomic.Bool
}

func newFakeGateway(name domain.Gateway) *fakeGateway {
	return &fakeGateway{name: name}
}

func (g *fakeGateway) Name() domain.Gateway { return g.name }

func (g *fakeGateway) Charge(ctx context.Context, req ports.ChargeRequest) (ports.ChargeResult, error) {
	if g.decline.Load() {
		return ports.ChargeResult{
			Outcome: ports.ChargeDeclined,
			Reason:  "insufficient card balance",
			Raw:     json.RawMessage(`{"transaction_status":"deny"}`),
		}, nil
	}
	n := g.charges.Add(1)
	return ports.ChargeResult{
		Outcome:   ports.ChargeCaptured,
		PaymentID: fmt.Sprintf("pay-%d", n),
		Method:    "credit_card",
		Time:      time.Now(),
		Raw:       json.RawMessage(`{"transaction_status":"capture"}`),
	}, nil
}

func (g *fakeGateway) Cancel(ctx context.Context, orderID string) error {
	g.cancels.Add(1)
	return nil
}

// --- Fake VA Issuer ---

type fakeVAIssuer struct{}

func (fakeVAIssuer) Issue(ctx context.Context, req ports.VARequest) (ports.VAResult, error) {
	return ports.VAResult{
		PaymentID: fmt.Sprintf("va-%s-%d", req.Number, req.TermNumber),
		Method:    "bank_transfer",
	}, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
