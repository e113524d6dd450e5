package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"
	"installment-platform/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	chargeGuardTTL  = 2 * time.Minute
	replayTTL       = 24 * time.Hour
	fanoutTimeout   = 30 * time.Second
	firstVoucherAmt = 25000
)

// OrchestratorDeps wires the transaction orchestrator.
type OrchestratorDeps struct {
	UserRepo     ports.UserRepository
	StoreRepo    ports.StoreRepository
	MerchantRepo ports.MerchantRepository
	PendingRepo  ports.PendingTransactionRepository
	TxnRepo      ports.TransactionRepository
	LogRepo      ports.PaymentLogRepository
	VoucherRepo  ports.VoucherRepository
	Guard        ports.ChargeGuard
	Replay       ports.ReplayCache
	Transactor   ports.DBTransactor
	Schedule     ports.ScheduleBuilder
	SigSvc       ports.SignatureService
	OTPSvc       ports.OTPService
	TokenSvc     ports.TokenService
	EncSvc       ports.EncryptionService
	Resolver     ports.GatewayResolver
	Notifier     ports.NotificationService
	Logger       zerolog.Logger
}

// TransactionOrchestrator implements ports.TransactionService. Every
// entry point (direct create, QR create, wallet callbacks, pre-approved
// approval) funnels into the same validate, dedup, schedule, charge,
// commit, fan-out sequence. The hard guarantees live here: at most one
// successful charge per transaction number, and no committed record
// without a captured first installment backed by a credit decrement.
type TransactionOrchestrator struct {
	deps OrchestratorDeps
	log  zerolog.Logger
}

// NewTransactionOrchestrator creates the orchestrator.
func NewTransactionOrchestrator(deps OrchestratorDeps) *TransactionOrchestrator {
	return &TransactionOrchestrator{deps: deps, log: deps.Logger}
}

// approveInput is the normalized input every entry point reduces to
// before the canonical approval sequence runs.
type approveInput struct {
	user   *domain.User
	store  *domain.Store
	number string
	total  int64
	fee    int64
	termin int
	custom map[string]string
	method domain.PaymentMethod

	// charge performs (or records) the first-term settlement.
	charge func(ctx context.Context, orderID string, amount int64) (ports.ChargeResult, error)
	// cancel reverses a captured charge; nil when reversal is
	// impossible (externally captured wallet payments).
	cancel func(ctx context.Context, orderID string) error
	// debit applies the credit decrement. Conditional for card flows,
	// unconditional for wallet captures where funds already moved.
	debit func(ctx context.Context) error
	// debitAmount is what the ledger loses, for logging and callbacks.
	debitAmount int64
	gatewayName domain.Gateway
	rawResponse json.RawMessage
}

// Create is the primary entry point, serving both the direct
// (store+mobile+digest) and QR (payload+user token) forms.
func (o *TransactionOrchestrator) Create(ctx context.Context, req ports.CreateRequest) (*domain.Callback, error) {
	in, err := o.resolveCreateInput(ctx, &req)
	if err != nil {
		return nil, err
	}

	// Authorization happens before any write.
	if !o.deps.SigSvc.Verify(in.total, in.number, in.store.ID.String(), in.store.Salt, req.Digest) {
		return nil, apperror.ErrSignatureInvalid()
	}
	if !o.deps.OTPSvc.Verify(in.user, req.OTP) {
		return nil, apperror.ErrOTPInvalid()
	}
	if err := o.authorize(in.user, in.store, in.total); err != nil {
		return nil, err
	}

	if err := o.attachCardCharge(in, in.user.DefaultCard(), ""); err != nil {
		return nil, err
	}
	return o.approve(ctx, in)
}

// WalletCallback records an externally captured wallet payment against
// a staged pending transaction. Duplicate deliveries replay the
// original success payload.
func (o *TransactionOrchestrator) WalletCallback(ctx context.Context, req ports.WalletCallbackRequest) (*domain.Callback, error) {
	if cb := o.replayed(ctx, req.Number); cb != nil {
		return cb, nil
	}

	pending, err := o.deps.PendingRepo.GetByNumber(ctx, req.Number)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if pending == nil || pending.Status == domain.PendingStatusCompleted {
		return nil, apperror.ErrDuplicateNumber()
	}
	if pending.Status == domain.PendingStatusExpired {
		return nil, apperror.ErrExpired()
	}

	in, err := o.resolvePending(ctx, pending)
	if err != nil {
		return nil, err
	}
	in.method = domain.PaymentMethod(req.Gateway)
	in.gatewayName = req.Gateway
	in.rawResponse = req.Raw

	// The wallet already captured funds; the "charge" step records the
	// externally-reported capture instead of initiating one.
	capturedAt := time.Now()
	in.charge = func(ctx context.Context, orderID string, amount int64) (ports.ChargeResult, error) {
		return ports.ChargeResult{
			Outcome:   ports.ChargeCaptured,
			PaymentID: req.PaymentID,
			Method:    req.Method,
			Time:      capturedAt,
			Raw:       req.Raw,
		}, nil
	}
	in.cancel = nil

	// Net ledger movement is the wallet-reported amount minus the
	// convenience fee, applied unconditionally: the money has moved
	// whether or not the credit check would have passed.
	debit := req.GrossAmount - in.fee
	if debit < 0 {
		debit = 0
	}
	in.debitAmount = debit
	in.debit = func(ctx context.Context) error {
		_, err := o.deps.UserRepo.AdjustCredit(ctx, in.user.ID, -debit)
		return err
	}

	return o.approve(ctx, in)
}

// CreateFromPreApproved charges a staged transaction using its stored
// card token. Retries after success replay the original payload.
func (o *TransactionOrchestrator) CreateFromPreApproved(ctx context.Context, req ports.PreApprovedRequest) (*domain.Callback, error) {
	if cb := o.replayed(ctx, req.Number); cb != nil {
		return cb, nil
	}

	pending, err := o.deps.PendingRepo.GetByNumber(ctx, req.Number)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if pending == nil {
		return nil, apperror.Validation("unknown transaction number")
	}
	if pending.Status == domain.PendingStatusExpired {
		return nil, apperror.ErrExpired()
	}
	if pending.Status == domain.PendingStatusCompleted {
		// Completed but not in the replay cache anymore: rebuild the
		// success payload from the confirmed record.
		return o.rebuildSuccess(ctx, pending)
	}

	in, err := o.resolvePending(ctx, pending)
	if err != nil {
		return nil, err
	}
	if pending.CardTokenEnc == "" {
		return nil, apperror.ErrNoPaymentCard()
	}
	if err := o.authorize(in.user, in.store, in.total); err != nil {
		return nil, err
	}
	if err := o.attachCardCharge(in, in.user.DefaultCard(), pending.CardTokenEnc); err != nil {
		return nil, err
	}
	return o.approve(ctx, in)
}

// InitPending stages (or refreshes) a prospective purchase.
func (o *TransactionOrchestrator) InitPending(ctx context.Context, req ports.InitPendingRequest) (*domain.PendingTransaction, error) {
	if req.Number == "" || req.Total <= 0 {
		return nil, apperror.Validation("transaction number and positive total are required")
	}
	if req.TerminDuration != domain.TerminDuration14 && req.TerminDuration != domain.TerminDuration30 {
		return nil, apperror.Validation("termin duration must be 14 or 30")
	}
	if len(req.Custom) > domain.MaxCustomFields {
		return nil, apperror.Validation("at most 5 custom fields are allowed")
	}

	store, err := o.deps.StoreRepo.GetByID(ctx, req.StoreID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if store == nil {
		return nil, apperror.ErrStoreNotFound()
	}
	if !store.Active {
		return nil, apperror.ErrStoreInactive()
	}
	merchant, err := o.deps.MerchantRepo.GetByID(ctx, store.MerchantID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if merchant == nil {
		return nil, apperror.ErrStoreNotFound()
	}
	if merchant.Prefix == "" {
		if _, err := assignMerchantPrefix(ctx, o.deps.MerchantRepo, merchant); err != nil {
			return nil, apperror.Internal(err)
		}
	}

	number := domain.PrefixedNumber(merchant.Prefix, req.Number)
	if existing, err := o.deps.TxnRepo.GetByNumber(ctx, number); err != nil {
		return nil, apperror.Internal(err)
	} else if existing != nil {
		return nil, apperror.ErrDuplicateNumber()
	}

	pending := &domain.PendingTransaction{
		ID:             uuid.New(),
		Number:         number,
		Total:          req.Total,
		StoreID:        store.ID,
		TerminDuration: req.TerminDuration,
		Method:         req.Method,
		CustomFields:   req.Custom,
		Status:         domain.PendingStatusPending,
		Pending:        true,
		Reminder: domain.CheckoutReminder{
			Email: req.ReminderEmail,
			Name:  req.ReminderName,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := o.deps.PendingRepo.Upsert(ctx, pending); err != nil {
		return nil, apperror.Internal(err)
	}
	return pending, nil
}

// GetByNumber looks up a confirmed transaction.
func (o *TransactionOrchestrator) GetByNumber(ctx context.Context, number string) (*domain.Transaction, error) {
	txn, err := o.deps.TxnRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return txn, nil
}

// List returns store-scoped confirmed transactions.
func (o *TransactionOrchestrator) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	return o.deps.TxnRepo.List(ctx, params)
}

// --- resolution helpers ---

// resolveCreateInput normalizes the two create forms into one input.
func (o *TransactionOrchestrator) resolveCreateInput(ctx context.Context, req *ports.CreateRequest) (*approveInput, error) {
	mobile := req.MobileNumber

	if req.QR != "" {
		payload, err := o.deps.SigSvc.DecodeQR(req.QR)
		if err != nil {
			return nil, err
		}
		claims, err := o.deps.TokenSvc.Validate(req.Token)
		if err != nil {
			return nil, apperror.ErrTokenInvalid()
		}
		if mobile != "" && mobile != claims.MobileNumber {
			return nil, apperror.ErrNotMobileOwner()
		}
		mobile = claims.MobileNumber
		req.StoreID = payload.StoreID
		req.Amount = payload.Amount
		req.Digest = payload.Digest
		req.Number = payload.Number
		if req.Custom == nil {
			req.Custom = payload.Custom
		}
	}

	if req.StoreID == "" || mobile == "" || req.Amount <= 0 || req.Number == "" {
		return nil, apperror.Validation("store, mobile number, amount and transaction number are required")
	}
	termin := req.TerminDuration
	if termin == 0 {
		termin = domain.TerminDuration30
	}
	if termin != domain.TerminDuration14 && termin != domain.TerminDuration30 {
		return nil, apperror.Validation("termin duration must be 14 or 30")
	}
	if len(req.Custom) > domain.MaxCustomFields {
		return nil, apperror.Validation("at most 5 custom fields are allowed")
	}

	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, apperror.ErrStoreNotFound()
	}
	store, err := o.deps.StoreRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if store == nil {
		return nil, apperror.ErrStoreNotFound()
	}

	merchant, err := o.deps.MerchantRepo.GetByID(ctx, store.MerchantID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if merchant == nil {
		return nil, apperror.ErrStoreNotFound()
	}

	user, err := o.deps.UserRepo.GetByMobileNumber(ctx, mobile)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	number := req.Number
	if req.QR == "" {
		number = domain.PrefixedNumber(merchant.Prefix, req.Number)
	}
	req.Number = number

	total := req.Amount
	fee := merchant.FeeFor(termin)
	return &approveInput{
		user:        user,
		store:       store,
		number:      number,
		total:       total,
		fee:         fee,
		termin:      termin,
		custom:      req.Custom,
		method:      domain.PaymentMethodCard,
		debitAmount: total,
	}, nil
}

// resolvePending loads the user/store/merchant context of a staged
// transaction.
func (o *TransactionOrchestrator) resolvePending(ctx context.Context, pending *domain.PendingTransaction) (*approveInput, error) {
	if pending.UserID == nil {
		return nil, apperror.ErrUserNotFound()
	}
	user, err := o.deps.UserRepo.GetByID(ctx, *pending.UserID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	store, err := o.deps.StoreRepo.GetByID(ctx, pending.StoreID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if store == nil {
		return nil, apperror.ErrStoreNotFound()
	}
	if !store.Active {
		return nil, apperror.ErrStoreInactive()
	}
	merchant, err := o.deps.MerchantRepo.GetByID(ctx, store.MerchantID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if merchant == nil {
		return nil, apperror.ErrStoreNotFound()
	}

	termin := pending.TerminDuration
	if termin == 0 {
		termin = domain.TerminDuration30
	}
	return &approveInput{
		user:        user,
		store:       store,
		number:      pending.Number,
		total:       pending.Total,
		fee:         merchant.FeeFor(termin),
		termin:      termin,
		custom:      pending.CustomFields,
		method:      pending.Method,
		debitAmount: pending.Total,
	}, nil
}

// authorize applies the pre-write checks shared by card flows.
func (o *TransactionOrchestrator) authorize(user *domain.User, store *domain.Store, total int64) error {
	if !store.Active {
		return apperror.ErrStoreInactive()
	}
	if !user.CanTransact() {
		return apperror.ErrUserNotAllowed()
	}
	if total > user.RemainingCredit {
		return apperror.ErrInsufficientCredit()
	}
	return nil
}

// attachCardCharge wires the gateway charge/cancel/debit strategy for a
// card-settled flow. tokenEnc overrides the card's own stored token
// (pre-approved flow).
func (o *TransactionOrchestrator) attachCardCharge(in *approveInput, card *domain.Card, tokenEnc string) error {
	if card == nil {
		return apperror.ErrNoPaymentCard()
	}
	if tokenEnc == "" {
		tokenEnc = card.TokenEnc
	}
	cardToken, err := o.deps.EncSvc.Decrypt(tokenEnc)
	if err != nil {
		return apperror.Internal(fmt.Errorf("decrypting card token: %w", err))
	}
	gateway, err := o.deps.Resolver.For(card.Gateway)
	if err != nil {
		return apperror.ErrThirdParty(err)
	}

	in.gatewayName = gateway.Name()
	in.charge = func(ctx context.Context, orderID string, amount int64) (ports.ChargeResult, error) {
		return gateway.Charge(ctx, ports.ChargeRequest{
			OrderID:   orderID,
			Amount:    amount,
			CardToken: cardToken,
			AuthID:    card.AuthID,
		})
	}
	in.cancel = gateway.Cancel
	in.debit = func(ctx context.Context) error {
		return o.deps.UserRepo.DecrementCredit(ctx, in.user.ID, in.debitAmount)
	}
	return nil
}

// --- the canonical approval sequence ---

// approve runs dedup, schedule, charge, commit and fan-out. It assumes
// authorization already passed.
func (o *TransactionOrchestrator) approve(ctx context.Context, in *approveInput) (*domain.Callback, error) {
	// Fast-path duplicate cutoff. The unique index on the confirmed
	// table is the authority; this only spares the gateway a call when
	// two requests race.
	acquired, err := o.deps.Guard.Acquire(ctx, in.number, chargeGuardTTL)
	if err != nil {
		o.log.Warn().Err(err).Str("number", in.number).Msg("charge guard unavailable, relying on unique index")
	} else if !acquired {
		return nil, apperror.ErrDuplicateNumber()
	}
	// The guard stays held after success so late duplicates
	// short-circuit until the TTL expires; every failure path releases
	// it so the number stays re-attemptable.
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := o.deps.Guard.Release(ctx, in.number); err != nil {
			o.log.Warn().Err(err).Str("number", in.number).Msg("releasing charge guard failed")
		}
	}

	if existing, err := o.deps.TxnRepo.GetByNumber(ctx, in.number); err != nil {
		release()
		return nil, apperror.Internal(err)
	} else if existing != nil {
		release()
		return nil, apperror.ErrDuplicateNumber()
	}

	// Build and stage the schedule before charging, so a crash between
	// here and commit leaves no confirmed record.
	terms, err := o.deps.Schedule.Build(ctx, ports.ScheduleRequest{
		Number:         in.number,
		Total:          in.total,
		TerminDuration: in.termin,
		Now:            time.Now(),
	})
	if err != nil {
		release()
		return nil, err
	}

	bucket := &domain.Transaction{
		ID:             uuid.New(),
		Number:         in.number,
		Total:          in.total,
		ConvenienceFee: in.fee,
		TerminDuration: in.termin,
		Terms:          terms,
		Status:         domain.TransactionStatusCreated,
		UserID:         in.user.ID,
		StoreID:        in.store.ID,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := o.stagePending(ctx, in, bucket); err != nil {
		release()
		return nil, apperror.Internal(err)
	}

	// Charge term 1 (plus the convenience fee).
	orderID := domain.PaymentOrderID(in.number, 1)
	chargeAmount := terms[0].Amount + in.fee
	result, err := in.charge(ctx, orderID, chargeAmount)
	if err != nil || !result.Captured() {
		release()
		if len(result.Raw) > 0 {
			if serr := o.deps.PendingRepo.SetGatewayResponse(ctx, in.number, result.Raw); serr != nil {
				o.log.Warn().Err(serr).Str("number", in.number).Msg("saving gateway response failed")
			}
		}
		reason := result.Reason
		if err != nil {
			reason = err.Error()
		}
		o.log.Info().
			Str("number", in.number).
			Str("gateway", string(in.gatewayName)).
			Str("reason", reason).
			Msg("first installment charge failed")
		failErr := apperror.ErrChargeFailed(fmt.Errorf("%s", reason))
		o.dispatch(in, nil, domain.StatusChargeFailed)
		return nil, failErr
	}

	now := time.Now()
	bucket.Terms[0].Payment = domain.TermPayment{
		Paid:       true,
		StatusCode: domain.StatusSuccess,
		Date:       &now,
		Method:     result.Method,
		Gateway:    in.gatewayName,
		PaymentID:  result.PaymentID,
		OrderID:    orderID,
	}
	bucket.Status = domain.TransactionStatusInProgress
	if len(result.Raw) > 0 {
		in.rawResponse = result.Raw
	}

	// Commit: atomic conditional insert keyed by the unique number,
	// plus the pending-row transition, in one database transaction.
	if err := o.commit(ctx, in, bucket); err != nil {
		release()
		if errors.Is(err, ports.ErrDuplicateNumber) {
			// A concurrent request won the insert; undo our charge.
			o.compensateCharge(ctx, in, orderID)
			return nil, apperror.ErrDuplicateNumber()
		}
		o.compensateCharge(ctx, in, orderID)
		return nil, apperror.Internal(err)
	}

	// Decrement the user's credit. On failure, reverse the charge and
	// remove the record we just committed: the one hard consistency
	// guarantee beyond at-most-one-charge-per-number.
	if err := in.debit(ctx); err != nil {
		release()
		o.compensateCharge(ctx, in, orderID)
		if derr := o.deps.TxnRepo.DeleteByNumber(ctx, in.number); derr != nil {
			o.log.Error().Err(derr).Str("number", in.number).Msg("compensating delete failed, manual reconciliation required")
		}
		if errors.Is(err, ports.ErrInsufficientCredit) {
			return nil, apperror.ErrInsufficientCredit()
		}
		return nil, apperror.Internal(err)
	}
	// Wallet debits clamp at zero in the store, so the reported balance
	// must clamp too.
	remaining := in.user.RemainingCredit - in.debitAmount
	if remaining < 0 {
		remaining = 0
	}

	o.log.Info().
		Str("number", in.number).
		Str("user", in.user.ID.String()).
		Int64("total", in.total).
		Int64("charged", chargeAmount).
		Str("gateway", string(in.gatewayName)).
		Msg("transaction committed")

	// Post-commit side effects: best-effort, never fail the operation.
	o.writePaymentLog(ctx, in, bucket, result, orderID, chargeAmount, remaining)
	voucher := o.grantFirstVoucher(ctx, in.user)

	cb := domain.NewCallback(in.number, domain.StatusSuccess)
	cb.TransactionID = bucket.ID.String()
	cb.Custom = in.custom
	gross := in.total
	cb.GrossAmount = &gross
	cb.RemainingCredit = &remaining
	cb.UserID = in.user.ID.String()

	if raw, err := json.Marshal(cb); err == nil {
		if rerr := o.deps.Replay.Set(ctx, in.number, raw, replayTTL); rerr != nil {
			o.log.Warn().Err(rerr).Str("number", in.number).Msg("caching replay payload failed")
		}
	}

	o.dispatchSuccess(in, bucket, remaining, voucher)
	return &cb, nil
}

// stagePending makes sure a pending row exists and carries the built
// schedule before any money moves.
func (o *TransactionOrchestrator) stagePending(ctx context.Context, in *approveInput, bucket *domain.Transaction) error {
	pending, err := o.deps.PendingRepo.GetByNumber(ctx, in.number)
	if err != nil {
		return err
	}
	if pending == nil {
		userID := in.user.ID
		pending = &domain.PendingTransaction{
			ID:             uuid.New(),
			Number:         in.number,
			Total:          in.total,
			UserID:         &userID,
			StoreID:        in.store.ID,
			TerminDuration: in.termin,
			Method:         in.method,
			CustomFields:   in.custom,
			Status:         domain.PendingStatusPending,
			Pending:        true,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		if err := o.deps.PendingRepo.Upsert(ctx, pending); err != nil {
			return err
		}
	}
	return o.deps.PendingRepo.StageBucket(ctx, in.number, bucket)
}

// commit inserts the confirmed record and completes the pending row
// atomically.
func (o *TransactionOrchestrator) commit(ctx context.Context, in *approveInput, bucket *domain.Transaction) error {
	tx, err := o.deps.Transactor.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := o.deps.TxnRepo.Create(ctx, tx, bucket); err != nil {
		return err
	}
	if err := o.deps.PendingRepo.MarkCompleted(ctx, tx, in.number); err != nil {
		return err
	}
	if len(in.rawResponse) > 0 {
		if err := o.deps.PendingRepo.SetGatewayResponse(ctx, in.number, in.rawResponse); err != nil {
			o.log.Warn().Err(err).Str("number", in.number).Msg("saving gateway response failed")
		}
	}
	return tx.Commit(ctx)
}

// compensateCharge reverses a captured first-term charge where the
// provider supports it.
func (o *TransactionOrchestrator) compensateCharge(ctx context.Context, in *approveInput, orderID string) {
	if in.cancel == nil {
		o.log.Error().
			Str("number", in.number).
			Str("order_id", orderID).
			Msg("captured externally, cannot reverse, manual reconciliation required")
		return
	}
	if err := in.cancel(ctx, orderID); err != nil {
		o.log.Error().Err(err).
			Str("number", in.number).
			Str("order_id", orderID).
			Msg("charge reversal failed, manual reconciliation required")
		return
	}
	o.log.Info().Str("number", in.number).Str("order_id", orderID).Msg("charge reversed")
}

func (o *TransactionOrchestrator) writePaymentLog(
	ctx context.Context,
	in *approveInput,
	bucket *domain.Transaction,
	result ports.ChargeResult,
	orderID string,
	chargeAmount, remaining int64,
) {
	entry := &domain.PaymentLog{
		ID:              uuid.New(),
		UserID:          in.user.ID,
		StoreID:         in.store.ID,
		Gateway:         in.gatewayName,
		PaymentID:       result.PaymentID,
		OrderID:         orderID,
		Type:            domain.PaymentLogFirstCharge,
		GrossAmount:     chargeAmount,
		RemainingCredit: remaining,
		Detail:          result.Raw,
		CreatedAt:       time.Now(),
	}
	if err := o.deps.LogRepo.Create(ctx, entry); err != nil {
		o.log.Warn().Err(err).Str("number", bucket.Number).Msg("writing payment log failed")
	}
}

// grantFirstVoucher issues a welcome voucher on a user's first
// confirmed transaction.
func (o *TransactionOrchestrator) grantFirstVoucher(ctx context.Context, user *domain.User) *domain.Voucher {
	count, err := o.deps.UserRepo.CountTransactions(ctx, user.ID)
	if err != nil || count != 1 {
		return nil
	}
	existing, err := o.deps.VoucherRepo.CountByUser(ctx, user.ID)
	if err != nil || existing > 0 {
		return nil
	}
	voucher := &domain.Voucher{
		ID:        uuid.New(),
		Code:      fmt.Sprintf("WELCOME-%06d", rand.Intn(1000000)),
		UserID:    user.ID,
		Amount:    firstVoucherAmt,
		ExpiresAt: time.Now().AddDate(0, 1, 0),
		CreatedAt: time.Now(),
	}
	if err := o.deps.VoucherRepo.Create(ctx, voucher); err != nil {
		o.log.Warn().Err(err).Str("user", user.ID.String()).Msg("granting first-transaction voucher failed")
		return nil
	}
	return voucher
}

func (o *TransactionOrchestrator) dispatchSuccess(in *approveInput, bucket *domain.Transaction, remaining int64, voucher *domain.Voucher) {
	outcome := ports.TransactionOutcome{
		Transaction:     bucket,
		Store:           in.store,
		User:            in.user,
		Number:          in.number,
		Code:            domain.StatusSuccess,
		GrossAmount:     in.total,
		RemainingCredit: remaining,
		Custom:          in.custom,
		Voucher:         voucher,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
		defer cancel()
		o.deps.Notifier.Dispatch(ctx, outcome)
	}()
}

// dispatch fans out a failed attempt so merchants and users hear about
// it through the same channels as successes.
func (o *TransactionOrchestrator) dispatch(in *approveInput, bucket *domain.Transaction, code domain.StatusCode) {
	outcome := ports.TransactionOutcome{
		Transaction: bucket,
		Store:       in.store,
		User:        in.user,
		Number:      in.number,
		Code:        code,
		Custom:      in.custom,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
		defer cancel()
		o.deps.Notifier.Dispatch(ctx, outcome)
	}()
}

// replayed answers a repeated request with the cached success payload.
func (o *TransactionOrchestrator) replayed(ctx context.Context, number string) *domain.Callback {
	raw, err := o.deps.Replay.Get(ctx, number)
	if err != nil || raw == nil {
		return nil
	}
	var cb domain.Callback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil
	}
	o.log.Info().Str("number", number).Msg("replaying cached success payload")
	return &cb
}

// rebuildSuccess reconstructs the success payload for an already
// completed pending transaction whose replay entry expired.
func (o *TransactionOrchestrator) rebuildSuccess(ctx context.Context, pending *domain.PendingTransaction) (*domain.Callback, error) {
	txn, err := o.deps.TxnRepo.GetByNumber(ctx, pending.Number)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if txn == nil {
		return nil, apperror.ErrDuplicateNumber()
	}
	cb := domain.NewCallback(txn.Number, domain.StatusSuccess)
	cb.TransactionID = txn.ID.String()
	cb.Custom = pending.CustomFields
	gross := txn.Total
	cb.GrossAmount = &gross
	cb.UserID = txn.UserID.String()
	return &cb, nil
}
