package postgres

import (
	"context"
	"testing"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(userID, storeID uuid.UUID) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Transaction{
		ID:             uuid.New(),
		Number:         "T.INV001",
		Total:          40000,
		ConvenienceFee: 25000,
		TerminDuration: domain.TerminDuration30,
		Terms: []domain.Term{
			{Number: 1, Amount: 10000, DueDate: now, Payment: domain.TermPayment{Paid: true, StatusCode: domain.StatusSuccess}},
			{Number: 2, Amount: 10000, DueDate: now.AddDate(0, 1, 0), Payment: domain.TermPayment{PaymentID: "VA-1", Method: "vabni"}},
			{Number: 3, Amount: 10000, DueDate: now.AddDate(0, 2, 0), Payment: domain.TermPayment{PaymentID: "VA-2", Method: "vabni"}},
			{Number: 4, Amount: 10000, DueDate: now.AddDate(0, 3, 0), Payment: domain.TermPayment{PaymentID: "VA-3", Method: "vabni"}},
		},
		Status:    domain.TransactionStatusInProgress,
		UserID:    userID,
		StoreID:   storeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func txColumns() []string {
	return []string{"id", "transaction_number", "total", "convenience_fee", "termin_duration",
		"terms", "status", "user_id", "store_id", "voucher_id", "created_at", "updated_at"}
}

func txRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(txColumns()).AddRow(
		t.ID, t.Number, t.Total, t.ConvenienceFee, t.TerminDuration,
		t.Terms, t.Status, t.UserID, t.StoreID, t.VoucherID,
		t.CreatedAt, t.UpdatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(
			txn.ID, txn.Number, txn.Total, txn.ConvenienceFee, txn.TerminDuration,
			txn.Terms, txn.Status, txn.UserID, txn.StoreID, txn.VoucherID,
			txn.CreatedAt, txn.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), dbTx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Create_DuplicateNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(
			txn.ID, txn.Number, txn.Total, txn.ConvenienceFee, txn.TerminDuration,
			txn.Terms, txn.Status, txn.UserID, txn.StoreID, txn.VoucherID,
			txn.CreatedAt, txn.UpdatedAt,
		).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "transactions_transaction_number_key"})

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), dbTx, txn)
	assert.ErrorIs(t, err, ports.ErrDuplicateNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), uuid.New())

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE transaction_number").
		WithArgs(txn.Number).
		WillReturnRows(txRow(txn))

	result, err := repo.GetByNumber(context.Background(), txn.Number)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.Equal(t, txn.Number, result.Number)
	assert.Len(t, result.Terms, domain.TermCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByNumber_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE transaction_number").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(txColumns()))

	result, err := repo.GetByNumber(context.Background(), "T.MISSING")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_DeleteByNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectExec("DELETE FROM transactions").
		WithArgs("T.INV001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.DeleteByNumber(context.Background(), "T.INV001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	storeID := uuid.New()
	txn := newTestTransaction(uuid.New(), storeID)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(storeID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE store_id").
		WithArgs(storeID, 20, 0).
		WillReturnRows(txRow(txn))

	results, total, err := repo.List(context.Background(), ports.TransactionListParams{
		StoreID:  storeID,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, txn.Number, results[0].Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}
