package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"installment-platform/internal/adapter/http/dto"
	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"
	"installment-platform/pkg/apperror"
	"installment-platform/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles transaction endpoints.
type TransactionHandler struct {
	txnSvc ports.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txnSvc ports.TransactionService) *TransactionHandler {
	return &TransactionHandler{txnSvc: txnSvc}
}

// Create handles POST /api/v1/transactions. The body carries either the
// QR payload plus the user token, or the explicit store/amount/digest
// tuple. Extra top-level string keys become merchant custom fields, so
// the body is read raw before binding.
func (h *TransactionHandler) Create(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, apperror.Validation("reading request body: "+err.Error()))
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	custom, err := dto.ExtractCustomFields(raw)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	cb, err := h.txnSvc.Create(c.Request.Context(), ports.CreateRequest{
		QR:             req.QR,
		Token:          req.Token,
		StoreID:        req.StoreID,
		MobileNumber:   req.MobileNumber,
		Amount:         req.Amount,
		Number:         req.Number,
		Digest:         req.Digest,
		OTP:            req.OTP,
		TerminDuration: req.TerminDuration,
		Custom:         custom,
	})
	if err != nil {
		response.Fail(c, req.Number, custom, err)
		return
	}

	response.Callback(c, *cb)
}

// WalletCallback handles POST /api/v1/transactions/callback/:gateway for
// the wallet providers. The money already moved on the provider side;
// this records the capture against the staged transaction.
func (h *TransactionHandler) WalletCallback(c *gin.Context) {
	gateway := domain.Gateway(c.Param("gateway"))
	if gateway != domain.GatewayDana && gateway != domain.GatewayGopay {
		response.Error(c, apperror.Validation("unsupported wallet gateway"))
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, apperror.Validation("reading request body: "+err.Error()))
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	var req dto.WalletCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	cb, err := h.txnSvc.WalletCallback(c.Request.Context(), ports.WalletCallbackRequest{
		Number:      req.Number,
		Gateway:     gateway,
		GrossAmount: req.GrossAmount,
		PaymentID:   req.PaymentID,
		Method:      req.Method,
		Raw:         raw,
	})
	if err != nil {
		response.Fail(c, req.Number, nil, err)
		return
	}

	response.Callback(c, *cb)
}

// PreApproved handles POST /api/v1/transactions/pre-approved: approve a
// staged transaction with its stored card token.
func (h *TransactionHandler) PreApproved(c *gin.Context) {
	var req dto.PreApprovedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	cb, err := h.txnSvc.CreateFromPreApproved(c.Request.Context(), ports.PreApprovedRequest{
		Number: req.Number,
	})
	if err != nil {
		response.Fail(c, req.Number, nil, err)
		return
	}

	response.Callback(c, *cb)
}

// InitPending handles POST /api/v1/transactions/init: stage or refresh a
// prospective purchase before approval.
func (h *TransactionHandler) InitPending(c *gin.Context) {
	var req dto.InitPendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		response.Error(c, apperror.Validation("store_id must be a UUID"))
		return
	}

	pending, err := h.txnSvc.InitPending(c.Request.Context(), ports.InitPendingRequest{
		Number:         req.Number,
		StoreID:        storeID,
		Total:          req.Total,
		TerminDuration: req.TerminDuration,
		Method:         domain.PaymentMethod(req.Method),
		Custom:         req.Custom,
		ReminderEmail:  req.ReminderEmail,
		ReminderName:   req.ReminderName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, pending)
}

// GetByNumber handles GET /api/v1/transactions/:number.
func (h *TransactionHandler) GetByNumber(c *gin.Context) {
	txn, err := h.txnSvc.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if txn == nil {
		notFound := apperror.Validation("unknown transaction number")
		notFound.HTTPStatus = http.StatusNotFound
		response.Error(c, notFound)
		return
	}

	response.OK(c, txn)
}

// List handles GET /api/v1/transactions: store-scoped listing with
// optional status and date filters.
func (h *TransactionHandler) List(c *gin.Context) {
	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		response.Error(c, apperror.Validation("store_id must be a UUID"))
		return
	}

	params := ports.TransactionListParams{
		StoreID:  storeID,
		Page:     1,
		PageSize: 20,
	}

	if raw := c.Query("status"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperror.Validation("status must be numeric"))
			return
		}
		status := domain.TransactionStatus(n)
		params.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apperror.Validation("from must be RFC3339"))
			return
		}
		params.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apperror.Validation("to must be RFC3339"))
			return
		}
		params.To = &to
	}
	if raw := c.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			params.Page = n
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			params.PageSize = n
		}
	}

	txns, total, err := h.txnSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TransactionListResponse{
		Transactions: txns,
		Total:        total,
		Page:         params.Page,
		PageSize:     params.PageSize,
	})
}
