package handler

import (
	"bytes"
	"io"

	"installment-platform/internal/adapter/http/dto"
	"installment-platform/internal/core/ports"
	"installment-platform/pkg/apperror"
	"installment-platform/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Callback-rule headers. Merchants may send either header multiple
// times; each value is one callback URL.
const (
	HeaderOverrideNotification = "x-override-notification"
	HeaderAppendNotification   = "x-append-notification"
)

// QRHandler handles store QR generation.
type QRHandler struct {
	qrSvc ports.QRService
}

// NewQRHandler creates a new QRHandler.
func NewQRHandler(qrSvc ports.QRService) *QRHandler {
	return &QRHandler{qrSvc: qrSvc}
}

// Generate handles POST /api/v1/stores/:store_id/qr. Extra top-level
// string keys in the body become merchant custom fields carried inside
// the QR payload.
func (h *QRHandler) Generate(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		response.Error(c, apperror.Validation("store_id must be a UUID"))
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, apperror.Validation("reading request body: "+err.Error()))
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	var req dto.GenerateQRRequest
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

	result, err := h.qrSvc.Generate(c.Request.Context(), ports.GenerateQRRequest{
		StoreID:  storeID,
		Amount:   req.Amount,
		Number:   req.Number,
		Custom:   custom,
		Override: c.Request.Header.Values(HeaderOverrideNotification),
		Append:   c.Request.Header.Values(HeaderAppendNotification),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.GenerateQRResponse{
		Number:  result.Number,
		Digest:  result.Digest,
		Payload: result.Payload,
		PNG:     result.PNG,
	})
}
