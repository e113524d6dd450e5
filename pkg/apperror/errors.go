package apperror

import (
	"fmt"
	"net/http"

	"installment-platform/internal/core/domain"
)

// AppError carries a merchant status code through the service layer so
// handlers can render the legacy callback body for any failure.
type AppError struct {
	Status     domain.StatusCode
	Message    string
	HTTPStatus int
	Err        error // wrapped internal error, never exposed to callers
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Status.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Status.Code(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with the canonical message for the code.
// Nearly every flow answers HTTP 200 with the status code in the body;
// merchant integrations parse the body, not the HTTP status.
func New(status domain.StatusCode) *AppError {
	return &AppError{
		Status:     status,
		Message:    status.Message(),
		HTTPStatus: http.StatusOK,
	}
}

// Wrap attaches an internal cause to a status code.
func Wrap(status domain.StatusCode, err error) *AppError {
	e := New(status)
	e.Err = err
	return e
}

func ErrOTPInvalid() *AppError         { return New(domain.StatusOTPInvalid) }
func ErrDuplicateNumber() *AppError    { return New(domain.StatusDuplicateNumber) }
func ErrInsufficientCredit() *AppError { return New(domain.StatusInsufficientCredit) }
func ErrSignatureInvalid() *AppError   { return New(domain.StatusSignatureInvalid) }
func ErrUserNotAllowed() *AppError     { return New(domain.StatusUserNotAllowed) }
func ErrUserNotFound() *AppError       { return New(domain.StatusUserNotFound) }
func ErrStoreNotFound() *AppError      { return New(domain.StatusStoreNotFound) }
func ErrNoPaymentCard() *AppError      { return New(domain.StatusNoPaymentCard) }
func ErrStoreInactive() *AppError      { return New(domain.StatusStoreInactive) }
func ErrTokenInvalid() *AppError       { return New(domain.StatusTokenInvalid) }
func ErrNotMobileOwner() *AppError     { return New(domain.StatusNotMobileOwner) }
func ErrExpired() *AppError            { return New(domain.StatusExpired) }

// ErrChargeFailed reports a gateway decline or network failure. The
// decline reason stays in the wrapped error for logs only.
func ErrChargeFailed(err error) *AppError {
	return Wrap(domain.StatusChargeFailed, err)
}

// ErrThirdParty reports a non-charge third-party failure.
func ErrThirdParty(err error) *AppError {
	return Wrap(domain.StatusThirdParty, err)
}

// Validation reports a malformed request with a caller-visible detail.
func Validation(message string) *AppError {
	e := New(domain.StatusInvalidParameter)
	e.Message = message
	e.HTTPStatus = http.StatusBadRequest
	return e
}

// Internal maps any unexpected failure to the catch-all code.
func Internal(err error) *AppError {
	return Wrap(domain.StatusUnexpected, err)
}
