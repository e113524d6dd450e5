package apperror

import (
	"errors"
	"net/http"
	"testing"

	"installment-platform/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCanonicalMessage(t *testing.T) {
	e := ErrInsufficientCredit()
	assert.Equal(t, domain.StatusInsufficientCredit, e.Status)
	assert.Equal(t, "Insufficient user balance", e.Message)
	assert.Equal(t, http.StatusOK, e.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	e := ErrChargeFailed(cause)

	assert.Equal(t, domain.StatusChargeFailed, e.Status)
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "206")
	assert.Contains(t, e.Error(), "connection refused")
}

func TestValidationOverridesMessage(t *testing.T) {
	e := Validation("total is required")
	assert.Equal(t, domain.StatusInvalidParameter, e.Status)
	assert.Equal(t, "total is required", e.Message)
	assert.Equal(t, http.StatusBadRequest, e.HTTPStatus)
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	var appErr *AppError
	wrapped := Internal(errors.New("boom"))
	require.True(t, errors.As(error(wrapped), &appErr))
	assert.Equal(t, domain.StatusUnexpected, appErr.Status)
}
