package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"installment-platform/internal/core/domain"
	"installment-platform/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFailRendersCallbackShape(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Fail(c, "TOKO.INV9", map[string]string{"cart": "1"}, apperror.ErrInsufficientCredit())

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "203", body["status_code"])
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "INV9", body["transaction_number"])
	assert.Equal(t, "1", body["cart"])
}

func TestFailUnknownErrorMapsToUnexpected(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Fail(c, "N", nil, errors.New("boom"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "210", body["status_code"])
}

func TestErrorUsesAppErrorHTTPStatus(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, apperror.Validation("total is required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.StatusInvalidParameter, body.StatusCode)
	assert.Equal(t, "total is required", body.Message)
}

func TestCallbackAlwaysHTTP200(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	cb := domain.NewCallback("TOKO.A1", domain.StatusSuccess)
	Callback(c, cb)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "200", body["status_code"])
	assert.Equal(t, true, body["success"])
}
