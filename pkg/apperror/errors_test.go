package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("LED_002", "Insufficient wallet balance", http.StatusUnprocessableEntity)
	assert.Equal(t, "[LED_002] Insufficient wallet balance", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("boom"))
	assert.Equal(t, "[SYS_001] Internal server error: boom", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("deadlock detected")
	e := ErrLockTimeout(inner)

	require.ErrorIs(t, e, inner)
	assert.Equal(t, http.StatusServiceUnavailable, e.HTTPStatus)
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrInvalidDirection("SIDEWAYS"), "LED_001", http.StatusBadRequest},
		{ErrInsufficientBalance(), "LED_002", http.StatusUnprocessableEntity},
		{ErrWalletNotFound(), "WAL_001", http.StatusNotFound},
		{ErrSameWalletTransfer(), "WAL_002", http.StatusBadRequest},
		{ErrDebtNotFound(), "DBT_001", http.StatusNotFound},
		{ErrPaymentExceedsRemaining(), "DBT_002", http.StatusUnprocessableEntity},
		{ErrDebtAlreadyPaid(), "DBT_003", http.StatusConflict},
		{ErrInvalidAmount(), "VAL_001", http.StatusBadRequest},
		{ErrInvalidToken(), "IDN_001", http.StatusUnauthorized},
		{ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
		{InternalError(errors.New("x")), "SYS_001", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestErrorAs(t *testing.T) {
	var appErr *AppError
	err := fmt.Errorf("handling request: %w", ErrWalletNotFound())

	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)
}
