package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Engine (LED) ----

// ErrInvalidDirection is a caller error: direction is not CREDIT or DEBIT.
func ErrInvalidDirection(direction string) *AppError {
	return New("LED_001", fmt.Sprintf("Invalid mutation direction: %s", direction), http.StatusBadRequest)
}

// ErrInsufficientBalance is the expected business rejection when a debit
// would drive the wallet balance negative. The ledger is left unchanged.
func ErrInsufficientBalance() *AppError {
	return New("LED_002", "Insufficient wallet balance", http.StatusUnprocessableEntity)
}

// ---- Wallets (WAL) ----

func ErrWalletNotFound() *AppError {
	return New("WAL_001", "Wallet not found", http.StatusNotFound)
}

func ErrSameWalletTransfer() *AppError {
	return New("WAL_002", "Cannot transfer to the same wallet", http.StatusBadRequest)
}

// ---- Debts (DBT) ----

func ErrDebtNotFound() *AppError {
	return New("DBT_001", "Debt not found", http.StatusNotFound)
}

func ErrPaymentExceedsRemaining() *AppError {
	return New("DBT_002", "Payment amount exceeds remaining debt", http.StatusUnprocessableEntity)
}

func ErrDebtAlreadyPaid() *AppError {
	return New("DBT_003", "Debt has already been fully paid", http.StatusConflict)
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be a non-negative value", http.StatusBadRequest)
}

// Validation returns a VAL_002 error carrying a request-specific message.
func Validation(message string) *AppError {
	return New("VAL_002", message, http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("VAL_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Identity (IDN) ----

func ErrInvalidToken() *AppError {
	return New("IDN_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrLockTimeout marks a lock-wait failure as transient; the caller may
// retry the whole business operation.
func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}
