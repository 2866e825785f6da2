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

// ---- Input Validation (VAL) ----

func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrMissingFields(fields string) *AppError {
	return New("VAL_002", fmt.Sprintf("Missing required fields: %s", fields), http.StatusBadRequest)
}

// ---- Resource Catalog (RES) ----

func ErrResourceNotFound() *AppError {
	return New("RES_001", "Resource not found", http.StatusNotFound)
}

func ErrResourceInactive() *AppError {
	return New("RES_002", "Resource is not active", http.StatusNotFound)
}

// ---- Custodial Wallet (WAL) ----

// ErrWalletDecryption covers integrity-tag failures and passphrase mismatches
// on an existing wallet record. Never treated as "create a new wallet": funds
// may already sit at the stored address.
func ErrWalletDecryption(err error) *AppError {
	return Wrap("WAL_001", "Wallet key decryption failed", http.StatusInternalServerError, err)
}

func ErrWalletProvisioning(err error) *AppError {
	return Wrap("WAL_002", "Wallet provisioning failed", http.StatusInternalServerError, err)
}

// ---- Payment Challenge (PAY) ----

func ErrPaymentChallenge(cause string) *AppError {
	return New("PAY_001", cause, http.StatusInternalServerError)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_002", "Encryption service failure", http.StatusInternalServerError, err)
}

func ErrChainUnavailable(err error) *AppError {
	return Wrap("SYS_003", "Chain RPC unavailable", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
