package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// Business-rule errors: expected, recoverable outcomes surfaced to the
// caller. Never logged as failures.

func ErrInsufficientEnergy() *AppError {
	return &AppError{Code: "INSUFFICIENT_ENERGY", Message: "not enough energy", Status: 400}
}

func ErrPreviousNotClaimed() *AppError {
	return &AppError{Code: "PREVIOUS_NOT_CLAIMED", Message: "previous milestone in group not claimed", Status: 409}
}

func ErrAlreadyClaimed() *AppError {
	return &AppError{Code: "ALREADY_CLAIMED", Message: "milestone already claimed", Status: 409}
}

func ErrNotReached() *AppError {
	return &AppError{Code: "NOT_REACHED", Message: "milestone target not reached", Status: 409}
}

// ErrRetry signals that optimistic-concurrency retries were exhausted.
// Transient: the caller may safely retry the request.
func ErrRetry() *AppError {
	return &AppError{Code: "RETRY", Message: "concurrent update, please retry", Status: 409}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: msg, Status: 429}
}
