package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrUpstream           = New("UPSTREAM_UNAVAILABLE", http.StatusBadGateway, "external service unavailable")
	ErrAIUnavailable      = New("AI_UNAVAILABLE", http.StatusBadGateway, "analysis service unavailable")
	ErrInvalidSignature   = New("INVALID_SIGNATURE", http.StatusForbidden, "invalid signature")
	ErrOTPExpired         = New("OTP_EXPIRED", http.StatusBadRequest, "verification code expired")
	ErrOTPInvalid         = New("OTP_INVALID", http.StatusBadRequest, "invalid verification code")
	ErrOTPAttempts        = New("OTP_ATTEMPTS_EXCEEDED", http.StatusTooManyRequests, "too many incorrect codes, request a new one")
)

// Submission verification outcomes. Each is surfaced to respondents verbatim.
var (
	ErrUserNotFound         = New("USER_NOT_FOUND", http.StatusNotFound, "User not found.")
	ErrSurveyNotFound       = New("SURVEY_NOT_FOUND", http.StatusNotFound, "Survey not found or link mismatch.")
	ErrMissingSheetLink     = New("MISSING_SHEET_LINK", http.StatusUnprocessableEntity, "Survey is missing sheet link.")
	ErrInvalidStartTime     = New("INVALID_START_TIME", http.StatusBadRequest, "Invalid start time format.")
	ErrMalformedDuration    = New("MALFORMED_DURATION", http.StatusUnprocessableEntity, "Invalid survey duration format.")
	ErrTooFast              = New("TOO_FAST", http.StatusUnprocessableEntity, "You completed the survey too quickly.")
	ErrNoEntries            = New("NO_ENTRIES", http.StatusUnprocessableEntity, "No entries found in the response sheet.")
	ErrUnparseableTimestamp = New("UNPARSEABLE_TIMESTAMP", http.StatusUnprocessableEntity, "Could not parse the timestamp of your entry.")
	ErrNoFreshEntry         = New("NO_FRESH_ENTRY", http.StatusUnprocessableEntity, "We couldn't find a new entry for your email after you started the survey.")
	ErrAlreadyRewarded      = New("ALREADY_REWARDED", http.StatusConflict, "This submission has already been rewarded.")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
