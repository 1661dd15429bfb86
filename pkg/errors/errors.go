package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents gateway-specific error codes
type ErrorCode string

const (
	// Connection-level errors
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrCodeInvalidToken    ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenRevoked    ErrorCode = "TOKEN_REVOKED"

	// Room membership errors
	ErrCodeNotInRoom     ErrorCode = "NOT_IN_ROOM"
	ErrCodeAlreadyMember ErrorCode = "ALREADY_MEMBER"
	ErrCodeNotMember     ErrorCode = "NOT_MEMBER"
	ErrCodeWrongPassword ErrorCode = "WRONG_PASSWORD"

	// Message errors
	ErrCodeEmptyContent   ErrorCode = "EMPTY_CONTENT"
	ErrCodeContentTooLong ErrorCode = "CONTENT_TOO_LONG"

	// Call signaling errors
	ErrCodeInvalidCallState ErrorCode = "INVALID_CALL_STATE"

	// Validation and internal errors
	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"
	ErrCodeUnknownCommand ErrorCode = "UNKNOWN_COMMAND"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
	ErrCodeStorage        ErrorCode = "STORAGE_ERROR"
)

// AppError represents a structured gateway error with code and message
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface, returning a formatted error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the given code and message
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewWithStatus creates a new AppError with a specific HTTP status code
func NewWithStatus(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an existing error with an AppError, preserving the original error
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// Connection-level errors

func UnauthenticatedError(message string) *AppError {
	return NewWithStatus(ErrCodeUnauthenticated, message, http.StatusUnauthorized)
}

func InvalidTokenError(message string) *AppError {
	return NewWithStatus(ErrCodeInvalidToken, message, http.StatusUnauthorized)
}

func TokenRevokedError() *AppError {
	return NewWithStatus(ErrCodeTokenRevoked, "Token revoked", http.StatusUnauthorized)
}

// Room membership errors

func NotInRoomError(roomID string) *AppError {
	return NewWithStatus(ErrCodeNotInRoom, fmt.Sprintf("Not in room %s", roomID), http.StatusForbidden)
}

func AlreadyMemberError(roomID string) *AppError {
	return NewWithStatus(ErrCodeAlreadyMember, fmt.Sprintf("Already a member of room %s", roomID), http.StatusConflict)
}

func NotMemberError(roomID string) *AppError {
	return NewWithStatus(ErrCodeNotMember, fmt.Sprintf("Not a member of room %s", roomID), http.StatusConflict)
}

func WrongPasswordError() *AppError {
	return NewWithStatus(ErrCodeWrongPassword, "Incorrect room password", http.StatusForbidden)
}

// Message errors

func EmptyContentError() *AppError {
	return NewWithStatus(ErrCodeEmptyContent, "Message content cannot be empty", http.StatusBadRequest)
}

func ContentTooLongError(limit int) *AppError {
	return NewWithStatus(ErrCodeContentTooLong, fmt.Sprintf("Message content exceeds %d characters", limit), http.StatusBadRequest)
}

// Call signaling errors

func InvalidCallStateError(message string) *AppError {
	return NewWithStatus(ErrCodeInvalidCallState, message, http.StatusConflict)
}

// Validation and internal errors

func InvalidPayloadError(event string) *AppError {
	return NewWithStatus(ErrCodeInvalidPayload, fmt.Sprintf("Invalid payload for %s", event), http.StatusBadRequest)
}

func UnknownCommandError(event string) *AppError {
	return NewWithStatus(ErrCodeUnknownCommand, fmt.Sprintf("Unknown command %s", event), http.StatusBadRequest)
}

func InternalError(message string) *AppError {
	return NewWithStatus(ErrCodeInternal, message, http.StatusInternalServerError)
}

func StorageError(err error) *AppError {
	return Wrap(ErrCodeStorage, "Storage error", err)
}

// IsAppError checks if an error is an AppError type
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts AppError from an error, wrapping non-AppErrors as InternalError
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return InternalError(err.Error())
}
