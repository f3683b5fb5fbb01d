package apperror

import (
	"errors"
	"net/http"
)

// Error codes returned in the response envelope.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeUserExists      = "USER_EXISTS"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeNoFacesDetected = "NO_FACES_DETECTED"
	CodeNoFaces         = "NO_FACES"
	CodeNotReady        = "NOT_READY"
	CodeImageNotFound   = "IMAGE_NOT_FOUND"
	CodeInternal        = "INTERNAL_ERROR"
)

// Error is a client-facing failure carrying its envelope code and HTTP status.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func New(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func Validation(message string) *Error {
	return New(http.StatusBadRequest, CodeValidation, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden() *Error {
	return New(http.StatusForbidden, CodeForbidden, "Access denied")
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

func BadRequest(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, CodeInternal, message)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
