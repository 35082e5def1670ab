package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the failure taxonomy. Handlers map these onto HTTP
// statuses; services never import net/http semantics beyond the status
// carried here.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeExtractionError    = "EXTRACTION_ERROR"
	CodeStorageError       = "STORAGE_ERROR"
	CodeParseError         = "PARSE_ERROR"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func InvalidInput(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeInvalidInput, fmt.Errorf(format, args...))
}

func ServiceUnavailable(format string, args ...any) *Error {
	return New(http.StatusServiceUnavailable, CodeServiceUnavailable, fmt.Errorf(format, args...))
}

func ExtractionError(format string, args ...any) *Error {
	return New(http.StatusUnprocessableEntity, CodeExtractionError, fmt.Errorf(format, args...))
}

func StorageError(format string, args ...any) *Error {
	return New(http.StatusInternalServerError, CodeStorageError, fmt.Errorf(format, args...))
}

func ParseError(format string, args ...any) *Error {
	return New(http.StatusBadGateway, CodeParseError, fmt.Errorf(format, args...))
}

// StatusOf returns the HTTP status and code for err, defaulting to a plain
// 500 when err is not an *Error.
func StatusOf(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ae.Code
	}
	return http.StatusInternalServerError, ""
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
