package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_FAILURE"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeStorageFailure   = "STORAGE_FAILURE"
	CodeProviderFailure  = "PROVIDER_FAILURE"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL"
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

func NotFound(err error) *Error {
	return New(http.StatusNotFound, CodeNotFound, err)
}

func Validation(err error) *Error {
	return New(http.StatusBadRequest, CodeValidation, err)
}

func PermissionDenied(err error) *Error {
	return New(http.StatusForbidden, CodePermissionDenied, err)
}

func Storage(err error) *Error {
	return New(http.StatusBadGateway, CodeStorageFailure, err)
}

func Provider(err error) *Error {
	return New(http.StatusBadGateway, CodeProviderFailure, err)
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, err)
}

// From pulls the nearest *Error out of a wrapped chain, defaulting
// to an internal 500 when the chain carries no api error.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}

func IsCode(err error, code string) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
