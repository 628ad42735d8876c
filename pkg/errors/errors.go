package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeForbidden      Code = "FORBIDDEN"
	CodeNotFound       Code = "NOT_FOUND"
	CodeSessionExpired Code = "SESSION_EXPIRED"
	CodeNetwork        Code = "NETWORK_ERROR"
	CodeInternal       Code = "INTERNAL_ERROR"
	CodeUpstream       Code = "UPSTREAM_ERROR"
	CodeBusy           Code = "REQUEST_IN_FLIGHT"
	CodeRateLimit      Code = "RATE_LIMITED"
)

// Metadata is the policy table per error kind. ForcesLogout is what
// distinguishes an auth failure (clear the session) from a connectivity
// failure (keep the session, let the user retry).
type Metadata struct {
	HTTPStatus     int
	ForcesLogout   bool
	UserRetryable  bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		ForcesLogout:   false,
		UserRetryable:  true,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:     http.StatusUnauthorized,
		ForcesLogout:   true,
		UserRetryable:  false,
		PublicMessage:  "authentication required",
		DetailsAllowed: false,
	},
	CodeForbidden: {
		HTTPStatus:     http.StatusForbidden,
		ForcesLogout:   true,
		UserRetryable:  false,
		PublicMessage:  "access denied",
		DetailsAllowed: false,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		ForcesLogout:   false,
		UserRetryable:  false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeSessionExpired: {
		HTTPStatus:     http.StatusUnauthorized,
		ForcesLogout:   true,
		UserRetryable:  false,
		PublicMessage:  "session expired, please sign in again",
		DetailsAllowed: false,
	},
	CodeNetwork: {
		HTTPStatus:     http.StatusServiceUnavailable,
		ForcesLogout:   false,
		UserRetryable:  true,
		PublicMessage:  "connection to the server failed, please try again",
		DetailsAllowed: false,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		ForcesLogout:   false,
		UserRetryable:  true,
		PublicMessage:  "internal server error",
		DetailsAllowed: false,
	},
	CodeUpstream: {
		HTTPStatus:     http.StatusBadGateway,
		ForcesLogout:   false,
		UserRetryable:  true,
		PublicMessage:  "the service is temporarily unavailable",
		DetailsAllowed: true,
	},
	CodeBusy: {
		HTTPStatus:     http.StatusConflict,
		ForcesLogout:   false,
		UserRetryable:  false,
		PublicMessage:  "a request is already in flight",
		DetailsAllowed: false,
	},
	CodeRateLimit: {
		HTTPStatus:     http.StatusTooManyRequests,
		ForcesLogout:   false,
		UserRetryable:  true,
		PublicMessage:  "too many attempts, please wait and try again",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches structured details, typically the upstream
// field→message map from a 422 response.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// FieldErrors returns the field→message map when the error carries one.
func (e *Error) FieldErrors() map[string]string {
	if e == nil {
		return nil
	}
	if m, ok := e.details.(map[string]string); ok {
		return m
	}
	return nil
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsAuth reports whether the error should invalidate the merchant session.
func IsAuth(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return MetadataFor(typed.Code()).ForcesLogout
}

// IsNetwork reports whether the error is a connectivity failure that must
// not log the user out.
func IsNetwork(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return typed.Code() == CodeNetwork
}
