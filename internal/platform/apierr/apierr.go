package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by how the caller should react.
const (
	CodeContractViolation   = "contract_violation"
	CodeDataIntegrity       = "data_integrity"
	CodeNotFound            = "not_found"
	CodeInvalidArgument     = "invalid_argument"
	CodeConflict            = "conflict"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeUsageLimit          = "usage_limit"
	CodeUnauthorized        = "unauthorized"
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

func ContractViolation(err error) *Error {
	return New(http.StatusConflict, CodeContractViolation, err)
}

func DataIntegrity(err error) *Error {
	return New(http.StatusInternalServerError, CodeDataIntegrity, err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, CodeNotFound, err)
}

func InvalidArgument(err error) *Error {
	return New(http.StatusBadRequest, CodeInvalidArgument, err)
}

// UpstreamUnavailable marks an evaluation-service or storage failure the
// caller may retry.
func UpstreamUnavailable(err error) *Error {
	return New(http.StatusBadGateway, CodeUpstreamUnavailable, err)
}

// UsageLimit is distinct from UpstreamUnavailable so clients can tell
// "try again" from "upgrade required".
func UsageLimit(err error) *Error {
	return New(http.StatusPaymentRequired, CodeUsageLimit, err)
}

// From extracts an *Error from err's chain, or wraps err as a 500.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, "internal", err)
}
