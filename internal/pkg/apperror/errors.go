// internal/pkg/apperror/errors.go
package apperror

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies an error and decides the HTTP status it maps to
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeStateConflict     Code = "STATE_CONFLICT"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeConflict          Code = "CONFLICT"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeProvider          Code = "PROVIDER_ERROR"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Reason is a stable machine-readable refinement of a Code
type Reason string

const (
	ReasonCouponNotFound        Reason = "COUPON_NOT_FOUND"
	ReasonCouponExpired         Reason = "COUPON_EXPIRED"
	ReasonCouponExhausted       Reason = "COUPON_EXHAUSTED"
	ReasonMinimumPurchaseNotMet Reason = "MINIMUM_PURCHASE_NOT_MET"
	ReasonOutOfStock            Reason = "OUT_OF_STOCK"
	ReasonQuantityExceeded      Reason = "QUANTITY_EXCEEDED"
	ReasonInsufficientBalance   Reason = "INSUFFICIENT_BALANCE"
	ReasonInvalidTransition     Reason = "INVALID_TRANSITION"
	ReasonReturnWindowExpired   Reason = "RETURN_WINDOW_EXPIRED"
	ReasonAlreadyCancelled      Reason = "ALREADY_CANCELLED"
	ReasonRefundLimitReached    Reason = "REFUND_LIMIT_REACHED"
	ReasonSignatureMismatch     Reason = "SIGNATURE_MISMATCH"
	ReasonProductNotFound       Reason = "PRODUCT_NOT_FOUND"
	ReasonProductUnavailable    Reason = "PRODUCT_UNAVAILABLE"
	ReasonSizeUnavailable       Reason = "SIZE_UNAVAILABLE"
	ReasonDuplicateOffer        Reason = "DUPLICATE_OFFER"
	ReasonDuplicateName         Reason = "DUPLICATE_NAME"
	ReasonEmptyCart             Reason = "EMPTY_CART"
)

// Metadata describes how a Code is surfaced to callers
type Metadata struct {
	HTTPStatus     int
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "operation not allowed in current state",
		DetailsAllowed: true,
	},
	CodeInsufficientFunds: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "insufficient wallet balance",
		DetailsAllowed: true,
	},
	CodeInsufficientStock: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "insufficient stock",
		DetailsAllowed: true,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeRateLimited: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeProvider: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "upstream provider failed",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal server error",
	},
}

// MetadataFor returns the surfacing rules for code, defaulting to internal
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed error returned by domain services
type Error struct {
	code    Code
	reason  Reason
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// Shorthands for the codes services raise most often.

func Validation(message string) *Error { return New(CodeValidation, message) }

func NotFound(message string) *Error { return New(CodeNotFound, message) }

func StateConflict(message string) *Error { return New(CodeStateConflict, message) }

func Internal(err error, message string) *Error { return Wrap(CodeInternal, err, message) }

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Reason() Reason {
	if e == nil {
		return ""
	}
	return e.reason
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

func (e *Error) WithReason(reason Reason) *Error {
	if e == nil {
		return nil
	}
	e.reason = reason
	return e
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s", e.code, e.message)
	if e.reason != "" {
		msg = fmt.Sprintf("%s (%s): %s", e.code, e.reason, e.message)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the first *Error in err's chain
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

// HasCode reports whether err carries code
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// HasReason reports whether err carries reason
func HasReason(err error, reason Reason) bool {
	typed := As(err)
	return typed != nil && typed.reason == reason
}
