package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	ErrStatusInternalServer = http.StatusInternalServerError
	ErrStatusClient         = http.StatusBadRequest
	ErrStatusUnauthorized   = http.StatusUnauthorized
	ErrStatusNoPermission   = http.StatusForbidden
	ErrStatusNotFound       = http.StatusNotFound
	ErrStatusConflict       = http.StatusConflict
	ErrStatusBadGateway     = http.StatusBadGateway
	ErrStatusUnavailable    = http.StatusServiceUnavailable
)

var (
	ErrConfiguration      = errors.New("failed to configure nextrans")
	ErrValidation         = errors.New("payload does not match the transaction schema")
	ErrMalformedBody      = errors.New("body is not well-formed JSON")
	ErrUnknownPaymentType = errors.New("unknown payment type")
	ErrInvalidSignature   = errors.New("invalid notification signature")
	ErrUnauthorized       = errors.New("unauthorized: access keys are invalid")
	ErrGatewayRejected    = errors.New("gateway rejected the request")
	ErrGatewayFailure     = errors.New("gateway error")

	// ErrTransactionNotFound means the gateway has no transaction for the id,
	// usually because the customer never picked a payment method.
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrInternalServer = errors.New("Internal server error")
	ErrClient         = errors.New("Bad request")
	ErrNotFound       = errors.New("Resource not found")
	ErrConflict       = errors.New("Conflicting record found")
)

// errorMap is walked in order, so wrapped errors resolve to the first
// sentinel they match.
var errorMap = []struct {
	err    error
	status int
}{
	{ErrConfiguration, ErrStatusInternalServer},
	{ErrMalformedBody, ErrStatusClient},
	{ErrUnknownPaymentType, ErrStatusClient},
	{ErrValidation, ErrStatusClient},
	{ErrInvalidSignature, ErrStatusNoPermission},
	{ErrTransactionNotFound, ErrStatusNotFound},
	{ErrUnauthorized, ErrStatusBadGateway},
	{ErrGatewayRejected, ErrStatusBadGateway},
	{ErrGatewayFailure, ErrStatusUnavailable},
	{ErrInternalServer, ErrStatusInternalServer},
	{ErrClient, ErrStatusClient},
	{ErrNotFound, ErrStatusNotFound},
	{ErrConflict, ErrStatusConflict},
}

func GetErrorStatusCode(err error) int {
	for _, e := range errorMap {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return ErrStatusInternalServer
}

func NewConfigurationError(message string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, message)
}

type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

// ValidationError reports a payload that failed the transaction schema.
// It matches ErrValidation and, when set, its cause.
type ValidationError struct {
	Reason string
	Fields []FieldError
	Cause  error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(f.Field + " failed " + f.Tag)
		if i == len(e.Fields)-1 {
			b.WriteString(")")
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

// GatewayError is a non-2xx answer from the gateway. It matches
// ErrGatewayRejected for request-shape problems (4xx) and ErrGatewayFailure
// for everything else.
type GatewayError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("failed fetching %s %s: %d %s, %s", e.Method, e.URL, e.StatusCode, e.Status, e.Body)
}

func (e *GatewayError) Unwrap() error {
	if e.Temporary() {
		return ErrGatewayFailure
	}
	return ErrGatewayRejected
}

// Temporary reports whether the caller may retry the request later.
func (e *GatewayError) Temporary() bool {
	return e.StatusCode < 400 || e.StatusCode >= 500
}
