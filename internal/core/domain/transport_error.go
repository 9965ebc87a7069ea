package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransportKind classifies a connector failure so callers can decide on retries.
type TransportKind string

const (
	TransportTimeout            TransportKind = "TIMEOUT"
	TransportAuthentication     TransportKind = "AUTHENTICATION"
	TransportRateLimited        TransportKind = "RATE_LIMITED"
	TransportNetwork            TransportKind = "NETWORK"
	TransportGatewayUnavailable TransportKind = "GATEWAY_UNAVAILABLE"
	TransportRejected           TransportKind = "REJECTED"
)

// TransportError is returned by connectors. The core passes it through untouched.
type TransportError struct {
	Kind       TransportKind
	Gateway    string
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s transport error [%s]", e.Gateway, e.Kind)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status: %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable is true for failures where sending the same request again may succeed.
func (e *TransportError) IsRetryable() bool {
	switch e.Kind {
	case TransportTimeout, TransportRateLimited, TransportNetwork, TransportGatewayUnavailable:
		return true
	default:
		return false
	}
}

// IsTransportError unwraps err into a TransportError.
func IsTransportError(err error) (*TransportError, bool) {
	var transportErr *TransportError
	ok := errors.As(err, &transportErr)
	return transportErr, ok
}

// ClassifyTransportFailure wraps a low level send failure into a TransportError.
func ClassifyTransportFailure(gateway string, err error) *TransportError {
	if transportErr, ok := IsTransportError(err); ok {
		return transportErr
	}

	kind := TransportNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = TransportTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = TransportTimeout
	}

	return &TransportError{
		Kind:    kind,
		Gateway: gateway,
		Err:     err,
	}
}

// TransportKindForStatus maps an HTTP-like status code onto a transport kind.
func TransportKindForStatus(statusCode int) TransportKind {
	switch {
	case statusCode == 401 || statusCode == 403:
		return TransportAuthentication
	case statusCode == 429:
		return TransportRateLimited
	case statusCode == 408 || statusCode == 504:
		return TransportTimeout
	case statusCode >= 500:
		return TransportGatewayUnavailable
	default:
		return TransportRejected
	}
}
