package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies a provider failure
type ErrorKind string

// Provider failure kinds
const (
	KindAuth           ErrorKind = "auth"
	KindConnection     ErrorKind = "connection"
	KindRateLimit      ErrorKind = "rate_limit"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindEmptyResponse  ErrorKind = "empty_response"
	KindUnknown        ErrorKind = "unknown"
)

// ProviderError represents a network, auth or quota failure from the model backend
type ProviderError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("LLM provider error (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("LLM provider error (%s): %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Transient reports whether a caller-side retry might succeed
func (e *ProviderError) Transient() bool {
	switch e.Kind {
	case KindConnection, KindRateLimit, KindEmptyResponse:
		return true
	default:
		return false
	}
}

func newProviderError(message string, cause error) *ProviderError {
	return &ProviderError{
		Kind:    classify(cause),
		Message: message,
		Cause:   cause,
	}
}

// classify maps transport errors (REST or gRPC) onto an ErrorKind
func classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyHTTP(apiErr.Code)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return KindAuth
		case codes.ResourceExhausted:
			return KindRateLimit
		case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
			return KindConnection
		case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound:
			return KindInvalidRequest
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnection
	}

	return KindUnknown
}

func classifyHTTP(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code >= 500:
		return KindConnection
	case code >= 400:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}
