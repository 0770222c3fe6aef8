package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/parsing"
	"github.com/jonathan/outreach-agent/internal/portfolio"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		parseErr      *parsing.ParseError
		providerErr   *llm.ProviderError
		configErr     *config.ConfigError
		storeErr      *portfolio.StoreError
		maxBytesErr   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	case errors.As(err, &storeErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is a stable machine-readable error name for clients
func errorCode(err error) string {
	var (
		validationErr *ErrValidation
		parseErr      *parsing.ParseError
		providerErr   *llm.ProviderError
		storeErr      *portfolio.StoreError
		maxBytesErr   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validationErr):
		return "invalid_request"
	case errors.As(err, &maxBytesErr):
		return "request_too_large"
	case errors.As(err, &parseErr):
		return "unparseable_model_output"
	case errors.As(err, &providerErr):
		return "provider_" + string(providerErr.Kind)
	case errors.As(err, &storeErr):
		return "portfolio_unavailable"
	default:
		return "internal_error"
	}
}
