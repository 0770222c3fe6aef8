package config

import "fmt"

// ConfigError reports a missing or invalid configuration value. It is fatal
// and raised at construction time, before any network call.
//
//nolint:revive // config.ConfigError reads better at call sites than config.Error
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config error: %s", e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("config error: '%s' %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
