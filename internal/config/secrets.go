package config

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the app's secrets in the OS keychain
	KeyringService = "outreach-agent"
	// KeyringAccount is the keychain account holding the Gemini API key
	KeyringAccount = "gemini-api-key"
	// APIKeyEnv is the environment variable holding the Gemini API key
	APIKeyEnv = "GEMINI_API_KEY"
)

// keyringGet is swapped out in tests
var keyringGet = keyring.Get

// ResolveAPIKey picks the model-provider key: explicit value (flag), then
// the environment, then the config file, then the OS keyring. A missing key
// is a ConfigError.
func (c *Config) ResolveAPIKey(flagValue string) (string, error) {
	candidates := []string{flagValue, os.Getenv(APIKeyEnv), c.APIKey}
	for _, k := range candidates {
		if k = strings.TrimSpace(k); k != "" {
			return k, nil
		}
	}

	key, err := keyringGet(KeyringService, KeyringAccount)
	if err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), nil
	}

	cfgErr := &ConfigError{
		Field:   "api_key",
		Message: "is required (set " + APIKeyEnv + ", use --api-key, or run set-key)",
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		cfgErr.Cause = err
	}
	return "", cfgErr
}

// StoreAPIKey saves the API key in the OS keyring
func StoreAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return &ConfigError{Field: "api_key", Message: "is empty"}
	}
	return keyring.Set(KeyringService, KeyringAccount, strings.TrimSpace(key))
}

// DeleteAPIKey removes the API key from the OS keyring
func DeleteAPIKey() error {
	return keyring.Delete(KeyringService, KeyringAccount)
}
