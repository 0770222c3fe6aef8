// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults for the portfolio store
const (
	DefaultSourcePath      = "resource/my_portfolio.csv"
	DefaultPersistDir      = "vectorstore"
	DefaultCollection      = "portfolio"
	DefaultResultsPerSkill = 2
	DefaultPort            = 8080
)

// Config is the explicit configuration passed to constructors. It can be
// loaded from a JSON or YAML file; CLI flags are merged on top.
type Config struct {
	// Model provider
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Gemini API key; prefer env or keyring
	Model  string `json:"model,omitempty" yaml:"model,omitempty"`     // Overrides the standard-tier model name

	// Portfolio store
	SourcePath      string `json:"source_path,omitempty" yaml:"source_path,omitempty" validate:"required"`
	PersistDir      string `json:"persist_dir,omitempty" yaml:"persist_dir,omitempty" validate:"required"`
	Collection      string `json:"collection,omitempty" yaml:"collection,omitempty" validate:"required"`
	Backend         string `json:"backend,omitempty" yaml:"backend,omitempty" validate:"oneof=sqlite postgres qdrant"`
	DatabaseURL     string `json:"database_url,omitempty" yaml:"database_url,omitempty" validate:"required_if=Backend postgres"`
	QdrantAddr      string `json:"qdrant_addr,omitempty" yaml:"qdrant_addr,omitempty" validate:"required_if=Backend qdrant"`
	Embedder        string `json:"embedder,omitempty" yaml:"embedder,omitempty" validate:"oneof=gemini hashing"`
	EmbeddingModel  string `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
	ResultsPerSkill int    `json:"results_per_skill,omitempty" yaml:"results_per_skill,omitempty" validate:"gte=1,lte=50"`

	// Sender persona used when drafting emails
	SenderName    string `json:"sender_name,omitempty" yaml:"sender_name,omitempty"`
	SenderTitle   string `json:"sender_title,omitempty" yaml:"sender_title,omitempty"`
	SenderCompany string `json:"sender_company,omitempty" yaml:"sender_company,omitempty"`
	CompanyPitch  string `json:"company_pitch,omitempty" yaml:"company_pitch,omitempty"`

	// Behavior
	Concurrency int  `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=1,lte=16"` // Postings drafted in parallel by the pipeline
	Retries     int  `json:"retries,omitempty" yaml:"retries,omitempty" validate:"gte=0,lte=10"`         // Caller-side retries on transient provider errors
	Strict      bool `json:"strict,omitempty" yaml:"strict,omitempty"`                                   // Validate extracted jobs against the JSON schema
	Verbose     bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	Port        int  `json:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`
}

// Default returns a Config populated with the built-in defaults
func Default() Config {
	return Config{
		SourcePath:      DefaultSourcePath,
		PersistDir:      DefaultPersistDir,
		Collection:      DefaultCollection,
		Backend:         "sqlite",
		Embedder:        "gemini",
		EmbeddingModel:  "text-embedding-004",
		ResultsPerSkill: DefaultResultsPerSkill,
		SenderName:      "Mohan",
		SenderTitle:     "business development executive",
		SenderCompany:   "AtliQ",
		CompanyPitch:    "an AI & Software Consulting company dedicated to facilitating the seamless integration of business processes through automated tools",
		Concurrency:     1,
		Port:            DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration has valid values. It runs once at
// startup; the API key is checked separately by ResolveAPIKey.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigError{
				Field:   toSnake(fe.Field()),
				Message: describe(fe),
				Cause:   err,
			}
		}
		return &ConfigError{Message: "invalid configuration", Cause: err}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.SourcePath == "" {
		result.SourcePath = defaults.SourcePath
	}
	if result.PersistDir == "" {
		result.PersistDir = defaults.PersistDir
	}
	if result.Collection == "" {
		result.Collection = defaults.Collection
	}
	if result.Backend == "" {
		result.Backend = defaults.Backend
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.QdrantAddr == "" {
		result.QdrantAddr = defaults.QdrantAddr
	}
	if result.Embedder == "" {
		result.Embedder = defaults.Embedder
	}
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = defaults.EmbeddingModel
	}
	if result.SenderName == "" {
		result.SenderName = defaults.SenderName
	}
	if result.SenderTitle == "" {
		result.SenderTitle = defaults.SenderTitle
	}
	if result.SenderCompany == "" {
		result.SenderCompany = defaults.SenderCompany
	}
	if result.CompanyPitch == "" {
		result.CompanyPitch = defaults.CompanyPitch
	}

	// Int fields: use default if zero
	if result.ResultsPerSkill == 0 {
		result.ResultsPerSkill = defaults.ResultsPerSkill
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.Retries == 0 {
		result.Retries = defaults.Retries
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// toSnake converts a Go field name (ResultsPerSkill) to its config key (results_per_skill)
func toSnake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				sb.WriteByte('_')
			}
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
