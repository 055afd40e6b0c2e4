// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.skydocs/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - LLM: completion endpoint, API key, standard/advanced model names
//   - Search: search service endpoint, API key, index name, result count
//   - Retrieval: context token ceiling, tokenizer model
//   - Storage: content directory for ingested documents
//   - Server: HTTP listen address
//
// Security: sensitive data (API keys) is never logged; config directory uses
// 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingLLMAPIKey indicates the completion API key is missing.
	ErrMissingLLMAPIKey = errors.New("missing LLM API key")

	// ErrMissingLLMBaseURL indicates the completion endpoint is not set.
	ErrMissingLLMBaseURL = errors.New("missing LLM base URL")

	// ErrInvalidModelName indicates a model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrMissingSearchEndpoint indicates the search service endpoint is not set.
	ErrMissingSearchEndpoint = errors.New("missing search endpoint")

	// ErrInvalidSearchIndex indicates the search index name is invalid.
	ErrInvalidSearchIndex = errors.New("invalid search index")

	// ErrInvalidSearchTop indicates the search result count is out of range.
	ErrInvalidSearchTop = errors.New("invalid search top")

	// ErrInvalidContextTokens indicates the retrieval token ceiling is out of range.
	ErrInvalidContextTokens = errors.New("invalid max context tokens")

	// ErrInvalidTokenizerModel indicates the tokenizer model is invalid.
	ErrInvalidTokenizerModel = errors.New("invalid tokenizer model")

	// ErrInvalidServerAddr indicates the HTTP listen address is invalid.
	ErrInvalidServerAddr = errors.New("invalid server address")
)

const (
	// DefaultMaxContextTokens is the default retrieval token ceiling.
	DefaultMaxContextTokens = 12000

	// DefaultTokenizerModel is the model whose tokenizer sizes retrieved content.
	DefaultTokenizerModel = "gpt-3.5-turbo"

	// DefaultSearchTop is the default number of search hits requested.
	DefaultSearchTop = 3
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys, tokens), update MarshalJSON.
type Config struct {
	// LLM configuration
	LLMBaseURL    string  `mapstructure:"llm_base_url" json:"llm_base_url"`
	LLMAPIKey     string  `mapstructure:"llm_api_key" json:"llm_api_key"` // SENSITIVE: masked in MarshalJSON
	StandardModel string  `mapstructure:"standard_model" json:"standard_model"`
	AdvancedModel string  `mapstructure:"advanced_model" json:"advanced_model"` // optional; empty falls back to StandardModel
	Temperature   float64 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`
	LLMRateLimit  float64 `mapstructure:"llm_rate_limit" json:"llm_rate_limit"` // requests per second; 0 disables
	LLMRateBurst  int     `mapstructure:"llm_rate_burst" json:"llm_rate_burst"`

	// Search configuration
	SearchEndpoint string `mapstructure:"search_endpoint" json:"search_endpoint"`
	SearchAPIKey   string `mapstructure:"search_api_key" json:"search_api_key"` // SENSITIVE: masked in MarshalJSON
	SearchIndex    string `mapstructure:"search_index" json:"search_index"`
	SearchTop      int    `mapstructure:"search_top" json:"search_top"`

	// Retrieval configuration
	MaxContextTokens int    `mapstructure:"max_context_tokens" json:"max_context_tokens"`
	TokenizerModel   string `mapstructure:"tokenizer_model" json:"tokenizer_model"`

	// Storage configuration
	ContentDir string `mapstructure:"content_dir" json:"content_dir"`

	// Citation configuration
	CitationBaseURL string `mapstructure:"citation_base_url" json:"citation_base_url"`

	// Server configuration
	ServerAddr string `mapstructure:"server_addr" json:"server_addr"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".skydocs")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults(configDir)
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(configDir string) {
	// LLM defaults
	viper.SetDefault("llm_base_url", "https://api.openai.com/v1")
	viper.SetDefault("standard_model", "gpt-3.5-turbo")
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 1024)
	viper.SetDefault("llm_rate_limit", 0.0)
	viper.SetDefault("llm_rate_burst", 1)

	// Search defaults
	viper.SetDefault("search_index", "documents")
	viper.SetDefault("search_top", DefaultSearchTop)

	// Retrieval defaults
	viper.SetDefault("max_context_tokens", DefaultMaxContextTokens)
	viper.SetDefault("tokenizer_model", DefaultTokenizerModel)

	// Storage defaults
	viper.SetDefault("content_dir", filepath.Join(configDir, "content"))

	// Citation defaults
	viper.SetDefault("citation_base_url", "/content")

	// Server defaults
	viper.SetDefault("server_addr", ":8080")

	// Logging defaults
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variables explicitly. Secrets are
// env-only so they never have to live in config.yaml.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("llm_api_key", "SKYDOCS_LLM_API_KEY")
	mustBind("search_api_key", "SKYDOCS_SEARCH_API_KEY")

	mustBind("llm_base_url", "SKYDOCS_LLM_BASE_URL")
	mustBind("standard_model", "SKYDOCS_STANDARD_MODEL")
	mustBind("advanced_model", "SKYDOCS_ADVANCED_MODEL")
	mustBind("search_endpoint", "SKYDOCS_SEARCH_ENDPOINT")
	mustBind("search_index", "SKYDOCS_SEARCH_INDEX")
	mustBind("content_dir", "SKYDOCS_CONTENT_DIR")
	mustBind("server_addr", "SKYDOCS_SERVER_ADDR")
	mustBind("log_level", "SKYDOCS_LOG_LEVEL")
}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.LLMBaseURL == "" {
		return fmt.Errorf("%w: llm_base_url cannot be empty", ErrMissingLLMBaseURL)
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("%w: set SKYDOCS_LLM_API_KEY", ErrMissingLLMAPIKey)
	}
	if c.StandardModel == "" {
		return fmt.Errorf("%w: standard_model cannot be empty", ErrInvalidModelName)
	}

	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 128000 {
		return fmt.Errorf("%w: must be between 1 and 128,000, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.SearchEndpoint == "" {
		return fmt.Errorf("%w: search_endpoint cannot be empty", ErrMissingSearchEndpoint)
	}
	if c.SearchIndex == "" {
		return fmt.Errorf("%w: search_index cannot be empty", ErrInvalidSearchIndex)
	}
	if c.SearchTop < 1 || c.SearchTop > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidSearchTop, c.SearchTop)
	}

	if c.MaxContextTokens < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidContextTokens, c.MaxContextTokens)
	}
	if c.TokenizerModel == "" {
		return fmt.Errorf("%w: tokenizer_model cannot be empty", ErrInvalidTokenizerModel)
	}

	if c.ServerAddr == "" {
		return fmt.Errorf("%w: server_addr cannot be empty", ErrInvalidServerAddr)
	}

	return nil
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks avoid substring matching against the real secret.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Shows first 2 and last 2 characters for secrets longer than 8 chars,
// fully masks shorter ones to prevent substring matching.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - LLMAPIKey
//   - SearchAPIKey
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.LLMAPIKey = maskSecret(a.LLMAPIKey)
	a.SearchAPIKey = maskSecret(a.SearchAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// AnswerModel returns the model configured for the given answer quality.
// An empty AdvancedModel falls back to StandardModel.
func (c *Config) AnswerModel(advanced bool) string {
	if advanced && c.AdvancedModel != "" {
		return c.AdvancedModel
	}
	return c.StandardModel
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
