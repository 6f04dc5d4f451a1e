package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Google Sheets
	GoogleClientID      string `json:"google_client_id"`
	GoogleClientSecret  string `json:"google_client_secret"`
	GoogleRedirectURI   string `json:"google_redirect_uri"`
	TokenFile           string `json:"token_file"`
	SheetRange          string `json:"sheet_range"`
	SampleSpreadsheetID string `json:"sample_spreadsheet_id"`
	// FailOnFetchError turns spreadsheet fetch failures into errors instead of empty results.
	FailOnFetchError bool          `json:"fail_on_fetch_error"`
	UpstreamTimeout  time.Duration `json:"-"`

	// AI / LLM
	CompletionProvider string        `json:"completion_provider"` // "openai" | "anthropic"
	OpenAIAPIKey       string        `json:"openai_api_key"`
	OpenAIBaseURL      string        `json:"openai_api_base"`
	AnthropicAPIKey    string        `json:"anthropic_api_key"`
	AnthropicBaseURL   string        `json:"anthropic_base_url"`
	CompletionTimeout  time.Duration `json:"-"`
	Model              ModelConfig   `json:"model"`

	// Security
	MaxQuestionLength       int  `json:"max_question_length"`
	EnableQuestionScreening bool `json:"enable_question_screening"`
	EnableAuditLogging      bool `json:"enable_audit_logging"`
}

// ModelConfig holds the sampling parameters sent with every completion request.
type ModelConfig struct {
	Name         string  `json:"name"`
	SystemPrompt string  `json:"system_prompt"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		Environment:        DefaultEnvironment,
		LogLevel:           DefaultLogLevel,
		CORSOrigins:        DefaultCORSOrigins,
		TokenFile:          DefaultTokenFile,
		SheetRange:         DefaultSheetRange,
		UpstreamTimeout:    DefaultUpstreamTimeout,
		CompletionProvider: DefaultCompletionProvider,
		CompletionTimeout:  DefaultCompletionTimeout,
		Model: ModelConfig{
			Name:         DefaultModelName,
			SystemPrompt: DefaultSystemPrompt,
			MaxTokens:    DefaultMaxTokens,
			Temperature:  DefaultTemperature,
		},
		MaxQuestionLength:       DefaultMaxQuestionLength,
		EnableQuestionScreening: true,
		EnableAuditLogging:      true,
	}

	// .env never overrides variables already present in the process environment
	envFile := getEnv("TABLEAGENT_ENV_FILE", DefaultEnvFile)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	// Load from JSON config file if specified
	if path := getEnv("TABLEAGENT_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// Environment overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.Port)
	}

	return cfg, nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CompletionConfigured reports whether the selected completion provider has an API key.
func (c *Config) CompletionConfigured() bool {
	if c.CompletionProvider == ProviderAnthropic {
		return c.AnthropicAPIKey != ""
	}
	return c.OpenAIAPIKey != ""
}

// CompletionBaseURL returns the base URL of the selected completion provider.
func (c *Config) CompletionBaseURL() string {
	if c.CompletionProvider == ProviderAnthropic {
		return c.AnthropicBaseURL
	}
	return c.OpenAIBaseURL
}

// SheetsConfigured reports whether an OAuth client id is set.
func (c *Config) SheetsConfigured() bool {
	return c.GoogleClientID != ""
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) error {
	if v := getEnv("API_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("API_PORT", ""); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > 65535 {
			return fmt.Errorf("invalid API_PORT %q: must be an integer between 1 and 65535", v)
		}
		cfg.Port = p
	}
	if v := getEnv("TABLEAGENT_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("TABLEAGENT_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}

	if v := getEnv("GOOGLE_CLIENT_ID", ""); v != "" {
		cfg.GoogleClientID = v
	}
	if v := getEnv("GOOGLE_CLIENT_SECRET", ""); v != "" {
		cfg.GoogleClientSecret = v
	}
	if v := getEnv("GOOGLE_REDIRECT_URI", ""); v != "" {
		cfg.GoogleRedirectURI = v
	}
	if v := getEnv("GOOGLE_TOKEN_FILE", ""); v != "" {
		cfg.TokenFile = v
	}
	if v := getEnv("SHEETS_RANGE", ""); v != "" {
		cfg.SheetRange = v
	}
	if v := getEnv("SAMPLE_SPREADSHEET_ID", ""); v != "" {
		cfg.SampleSpreadsheetID = v
	}
	if v := getEnv("SHEETS_FAIL_ON_FETCH_ERROR", ""); v != "" {
		cfg.FailOnFetchError = parseBool(v)
	}
	if v := getEnv("UPSTREAM_TIMEOUT_SECONDS", ""); v != "" {
		d, err := parseSeconds("UPSTREAM_TIMEOUT_SECONDS", v)
		if err != nil {
			return err
		}
		cfg.UpstreamTimeout = d
	}

	if v := getEnv("COMPLETION_PROVIDER", ""); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != ProviderOpenAI && v != ProviderAnthropic {
			return fmt.Errorf("invalid COMPLETION_PROVIDER %q: want %q or %q", v, ProviderOpenAI, ProviderAnthropic)
		}
		cfg.CompletionProvider = v
	}
	if v := getEnv("OPENAI_API_KEY", ""); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := getEnv("OPENAI_API_BASE", ""); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("COMPLETION_TIMEOUT_SECONDS", ""); v != "" {
		d, err := parseSeconds("COMPLETION_TIMEOUT_SECONDS", v)
		if err != nil {
			return err
		}
		cfg.CompletionTimeout = d
	}
	if v := getEnv("MODEL_NAME", ""); v != "" {
		cfg.Model.Name = v
	}
	if v := getEnv("MODEL_MAX_TOKENS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MODEL_MAX_TOKENS %q: must be a positive integer", v)
		}
		cfg.Model.MaxTokens = n
	}
	if v := getEnv("MODEL_TEMPERATURE", ""); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 || t > 2 {
			return fmt.Errorf("invalid MODEL_TEMPERATURE %q: must be a number between 0 and 2", v)
		}
		cfg.Model.Temperature = t
	}

	if v := getEnv("MAX_QUESTION_LENGTH", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_QUESTION_LENGTH %q: must be a positive integer", v)
		}
		cfg.MaxQuestionLength = n
	}
	if v := getEnv("ENABLE_QUESTION_SCREENING", ""); v != "" {
		cfg.EnableQuestionScreening = parseBool(v)
	}
	if v := getEnv("ENABLE_AUDIT_LOGGING", ""); v != "" {
		cfg.EnableAuditLogging = parseBool(v)
	}
	return nil
}

func parseSeconds(key, v string) (time.Duration, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number of seconds", key, v)
	}
	return time.Duration(n) * time.Second, nil
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
