// Package config provides configuration management for vaultenv.
// Configuration is loaded from environment variables with the VAULTENV_ prefix;
// the CLI layers its flags on top before validating.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/buildkite/shellwords"
)

// Defaults for the vault file locations and decryption command.
const (
	DefaultSecretsFile    = "secrets.yml"
	DefaultPasswordFile   = ".vault_password"
	DefaultDecryptCommand = "ansible-vault"
)

// Config holds all configuration settings for vaultenv.
type Config struct {
	Vault         VaultConfig
	Log           LogConfig
	Metrics       MetricsConfig
	Observability ObservabilityConfig
}

// VaultConfig locates the encrypted document and the tool that opens it.
type VaultConfig struct {
	// ProjectRoot anchors relative file paths (default: working directory)
	ProjectRoot string
	// SecretsFile is the encrypted secrets document (default: secrets.yml)
	SecretsFile string
	// PasswordFile holds the decryption password (default: .vault_password)
	PasswordFile string
	// DecryptCommand is the decryption command line, split with shell
	// word rules (default: ansible-vault)
	DecryptCommand string
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error) (default: info)
	Level string
	// Format is the log format (json, console) (default: console)
	Format string
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	// TextfilePath, when set, receives a Prometheus textfile on exit
	TextfilePath string
}

// ObservabilityConfig holds tracing settings.
type ObservabilityConfig struct {
	// TracingEnabled enables OpenTelemetry tracing (default: false)
	TracingEnabled bool
	// TracingEndpoint is the OTLP/HTTP collector endpoint (e.g., "localhost:4318")
	TracingEndpoint string
	// TracingInsecure disables TLS for the tracing connection (default: true)
	TracingInsecure bool
	// TracingSampleRate is the sampling rate (0.0 to 1.0) (default: 1.0)
	TracingSampleRate float64
	// Environment is the deployment environment (default: development)
	Environment string
}

// FromEnv reads configuration from environment variables without validating it.
func FromEnv() *Config {
	return &Config{
		Vault: VaultConfig{
			ProjectRoot:    getEnv("VAULTENV_PROJECT_ROOT", ""),
			SecretsFile:    getEnv("VAULTENV_SECRETS_FILE", DefaultSecretsFile),
			PasswordFile:   getEnv("VAULTENV_PASSWORD_FILE", DefaultPasswordFile),
			DecryptCommand: getEnv("VAULTENV_DECRYPT_COMMAND", DefaultDecryptCommand),
		},
		Log: LogConfig{
			Level:  getEnv("VAULTENV_LOG_LEVEL", "info"),
			Format: getEnv("VAULTENV_LOG_FORMAT", "console"),
		},
		Metrics: MetricsConfig{
			TextfilePath: getEnv("VAULTENV_METRICS_FILE", ""),
		},
		Observability: ObservabilityConfig{
			TracingEnabled:    getEnvBool("VAULTENV_TRACING_ENABLED", false),
			TracingEndpoint:   getEnv("VAULTENV_TRACING_ENDPOINT", ""),
			TracingInsecure:   getEnvBool("VAULTENV_TRACING_INSECURE", true),
			TracingSampleRate: getEnvFloat("VAULTENV_TRACING_SAMPLE_RATE", 1.0),
			Environment:       getEnv("VAULTENV_ENVIRONMENT", "development"),
		},
	}
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Vault.SecretsFile) == "" {
		errs = append(errs, errors.New("VAULTENV_SECRETS_FILE must not be empty"))
	}
	if strings.TrimSpace(c.Vault.PasswordFile) == "" {
		errs = append(errs, errors.New("VAULTENV_PASSWORD_FILE must not be empty"))
	}
	if _, err := c.Vault.CommandArgs(); err != nil {
		errs = append(errs, err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, errors.New("VAULTENV_LOG_LEVEL must be one of: debug, info, warn, error"))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, errors.New("VAULTENV_LOG_FORMAT must be one of: json, console"))
	}

	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		errs = append(errs, errors.New("VAULTENV_TRACING_SAMPLE_RATE must be between 0.0 and 1.0"))
	}
	if c.Observability.TracingEnabled && c.Observability.TracingEndpoint == "" {
		errs = append(errs, errors.New("VAULTENV_TRACING_ENDPOINT is required when tracing is enabled"))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}

// CommandArgs splits DecryptCommand into an argv slice.
func (v VaultConfig) CommandArgs() ([]string, error) {
	args, err := shellwords.Split(v.DecryptCommand)
	if err != nil {
		return nil, fmt.Errorf("VAULTENV_DECRYPT_COMMAND is not a valid command line: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("VAULTENV_DECRYPT_COMMAND must not be empty")
	}
	return args, nil
}

// ValidationError contains multiple validation errors.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap returns the underlying errors for errors.Is/As compatibility.
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

// TracingEnabled returns true if spans should be exported.
func (c *Config) TracingEnabled() bool {
	return c.Observability.TracingEnabled && c.Observability.TracingEndpoint != ""
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
