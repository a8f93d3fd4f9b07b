package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	envGroqAPIKey        = "GROQ_API_KEY"
	envVerifyAPIKey      = "VERIFY_API_KEY"
	envIntelAPIKey       = "INTELX_API_KEY"
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envTelegramAllowFrom = "TELEGRAM_ALLOW_FROM"
	envListenPort        = "SENTINELLA_PORT"
)

// Route sets selectable via gateway.routes.
const (
	RouteSetFull = "full"
	RouteSetCore = "core"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Gateway  GatewayConfig  `json:"gateway"`
	Provider ProviderConfig `json:"provider"`
	Verify   VerifyConfig   `json:"verify"`
	Intel    IntelConfig    `json:"intel"`
	Channels ChannelsConfig `json:"channels"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// GatewayConfig configures HTTP bind settings and the exposed route set.
//
// Routes selects "full" (every analysis route) or "core" (the reduced legacy
// set: chat, check-email, check-password, analyze-threat).
type GatewayConfig struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Routes string `json:"routes,omitempty"`
}

// ProviderConfig configures the completion endpoint client.
type ProviderConfig struct {
	BaseURL               string `json:"base_url"`
	Model                 string `json:"model"`
	APIKeyEnv             string `json:"api_key_env,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// VerifyConfig configures the phone/email/spam verification API client.
type VerifyConfig struct {
	BaseURL   string `json:"base_url"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
}

// IntelConfig configures the intelligence record-search client.
type IntelConfig struct {
	BaseURL    string `json:"base_url"`
	APIKeyEnv  string `json:"api_key_env,omitempty"`
	MaxResults int    `json:"max_results"`
}

// ChannelsConfig stores transport adapter settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

// TelegramConfig configures Telegram channel integration.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allow_from"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// LoadConfig resolves config.json, unmarshals it, and applies environment overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ProviderAPIKey resolves the completion endpoint key from the configured env
// name, falling back to GROQ_API_KEY.
func (c *Config) ProviderAPIKey() string {
	return resolveSecret(c.Provider.APIKeyEnv, envGroqAPIKey)
}

// VerifyAPIKey resolves the verification API key.
func (c *Config) VerifyAPIKey() string {
	return resolveSecret(c.Verify.APIKeyEnv, envVerifyAPIKey)
}

// IntelAPIKey resolves the record-search API key.
func (c *Config) IntelAPIKey() string {
	return resolveSecret(c.Intel.APIKeyEnv, envIntelAPIKey)
}

// RouteSet returns the normalized route selection, defaulting to the full set.
func (c *Config) RouteSet() string {
	routes := strings.ToLower(strings.TrimSpace(c.Gateway.Routes))
	if routes == "" {
		return RouteSetFull
	}

	return routes
}

func resolveSecret(envName string, defaultEnvName string) string {
	if name := strings.TrimSpace(envName); name != "" {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}

	return strings.TrimSpace(os.Getenv(defaultEnvName))
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Channels.Telegram.Token = token
	}

	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllowFrom)); rawAllowFrom != "" {
		cfg.Channels.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}

	if rawPort := strings.TrimSpace(os.Getenv(envListenPort)); rawPort != "" {
		var port int
		if _, err := fmt.Sscanf(rawPort, "%d", &port); err == nil && port > 0 {
			cfg.Gateway.Port = port
		}
	}
}

func validate(cfg *Config) error {
	switch routes := cfg.RouteSet(); routes {
	case RouteSetFull, RouteSetCore:
	default:
		return fmt.Errorf("unsupported gateway.routes %q (expected %q or %q)", routes, RouteSetFull, RouteSetCore)
	}

	return nil
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is SENTINELLA_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("SENTINELLA_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("SENTINELLA_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
