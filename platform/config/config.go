// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// ZohoConfig provides settings for the Zoho CRM client and token cache.
type ZohoConfig interface {
	GetZohoAPIBaseURL() string
	GetZohoAccountsURL() string
	GetZohoClientID() string
	GetZohoClientSecret() string
	GetZohoRefreshToken() string
}

// DispatchConfig provides settings for the dispatch workflow.
type DispatchConfig interface {
	GetProductLineField() string
	GetTaskDueHours() int
	GetCallOnCreate() bool
	GetDefaultPhoneRegion() string
}

// VoiceConfig provides settings for the outbound voice-agent provider.
type VoiceConfig interface {
	GetVoiceAPIBaseURL() string
	GetVoiceCallPath() string
	GetVoiceAPIKey() string
	GetVoiceAgentID() string
	IsVoiceEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	CORSAllowAll       bool
	CORSOrigins        []string
	ZohoAPIBaseURL     string
	ZohoAccountsURL    string
	ZohoClientID       string
	ZohoClientSecret   string
	ZohoRefreshToken   string
	ProductLineField   string
	TaskDueHours       int
	CallOnCreate       bool
	DefaultPhoneRegion string
	VoiceAPIBaseURL    string
	VoiceCallPath      string
	VoiceAPIKey        string
	VoiceAgentID       string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// ZohoConfig implementation
func (c *Config) GetZohoAPIBaseURL() string   { return c.ZohoAPIBaseURL }
func (c *Config) GetZohoAccountsURL() string  { return c.ZohoAccountsURL }
func (c *Config) GetZohoClientID() string     { return c.ZohoClientID }
func (c *Config) GetZohoClientSecret() string { return c.ZohoClientSecret }
func (c *Config) GetZohoRefreshToken() string { return c.ZohoRefreshToken }

// DispatchConfig implementation
func (c *Config) GetProductLineField() string   { return c.ProductLineField }
func (c *Config) GetTaskDueHours() int          { return c.TaskDueHours }
func (c *Config) GetCallOnCreate() bool         { return c.CallOnCreate }
func (c *Config) GetDefaultPhoneRegion() string { return c.DefaultPhoneRegion }

// VoiceConfig implementation
func (c *Config) GetVoiceAPIBaseURL() string { return c.VoiceAPIBaseURL }
func (c *Config) GetVoiceCallPath() string   { return c.VoiceCallPath }
func (c *Config) GetVoiceAPIKey() string     { return c.VoiceAPIKey }
func (c *Config) GetVoiceAgentID() string    { return c.VoiceAgentID }
func (c *Config) IsVoiceEnabled() bool {
	return c.VoiceAPIKey != "" && c.VoiceAgentID != ""
}

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		ZohoAPIBaseURL:     getEnv("ZOHO_API_BASE_URL", "https://www.zohoapis.in"),
		ZohoAccountsURL:    getEnv("ZOHO_ACCOUNTS_URL", "https://accounts.zoho.in"),
		ZohoClientID:       getEnv("ZOHO_CLIENT_ID", ""),
		ZohoClientSecret:   getEnv("ZOHO_CLIENT_SECRET", ""),
		ZohoRefreshToken:   getEnv("ZOHO_REFRESH_TOKEN", ""),
		ProductLineField:   getEnv("ZOHO_PRODUCT_LINE_FIELD", "Product_Line"),
		TaskDueHours:       mustInt(getEnv("TASK_DUE_HOURS", "24")),
		CallOnCreate:       strings.EqualFold(getEnv("CALL_ON_CREATE", "false"), "true"),
		DefaultPhoneRegion: getEnv("DEFAULT_PHONE_REGION", "IN"),
		VoiceAPIBaseURL:    getEnv("VOICE_API_BASE_URL", "https://api.elevenlabs.io"),
		VoiceCallPath:      getEnv("VOICE_CALL_PATH", "/v1/convai/outbound-call"),
		VoiceAPIKey:        getEnv("VOICE_API_KEY", ""),
		VoiceAgentID:       getEnv("VOICE_AGENT_ID", ""),
	}

	if cfg.ZohoClientID == "" || cfg.ZohoClientSecret == "" || cfg.ZohoRefreshToken == "" {
		return nil, fmt.Errorf("ZOHO_CLIENT_ID, ZOHO_CLIENT_SECRET and ZOHO_REFRESH_TOKEN are required")
	}
	if cfg.TaskDueHours <= 0 {
		return nil, fmt.Errorf("TASK_DUE_HOURS must be a positive integer")
	}
	if cfg.CallOnCreate && !cfg.IsVoiceEnabled() {
		return nil, fmt.Errorf("VOICE_API_KEY and VOICE_AGENT_ID are required when CALL_ON_CREATE is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
