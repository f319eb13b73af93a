package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
// Everything is read from the environment; there is no database and no user store.
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM
	GeminiAPIKey string // Google Gemini API key (falls back to API_KEY)
	OpenAIAPIKey string // OpenAI API key for GPT models
	LLMProvider  string // "gemini", "openai" or empty to infer from the model
	LLMModel     string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	AuthMode string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// Generation limits
	GenerationRatePerMinute int
	GenerationTimeout       time.Duration // 0 disables the per-call deadline

	CORSAllowedOrigins []string
}

const (
	defaultModel       = "gemini-2.5-flash"
	defaultSessionTTL  = 12 * time.Hour
	defaultRatePerMin  = 20
	devSessionSecret   = "singalong-genie-dev-secret"
	defaultCORSOrigins = "http://localhost:3000,http://localhost:8080"
)

func Load() *Config {
	return &Config{
		Environment:             getEnv("ENVIRONMENT", "development"),
		Port:                    getEnv("PORT", "8080"),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		OpenAIAPIKey:            getEnv("OPENAI_API_KEY", ""),
		LLMProvider:             getEnv("LLM_PROVIDER", ""),
		LLMModel:                getEnv("LLM_MODEL", defaultModel),
		SentryDSN:               getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:       getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:       getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:            getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:         getEnv("LANGFUSE_ENABLED", "false") == "true",
		AuthMode:                getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		SessionSecret:           getEnv("SESSION_SECRET", devSessionSecret),
		SessionTTL:              getDurationEnv("SESSION_TTL", defaultSessionTTL),
		GenerationRatePerMinute: getIntEnv("GENERATION_RATE_PER_MINUTE", defaultRatePerMin),
		GenerationTimeout:       getDurationEnv("GENERATION_TIMEOUT", 0),
		CORSAllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getDurationEnv accepts Go durations ("90s") or a bare number of seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// IsGatewayMode returns true if running behind an authenticating gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsProduction reports whether production-only integrations (CloudWatch) should run
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
