package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
// Note: identity and billing are handled upstream by the gateway; the API only
// trusts forwarded X-User-* headers when AuthMode is "gateway".
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key for GPT models
	GeminiAPIKey string // Google Gemini API key

	// Generation
	GenerationProvider string // Primary provider: "openai" or "gemini"
	OpenAIModel        string
	GeminiModel        string
	GenerationTimeout  time.Duration // Budget for the first attempt, grows per retry
	GenerationBackoff  time.Duration // Base backoff delay, doubled per retry
	MaxRetries         int           // Retry ceiling per provider
	MaxTotalAttempts   int           // Ceiling across every retry and fallback path
	Temperature        float64
	MaxOutputTokens    int
	TestMode           bool // Return synthetic scenarios, never call a provider

	// Storage
	DatabaseURL string        // Postgres DSN for the attempt audit log (optional)
	RedisAddr   string        // Redis address for the generation cache (optional)
	CacheTTL    time.Duration // TTL for cached generations

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse

	// CORS
	CORSAllowedOrigins []string

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from the gateway
	AuthMode string
}

func Load() *Config {
	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GenerationProvider: getEnv("GENERATION_PROVIDER", "openai"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GenerationTimeout:  getEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
		GenerationBackoff:  getEnvDuration("GENERATION_BASE_DELAY", 2*time.Second),
		MaxRetries:         getEnvInt("GENERATION_MAX_RETRIES", 2),
		MaxTotalAttempts:   getEnvInt("GENERATION_MAX_ATTEMPTS", 3),
		Temperature:        getEnvFloat("GENERATION_TEMPERATURE", 0.7),
		MaxOutputTokens:    getEnvInt("GENERATION_MAX_TOKENS", 4000),
		TestMode:           getEnv("GENERATION_TEST_MODE", "false") == "true",
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		CacheTTL:           getEnvDuration("CACHE_TTL", 24*time.Hour),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:  getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:  getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:       getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:    getEnv("LANGFUSE_ENABLED", "false") == "true",
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AuthMode:           getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvDuration accepts Go durations ("45s") or bare seconds ("45")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// IsGatewayMode returns true if running behind the gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsProduction reports whether production-only sinks (CloudWatch) are enabled
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
