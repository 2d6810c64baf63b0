package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	AdminJWTSecret     string

	// Text-generation collaborator
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModelID       string
	GenerationTimeout   time.Duration
	GenerationMaxTokens int

	// Caches
	AdaptationCacheSize  int
	AdaptationCacheTTL   time.Duration
	ResponseCacheBackend string
	ResponseCacheSize    int
	ResponseCacheTTL     time.Duration
	RedisAddr            string
	RedisPassword        string
	RedisTLS             bool

	// Per-IP rate limiting on the personalize endpoint; zero disables it.
	RateLimitPerSec float64
	RateLimitBurst  int

	// Pipeline tuning
	MinProfileConfidence float64
	QualityPassScore     float64
	QualityTargetScore   float64
	FeedbackCap          int
	OutcomeCap           int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:       getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		GenerationTimeout:   getEnvAsDuration("GENERATION_TIMEOUT", 20*time.Second),
		GenerationMaxTokens: getEnvAsInt("GENERATION_MAX_TOKENS", 1024),

		AdaptationCacheSize:  getEnvAsInt("ADAPTATION_CACHE_SIZE", 512),
		AdaptationCacheTTL:   getEnvAsDuration("ADAPTATION_CACHE_TTL", 30*time.Minute),
		ResponseCacheBackend: strings.ToLower(strings.TrimSpace(getEnv("RESPONSE_CACHE_BACKEND", "memory"))),
		ResponseCacheSize:    getEnvAsInt("RESPONSE_CACHE_SIZE", 1024),
		ResponseCacheTTL:     getEnvAsDuration("RESPONSE_CACHE_TTL", 5*time.Minute),
		RedisAddr:            getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),

		RateLimitPerSec: getEnvAsFloat("RATE_LIMIT_PER_SEC", 0),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 20),

		MinProfileConfidence: getEnvAsFloat("MIN_PROFILE_CONFIDENCE", 0.6),
		QualityPassScore:     getEnvAsFloat("QUALITY_PASS_SCORE", 85),
		QualityTargetScore:   getEnvAsFloat("QUALITY_TARGET_SCORE", 98),
		FeedbackCap:          getEnvAsInt("FEEDBACK_CAP", 1000),
		OutcomeCap:           getEnvAsInt("OUTCOME_CAP", 5000),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
