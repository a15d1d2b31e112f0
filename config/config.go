package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the gateway
type Config struct {
	Environment Environment

	// Server configuration
	ServerHost         string
	ServerPort         string
	CORSAllowedOrigins []string

	LLM LLMConfig

	// Redis backs the rate limiter. Empty host and URL disable it.
	Redis            RedisConfig
	RateLimitPerHour int

	// JWTSecret enables bearer-token auth on the API when set.
	JWTSecret string

	// DatabaseURL is a postgres DSN; when empty the ledger uses sqlite at DBPath.
	DatabaseURL string
	DBPath      string

	Images ImageConfig
}

// LLMConfig configures the model backend and retry policy
type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Timeout     time.Duration
	Retries     int
	BackoffBase time.Duration
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis endpoint is configured
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

// ImageConfig configures recipe image regeneration. An empty API key
// disables it.
type ImageConfig struct {
	OpenAIAPIKey string
	APIURL       string
	S3Bucket     string
	AWSRegion    string
}

// LoadConfig creates a new Config from environment variables, *_FILE
// references and the secrets directory, then validates it for the
// current environment.
func LoadConfig() (*Config, error) {
	var errs ValidationErrors
	cfg := &Config{
		Environment:        GetEnvironment(),
		ServerHost:         lookup("SERVER_HOST", "0.0.0.0"),
		ServerPort:         lookup("SERVER_PORT", "8080"),
		CORSAllowedOrigins: splitList(lookup("CORS_ALLOWED_ORIGINS", "*")),
		LLM: LLMConfig{
			Provider:    strings.ToLower(lookup("LLM_PROVIDER", "anthropic")),
			APIKey:      lookup("LLM_API_KEY", ""),
			BaseURL:     lookup("LLM_API_URL", ""),
			Model:       lookup("LLM_MODEL", ""),
			MaxTokens:   intValue("LLM_MAX_TOKENS", 4096, &errs),
			Timeout:     durationValue("LLM_TIMEOUT", 60*time.Second, &errs),
			Retries:     intValue("LLM_RETRIES", 3, &errs),
			BackoffBase: durationValue("LLM_BACKOFF_BASE", 400*time.Millisecond, &errs),
		},
		Redis: RedisConfig{
			URL:      lookup("REDIS_URL", ""),
			Host:     lookup("REDIS_HOST", ""),
			Port:     lookup("REDIS_PORT", "6379"),
			Password: lookup("REDIS_PASSWORD", ""),
			DB:       intValue("REDIS_DB", 0, &errs),
		},
		RateLimitPerHour: intValue("RATE_LIMIT_PER_HOUR", 600, &errs),
		JWTSecret:        lookup("JWT_SECRET", ""),
		DatabaseURL:      lookup("DATABASE_URL", ""),
		DBPath:           lookup("DB_PATH", "data/gateway.db"),
		Images: ImageConfig{
			OpenAIAPIKey: lookup("OPENAI_API_KEY", ""),
			APIURL:       lookup("OPENAI_IMAGES_API_URL", ""),
			S3Bucket:     lookup("S3_BUCKET_NAME", ""),
			AWSRegion:    lookup("AWS_REGION", ""),
		},
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %w", errs)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// lookup resolves key from the environment, then from the file named by
// KEY_FILE, then from the secrets directory.
func lookup(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if v := strings.TrimSpace(string(data)); v != "" {
				return v
			}
		}
	}
	if v := readSecret(strings.ToLower(key)); v != "" {
		return v
	}
	return fallback
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func intValue(key string, fallback int, errs *ValidationErrors) int {
	raw := lookup(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, ValidationError{Field: key, Message: fmt.Sprintf("invalid integer %q", raw)})
		return fallback
	}
	return n
}

// durationValue accepts Go durations ("750ms") or whole seconds ("30")
func durationValue(key string, fallback time.Duration, errs *ValidationErrors) time.Duration {
	raw := lookup(key, "")
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, ValidationError{Field: key, Message: fmt.Sprintf("invalid duration %q", raw)})
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
