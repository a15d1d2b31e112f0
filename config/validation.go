package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// requiredSecrets lists values that must be present in each environment
var requiredSecrets = map[Environment][]string{
	Development: {"LLM_API_KEY"},
	Test:        {},
	CI:          {},
	Production:  {"LLM_API_KEY", "JWT_SECRET"},
}

// ValidateConfig checks that the configuration meets the requirements for
// its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	values := map[string]string{
		"LLM_API_KEY": cfg.LLM.APIKey,
		"JWT_SECRET":  cfg.JWTSecret,
	}
	for _, key := range requiredSecrets[cfg.Environment] {
		if values[key] == "" {
			errs = append(errs, ValidationError{Field: key, Message: fmt.Sprintf("required in %s environment", cfg.Environment)})
		}
	}

	switch cfg.LLM.Provider {
	case "anthropic", "deepseek":
	default:
		errs = append(errs, ValidationError{Field: "LLM_PROVIDER", Message: fmt.Sprintf("unsupported provider %q", cfg.LLM.Provider)})
	}
	if cfg.LLM.MaxTokens <= 0 {
		errs = append(errs, ValidationError{Field: "LLM_MAX_TOKENS", Message: "must be positive"})
	}
	if cfg.LLM.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "LLM_TIMEOUT", Message: "must be positive"})
	}
	if cfg.LLM.Retries < 0 {
		errs = append(errs, ValidationError{Field: "LLM_RETRIES", Message: "must not be negative"})
	}
	if cfg.LLM.BackoffBase < 0 {
		errs = append(errs, ValidationError{Field: "LLM_BACKOFF_BASE", Message: "must not be negative"})
	}
	if cfg.Redis.Enabled() && cfg.RateLimitPerHour <= 0 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT_PER_HOUR", Message: "must be positive when Redis is configured"})
	}
	if cfg.Images.OpenAIAPIKey != "" && cfg.Images.S3Bucket != "" && cfg.Images.AWSRegion == "" {
		errs = append(errs, ValidationError{Field: "AWS_REGION", Message: "required when S3_BUCKET_NAME is set"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
