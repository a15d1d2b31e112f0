package config

import (
	"os"
	"strings"
)

// Environment selects which settings are mandatory and how the gateway logs
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads GATEWAY_ENV, falling back to ENV. CI=true wins over both.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}
	name := os.Getenv("GATEWAY_ENV")
	if name == "" {
		name = os.Getenv("ENV")
	}
	return ParseEnvironment(name)
}

// ParseEnvironment maps a free-form name onto a known environment.
// Unknown names are treated as development.
func ParseEnvironment(name string) Environment {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "production", "prod":
		return Production
	case "test", "testing":
		return Test
	case "ci":
		return CI
	default:
		return Development
	}
}
