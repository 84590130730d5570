package config

import (
	"os"
	"strconv"
	"time"

	"protoval/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Rules     RulesConfig
	Generator GeneratorConfig
	Session   SessionConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// RulesConfig controls rule loading and scoring
type RulesConfig struct {
	// File optionally overrides the embedded rule set.
	File string
	// Mode selects the scoring mode: "full" (six dimensions) or
	// "quick" (three).
	Mode string
	// MaxWorkers bounds concurrent dimension evaluations per run.
	MaxWorkers int
}

// GeneratorConfig holds content-generator settings
type GeneratorConfig struct {
	// Kind selects the generator adapter: "heuristic" or "openai".
	Kind        string
	OpenAIKey   string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// SessionConfig holds in-memory report store settings
type SessionConfig struct {
	TTL time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			APIPort: getEnvOrDefault("API_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Rules: RulesConfig{
			File:       getEnvOrDefault("RULES_FILE", ""),
			Mode:       getEnvOrDefault("SCORING_MODE", "full"),
			MaxWorkers: getEnvIntOrDefault("MAX_WORKERS", 4),
		},
		Generator: GeneratorConfig{
			Kind:        getEnvOrDefault("GENERATOR", "heuristic"),
			OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
			Model:       getEnvOrDefault("LLM_MODEL", "gpt-4o"),
			BaseURL:     getEnvOrDefault("OPENAI_BASE_URL", ""),
			MaxTokens:   getEnvIntOrDefault("MAX_TOKENS", 2000),
			Temperature: getEnvFloatOrDefault("TEMPERATURE", 0.4),
			Timeout:     getEnvDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		},
		Session: SessionConfig{
			TTL: getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Rules.Mode != "full" && config.Rules.Mode != "quick" {
		return errors.ConfigInvalid("SCORING_MODE must be \"full\" or \"quick\"")
	}
	if config.Rules.MaxWorkers < 1 {
		return errors.ConfigInvalid("MAX_WORKERS must be at least 1")
	}
	switch config.Generator.Kind {
	case "heuristic":
	case "openai":
		if config.Generator.OpenAIKey == "" {
			return errors.ConfigInvalid("OPENAI_API_KEY is required when GENERATOR=openai")
		}
	default:
		return errors.ConfigInvalid("GENERATOR must be \"heuristic\" or \"openai\"")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
