package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"speech-illustrator/internal/domain"
)

// Env holds operator options read from the environment and an optional .env file.
// Provider keys are entered per session and are never read here.
type Env struct {
	LogLevel       string
	LogFile        string
	SettingsPath   string
	HTTPAddr       string
	AllowedOrigins []string
	RequestTimeout time.Duration
	OpenAIBaseURL  string
	StabilityURL   string
}

// LoadEnv reads operator options, loading .env when present.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		SettingsPath:   getEnv("SETTINGS_PATH", DefaultSettingsPath()),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigins: parseCommaSeparated(getEnv("HTTP_ALLOWED_ORIGINS", "*")),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		StabilityURL:   getEnv("STABILITY_URL", ""),
	}
}

// Apply overrides endpoint settings with any values set in the environment.
func (e Env) Apply(cfg domain.Settings) domain.Settings {
	if e.OpenAIBaseURL != "" {
		cfg.OpenAIBaseURL = e.OpenAIBaseURL
	}
	if e.StabilityURL != "" {
		cfg.StabilityURL = e.StabilityURL
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal >= 0 {
			return intVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
