package config

import (
	"os"
	"path/filepath"

	"speech-illustrator/internal/domain"
	"speech-illustrator/internal/illustrate"
	"speech-illustrator/internal/openaiclient"
)

// DefaultSettings returns baseline preferences for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		Provider:         domain.ProviderOpenAI,
		OpenAIBaseURL:    openaiclient.DefaultBaseURL,
		StabilityURL:     illustrate.DefaultStabilityURL,
		ArtifactPath:     illustrate.DefaultArtifactPath,
		ArtifactEncoding: illustrate.DefaultArtifactEncoding,
	}
}

// DefaultSettingsPath is where the desktop app keeps its preferences.
func DefaultSettingsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".speech-illustrator", "settings.json")
}

// WithDefaults fills empty fields from DefaultSettings.
func WithDefaults(cfg domain.Settings) domain.Settings {
	def := DefaultSettings()
	if cfg.Provider == "" {
		cfg.Provider = def.Provider
	}
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = def.OpenAIBaseURL
	}
	if cfg.StabilityURL == "" {
		cfg.StabilityURL = def.StabilityURL
	}
	if cfg.ArtifactPath == "" {
		cfg.ArtifactPath = def.ArtifactPath
	}
	if cfg.ArtifactEncoding == "" {
		cfg.ArtifactEncoding = def.ArtifactEncoding
	}
	return cfg
}
