package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"speech-illustrator/internal/config"
	"speech-illustrator/internal/diagnostics"
	"speech-illustrator/internal/domain"
)

// FixDiagnostic applies the remediation for one failed diagnostic item.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	settingsChanged := false
	var fixErr error

	switch id {
	case diagnostics.IDOpenAIBaseURL, diagnostics.IDStabilityURL, diagnostics.IDArtifact:
		settings, settingsChanged = resetSetting(settings, id)
	case diagnostics.IDSettingsDir:
		fixErr = ensureSettingsDir(a.settingsPath())
	case diagnostics.IDInputDevice:
		fixErr = fmt.Errorf("connect a microphone and grant access, then refresh diagnostics")
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(a.env.Apply(settings))
	}
	return a.Diagnostics
}

func (a *App) settingsPath() string {
	if store, ok := a.Store.(interface{ Path() string }); ok && store.Path() != "" {
		return store.Path()
	}
	return config.DefaultSettingsPath()
}

// resetSetting restores the default value behind one diagnostic item.
func resetSetting(settings domain.Settings, id string) (domain.Settings, bool) {
	def := config.DefaultSettings()
	before := settings

	switch id {
	case diagnostics.IDOpenAIBaseURL:
		settings.OpenAIBaseURL = def.OpenAIBaseURL
	case diagnostics.IDStabilityURL:
		settings.StabilityURL = def.StabilityURL
	case diagnostics.IDArtifact:
		settings.ArtifactPath = def.ArtifactPath
		settings.ArtifactEncoding = def.ArtifactEncoding
	}
	return settings, settings != before
}

func ensureSettingsDir(settingsPath string) error {
	dir := filepath.Dir(settingsPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory %s: %w", dir, err)
	}
	return nil
}
