package diagnostics

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"speech-illustrator/internal/domain"
	"speech-illustrator/internal/illustrate"
)

const (
	IDInputDevice   = "input_device"
	IDOpenAIBaseURL = "openai_base_url"
	IDStabilityURL  = "stability_url"
	IDArtifact      = "artifact_parser"
	IDSettingsDir   = "settings_dir"
)

// Checker validates the recording device, provider endpoints and the settings location.
// Credentials are not checked.
type Checker struct {
	inputDevice  func() (string, error)
	settingsPath string
	mkdirAll     func(string, os.FileMode) error
	createTemp   func(string, string) (*os.File, error)
	remove       func(string) error
}

// NewChecker builds a checker using real OS dependencies.
// inputDevice may be nil when no native capture backend is available.
func NewChecker(inputDevice func() (string, error), settingsPath string) *Checker {
	return &Checker{
		inputDevice:  inputDevice,
		settingsPath: settingsPath,
		mkdirAll:     os.MkdirAll,
		createTemp:   os.CreateTemp,
		remove:       os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkInputDevice(),
		checkEndpoint(IDOpenAIBaseURL, "OpenAI endpoint", settings.OpenAIBaseURL),
		checkEndpoint(IDStabilityURL, "StabilityAI endpoint", settings.StabilityURL),
		checkArtifact(settings.ArtifactPath, settings.ArtifactEncoding),
		c.checkSettingsDir(),
	}

	return domain.NewDiagnosticReport(time.Now(), items)
}

// checkInputDevice verifies a default microphone is present.
func (c *Checker) checkInputDevice() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   IDInputDevice,
		Name: "Microphone",
	}

	if c.inputDevice == nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Native audio capture is not available."
		item.Hint = "Record in the browser view instead, or install PortAudio and restart."
		return item
	}

	name, err := c.inputDevice()
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("No input device: %v", err)
		item.Hint = "Connect a microphone and grant the app access to it."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Default input: %s", name)
	return item
}

// checkEndpoint validates an absolute http(s) URL.
func checkEndpoint(id, name, raw string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: id, Name: name}

	if err := ValidateEndpoint(raw); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = err.Error()
		item.Hint = "Restore the default endpoint or enter a full http(s) URL."
		item.Fixable = true
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = raw
	return item
}

// ValidateEndpoint reports whether raw is an absolute http(s) URL.
func ValidateEndpoint(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("endpoint is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("endpoint is not a valid URL: %s", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must use http or https: %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint has no host: %s", raw)
	}
	return nil
}

// checkArtifact validates the StabilityAI artifact parser settings.
func checkArtifact(path string, encoding domain.ArtifactEncoding) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   IDArtifact,
		Name: "StabilityAI artifact parser",
	}

	if err := illustrate.ValidateArtifactSettings(path, encoding); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = err.Error()
		item.Hint = "Use a JSON path such as artifacts.0.url with encoding url, or artifacts.0.base64 with base64."
		item.Fixable = true
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("%s (%s)", path, encoding)
	return item
}

// checkSettingsDir validates that preferences can be written.
func (c *Checker) checkSettingsDir() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   IDSettingsDir,
		Name: "Settings directory",
	}

	if strings.TrimSpace(c.settingsPath) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Settings path is empty."
		item.Hint = "Set SETTINGS_PATH to a writable file location."
		return item
	}

	dir := filepath.Dir(c.settingsPath)
	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create settings directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Settings directory is not writable: %s", dir)
		item.Hint = "Choose a writable location for settings.json."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	inputDevice func() (string, error),
	settingsPath string,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		inputDevice:  inputDevice,
		settingsPath: settingsPath,
		mkdirAll:     mkdirAll,
		createTemp:   createTemp,
		remove:       remove,
	}
}
