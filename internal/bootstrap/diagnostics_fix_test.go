package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"speech-illustrator/internal/config"
	"speech-illustrator/internal/diagnostics"
	"speech-illustrator/internal/domain"
)

// TestFixDiagnosticResetsEndpoint ensures a broken endpoint is restored and saved.
func TestFixDiagnosticResetsEndpoint(t *testing.T) {
	settings := config.DefaultSettings()
	settings.OpenAIBaseURL = "not a url"
	app := newTestApp(settings, nil)
	store := app.Store.(*fakeStore)

	if _, err := app.FixDiagnostic(diagnostics.IDOpenAIBaseURL); err != nil {
		t.Fatalf("fix: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("saves = %d, want 1", store.saves)
	}
	if store.settings.OpenAIBaseURL != config.DefaultSettings().OpenAIBaseURL {
		t.Fatalf("openai base = %q", store.settings.OpenAIBaseURL)
	}
}

// TestFixDiagnosticResetsArtifactParser restores path and encoding together.
func TestFixDiagnosticResetsArtifactParser(t *testing.T) {
	settings := config.DefaultSettings()
	settings.ArtifactPath = "images[0]"
	settings.ArtifactEncoding = domain.ArtifactEncodingBase64
	app := newTestApp(settings, nil)

	if _, err := app.FixDiagnostic(diagnostics.IDArtifact); err != nil {
		t.Fatalf("fix: %v", err)
	}
	got := app.Store.(*fakeStore).settings
	if got.ArtifactPath != "artifacts.0.url" || got.ArtifactEncoding != domain.ArtifactEncodingURL {
		t.Fatalf("artifact = %q/%q", got.ArtifactPath, got.ArtifactEncoding)
	}
}

// TestFixDiagnosticUnchangedSettingsSkipsSave avoids writes when defaults are already set.
func TestFixDiagnosticUnchangedSettingsSkipsSave(t *testing.T) {
	app := newTestApp(config.DefaultSettings(), nil)
	if _, err := app.FixDiagnostic(diagnostics.IDStabilityURL); err != nil {
		t.Fatalf("fix: %v", err)
	}
	if saves := app.Store.(*fakeStore).saves; saves != 0 {
		t.Fatalf("saves = %d, want 0", saves)
	}
}

// TestFixDiagnosticSettingsDir creates the settings directory.
func TestFixDiagnosticSettingsDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	app := newTestApp(config.DefaultSettings(), nil)
	app.Store = config.NewJSONStore(path)

	if _, err := app.FixDiagnostic(diagnostics.IDSettingsDir); err != nil {
		t.Fatalf("fix: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Fatalf("settings dir missing: %v", err)
	}
}

// TestFixDiagnosticRejectsUnknownAndManualItems covers unsupported ids.
func TestFixDiagnosticRejectsUnknownAndManualItems(t *testing.T) {
	app := newTestApp(config.DefaultSettings(), nil)
	if _, err := app.FixDiagnostic("tool_ffmpeg"); err == nil {
		t.Fatal("expected unsupported id error")
	}
	if _, err := app.FixDiagnostic(diagnostics.IDInputDevice); err == nil {
		t.Fatal("expected manual fix error")
	}
	if _, err := app.FixDiagnostic("  "); err == nil {
		t.Fatal("expected empty id error")
	}
}
