package domain

import (
	"testing"
	"time"
)

// TestParseProvider verifies normalization and rejection of unknown providers.
func TestParseProvider(t *testing.T) {
	cases := map[string]Provider{
		"openai":      ProviderOpenAI,
		" OpenAI ":    ProviderOpenAI,
		"STABILITY":   ProviderStability,
		"stability\n": ProviderStability,
	}
	for raw, want := range cases {
		got, err := ParseProvider(raw)
		if err != nil || got != want {
			t.Fatalf("ParseProvider(%q) = %q, %v", raw, got, err)
		}
	}

	if _, err := ParseProvider("dall-e"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestProviderDisplayName(t *testing.T) {
	if ProviderOpenAI.DisplayName() != "OpenAI" || ProviderStability.DisplayName() != "StabilityAI" {
		t.Fatal("unexpected display names")
	}
}

// TestNewDiagnosticReportDerivesFailures verifies HasFailures follows the items.
func TestNewDiagnosticReportDerivesFailures(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	report := NewDiagnosticReport(at, []DiagnosticItem{
		{ID: "a", Status: DiagnosticStatusPass},
		{ID: "b", Status: DiagnosticStatusFail},
		{ID: "c", Status: DiagnosticStatusFail},
	})
	if !report.HasFailures || report.GeneratedAt.Location() != time.UTC {
		t.Fatalf("report = %+v", report)
	}
	failed := report.Failed()
	if len(failed) != 2 || failed[0].ID != "b" || failed[1].ID != "c" {
		t.Fatalf("failed = %+v", failed)
	}

	if NewDiagnosticReport(at, []DiagnosticItem{{ID: "a", Status: DiagnosticStatusPass}}).HasFailures {
		t.Fatal("expected no failures")
	}
}
