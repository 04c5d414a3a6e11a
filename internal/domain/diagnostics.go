package domain

import "time"

// DiagnosticStatus reports the outcome of one readiness check.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one readiness check. Fixable items can be repaired with FixDiagnostic.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
	Fixable bool             `json:"fixable,omitempty"`
}

// DiagnosticReport is the readiness summary shown before a run is started.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Items       []DiagnosticItem `json:"items"`
}

// NewDiagnosticReport stamps items and derives HasFailures from them.
func NewDiagnosticReport(at time.Time, items []DiagnosticItem) DiagnosticReport {
	report := DiagnosticReport{GeneratedAt: at.UTC(), Items: items}
	report.HasFailures = len(report.Failed()) > 0
	return report
}

// Failed returns the items whose check did not pass, in report order.
func (r DiagnosticReport) Failed() []DiagnosticItem {
	var failed []DiagnosticItem
	for _, item := range r.Items {
		if item.Status == DiagnosticStatusFail {
			failed = append(failed, item)
		}
	}
	return failed
}
