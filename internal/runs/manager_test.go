package runs

import (
	"errors"
	"testing"

	"speech-illustrator/internal/domain"
)

// TestManagerLifecycle verifies normal progression to done state.
func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	if m.IsActive() {
		t.Fatal("new manager should be idle")
	}

	if err := m.Begin("run-1", domain.RunStatusRecording); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !m.IsActive() {
		t.Fatal("expected active after begin")
	}

	for _, status := range []domain.RunStatus{
		domain.RunStatusTranslating,
		domain.RunStatusIllustrating,
		domain.RunStatusDone,
	} {
		if err := m.Transition(status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	current := m.Current()
	if current.Status != domain.RunStatusDone {
		t.Fatalf("current status = %s, want done", current.Status)
	}
	if m.IsActive() {
		t.Fatal("done run should not be active")
	}
}

// TestManagerRejectsOverlappingRuns checks the in-flight run guard.
func TestManagerRejectsOverlappingRuns(t *testing.T) {
	m := NewManager()
	if err := m.Begin("run-1", domain.RunStatusRecording); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := m.Begin("run-2", domain.RunStatusTranslating); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("second begin error = %v, want %v", err, ErrRunInProgress)
	}

	if err := m.Transition(domain.RunStatusFailed); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := m.Begin("run-2", domain.RunStatusTranslating); err != nil {
		t.Fatalf("begin after failure: %v", err)
	}
	if m.Current().ID != "run-2" {
		t.Fatalf("current id = %s, want run-2", m.Current().ID)
	}
}

// TestManagerRejectsInvalidTransition checks state machine constraints.
func TestManagerRejectsInvalidTransition(t *testing.T) {
	m := NewManager()
	if err := m.Begin("run-1", domain.RunStatusRecording); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := m.Transition(domain.RunStatusIllustrating); err == nil {
		t.Fatal("expected invalid transition error")
	}
	if err := m.Begin("run-2", domain.RunStatusDone); err == nil {
		t.Fatal("expected invalid initial status error")
	}
}

// TestManagerTransitionRunIgnoresStaleRuns verifies late updates cannot touch a newer run.
func TestManagerTransitionRunIgnoresStaleRuns(t *testing.T) {
	m := NewManager()
	if err := m.Begin("run-1", domain.RunStatusTranslating); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := m.TransitionRun("run-0", domain.RunStatusFailed); err == nil {
		t.Fatal("expected stale run error")
	}
	if m.Current().Status != domain.RunStatusTranslating {
		t.Fatalf("status = %s, want translating", m.Current().Status)
	}
}

// TestManagerTransitionWithoutRun rejects transitions from a fresh manager.
func TestManagerTransitionWithoutRun(t *testing.T) {
	m := NewManager()
	if err := m.Transition(domain.RunStatusTranslating); !errors.Is(err, ErrNoActiveRun) {
		t.Fatalf("error = %v, want %v", err, ErrNoActiveRun)
	}
}
