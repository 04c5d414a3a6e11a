package runs

import (
	"errors"
	"fmt"
	"sync"

	"speech-illustrator/internal/domain"
)

// ErrRunInProgress is returned when a second run is started while one is active.
var ErrRunInProgress = errors.New("run already in progress")

// ErrNoActiveRun is returned when a transition is requested without a run.
var ErrNoActiveRun = errors.New("no active run")

// Manager tracks the single in-flight run and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Run
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Run{
			Status: domain.RunStatusIdle,
		},
	}
}

// Begin starts a new run at the given initial stage.
// Runs may start either by recording or from an already finalized upload.
func (m *Manager) Begin(runID string, initial domain.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isActive(m.current.Status) {
		return ErrRunInProgress
	}
	if initial != domain.RunStatusRecording && initial != domain.RunStatusTranslating {
		return fmt.Errorf("invalid initial status: %s", initial)
	}

	m.current = domain.Run{
		ID:     runID,
		Status: initial,
	}
	return nil
}

// Transition validates and applies a status change for the current run.
func (m *Manager) Transition(status domain.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.RunStatusIdle {
		return ErrNoActiveRun
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// TransitionRun applies a transition only when runID is still the current run.
func (m *Manager) TransitionRun(runID string, status domain.RunStatus) error {
	m.mu.RLock()
	currentID := m.current.ID
	m.mu.RUnlock()

	if currentID != runID {
		return fmt.Errorf("run %s is not current", runID)
	}
	return m.Transition(status)
}

// Current returns a snapshot of the current run.
func (m *Manager) Current() domain.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsActive reports whether a run is recording, translating or illustrating.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isActive(m.current.Status)
}

func isActive(status domain.RunStatus) bool {
	switch status {
	case domain.RunStatusRecording, domain.RunStatusTranslating, domain.RunStatusIllustrating:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed run state machine edges.
func isValidTransition(from, to domain.RunStatus) bool {
	switch from {
	case domain.RunStatusIdle:
		return to == domain.RunStatusRecording || to == domain.RunStatusTranslating
	case domain.RunStatusRecording:
		return to == domain.RunStatusTranslating || to == domain.RunStatusFailed
	case domain.RunStatusTranslating:
		return to == domain.RunStatusIllustrating || to == domain.RunStatusFailed
	case domain.RunStatusIllustrating:
		return to == domain.RunStatusDone || to == domain.RunStatusFailed
	case domain.RunStatusDone, domain.RunStatusFailed:
		return to == domain.RunStatusRecording || to == domain.RunStatusTranslating || to == domain.RunStatusIdle
	default:
		return false
	}
}
