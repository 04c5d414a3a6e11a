// Package session holds the process-lifetime state owned by the presentation boundary.
package session

import (
	"strings"
	"sync"

	"speech-illustrator/internal/domain"
)

// State is the explicit state object shared by the view and the run orchestration.
// Nothing here is persisted.
type State struct {
	mu          sync.RWMutex
	credentials map[domain.Provider]string
	provider    domain.Provider
	recording   bool
	translation string
	imageRef    string
}

// New creates session state with the given default provider.
func New(provider domain.Provider) *State {
	if provider == "" {
		provider = domain.ProviderOpenAI
	}
	return &State{
		credentials: make(map[domain.Provider]string),
		provider:    provider,
	}
}

// SetCredential stores the key for one provider. Keys are not validated.
func (s *State) SetCredential(provider domain.Provider, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[provider] = strings.TrimSpace(key)
}

// Credentials returns a copy of all stored keys.
func (s *State) Credentials() map[domain.Provider]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.Provider]string, len(s.credentials))
	for provider, key := range s.credentials {
		out[provider] = key
	}
	return out
}

// SelectProvider sets the provider used by the next illustrate stage.
func (s *State) SelectProvider(provider domain.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
}

// Provider returns the current provider selection.
func (s *State) Provider() domain.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// SetRecording flips the recording flag shown on the toggle button.
func (s *State) SetRecording(recording bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = recording
}

// Recording reports the recording flag.
func (s *State) Recording() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recording
}

// SetTranslation overwrites the displayed translation result.
func (s *State) SetTranslation(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.translation = text
}

// SetImageRef overwrites the displayed image reference.
func (s *State) SetImageRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageRef = ref
}

// Snapshot builds the view model. Keys are reported by presence only.
func (s *State) Snapshot(run domain.Run) domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	present := map[domain.Provider]bool{
		domain.ProviderOpenAI:    s.credentials[domain.ProviderOpenAI] != "",
		domain.ProviderStability: s.credentials[domain.ProviderStability] != "",
	}

	return domain.Snapshot{
		Provider:    s.provider,
		Recording:   s.recording,
		Run:         run,
		Translation: s.translation,
		ImageRef:    s.imageRef,
		Credentials: present,
	}
}
