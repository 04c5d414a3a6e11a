package domain

import (
	"fmt"
	"strings"
)

// Provider identifies one image-generation backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderStability Provider = "stability"
)

// ParseProvider normalizes user input into a known provider.
func ParseProvider(raw string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderStability:
		return ProviderStability, nil
	default:
		return "", fmt.Errorf("unknown provider: %q", raw)
	}
}

// DisplayName is the provider label used in run log messages.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderStability:
		return "StabilityAI"
	default:
		return string(p)
	}
}

// RunStatus tracks each stage of a capture-translate-illustrate run.
type RunStatus string

const (
	RunStatusIdle         RunStatus = "idle"
	RunStatusRecording    RunStatus = "recording"
	RunStatusTranslating  RunStatus = "translating"
	RunStatusIllustrating RunStatus = "illustrating"
	RunStatusDone         RunStatus = "done"
	RunStatusFailed       RunStatus = "failed"
)

// Run stores the current run identity and lifecycle status.
type Run struct {
	ID     string    `json:"id"`
	Status RunStatus `json:"status"`
}

// ArtifactEncoding tells how the StabilityAI artifact value is turned into an image reference.
type ArtifactEncoding string

const (
	ArtifactEncodingURL    ArtifactEncoding = "url"
	ArtifactEncodingBase64 ArtifactEncoding = "base64"
)

// Settings contains persisted, non-secret preferences.
type Settings struct {
	Provider         Provider         `json:"provider"`
	OpenAIBaseURL    string           `json:"openaiBaseUrl"`
	StabilityURL     string           `json:"stabilityUrl"`
	ArtifactPath     string           `json:"artifactPath"`
	ArtifactEncoding ArtifactEncoding `json:"artifactEncoding"`
}

// AudioPayload is one finalized recording, handed once to the translate stage.
type AudioPayload struct {
	Data        []byte `json:"-"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

const (
	// BrowserAudioFileName is the multipart filename used for browser recordings.
	BrowserAudioFileName = "audio.webm"
	// BrowserAudioContentType is the MediaRecorder container for browser recordings.
	BrowserAudioContentType = "audio/webm"
)

// Snapshot is the read model rendered by the view.
type Snapshot struct {
	Provider    Provider          `json:"provider"`
	Recording   bool              `json:"recording"`
	Run         Run               `json:"run"`
	Translation string            `json:"translation,omitempty"`
	ImageRef    string            `json:"imageRef,omitempty"`
	Credentials map[Provider]bool `json:"credentials"`
}
