package illustrate

import "fmt"

// ImageGenError is a failed generation call.
// StatusCode is set when the provider answered with a failure status.
type ImageGenError struct {
	StatusCode int
	Err        error
}

func (e *ImageGenError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP status %d", e.StatusCode)
	}
	if e.Err == nil {
		return "image generation failed"
	}
	return e.Err.Error()
}

func (e *ImageGenError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HasStatus reports whether the provider answered with a failure status.
func (e *ImageGenError) HasStatus() bool {
	return e != nil && e.StatusCode != 0
}

// NoArtifactsError is a successful response without a usable image reference.
// Err is set when the body could not be read as JSON at all.
type NoArtifactsError struct {
	StatusCode int
	Err        error
}

func (e *NoArtifactsError) Error() string {
	if e == nil || e.Err == nil {
		return "no artifacts in response"
	}
	return "no artifacts in response: " + e.Err.Error()
}

func (e *NoArtifactsError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
