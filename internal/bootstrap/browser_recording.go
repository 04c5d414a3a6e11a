package bootstrap

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"speech-illustrator/internal/capture"
	"speech-illustrator/internal/domain"
	"speech-illustrator/internal/runs"
)

// ErrNoBrowserRecording is returned when a page capture call names a run that is not recording in the page.
var ErrNoBrowserRecording = errors.New("no browser recording in progress for this run")

// BeginBrowserRecording opens a run for audio captured by the page's MediaRecorder.
// The run guard applies exactly as for the native microphone.
func (a *App) BeginBrowserRecording() (domain.Run, error) {
	runID := uuid.NewString()
	if err := a.Runs.Begin(runID, domain.RunStatusRecording); err != nil {
		return domain.Run{}, err
	}

	a.mu.Lock()
	a.browserRun = runID
	a.mu.Unlock()

	a.appendLog(runID, runs.LevelInfo, "Starting recording...")
	a.emitState()
	return a.Runs.Current(), nil
}

// ConfirmBrowserRecording marks the page microphone as acquired.
func (a *App) ConfirmBrowserRecording(runID string) error {
	if err := a.requireBrowserRun(runID); err != nil {
		return err
	}

	a.Session.SetRecording(true)
	a.appendLog(runID, runs.LevelInfo, "Recording started.")
	a.emitState()
	return nil
}

// ReportCaptureError fails a page run whose microphone could not be opened.
func (a *App) ReportCaptureError(runID, message string) error {
	if err := a.requireBrowserRun(runID); err != nil {
		return err
	}

	deviceErr := &capture.DeviceError{}
	if msg := strings.TrimSpace(message); msg != "" {
		deviceErr.Err = errors.New(msg)
	}

	a.releaseBrowserRun()
	a.Session.SetRecording(false)
	a.appendLog(runID, runs.LevelError, fmt.Sprintf("Error accessing the microphone: %v", deviceErr))
	_ = a.Runs.TransitionRun(runID, domain.RunStatusFailed)
	a.emitState()
	return nil
}

// StopBrowserRecording clears the recording flag before the page finalizes its blob.
func (a *App) StopBrowserRecording(runID string) error {
	if err := a.requireBrowserRun(runID); err != nil {
		return err
	}
	if !a.Session.Recording() {
		return capture.ErrNotRecording
	}

	a.appendLog(runID, runs.LevelInfo, "Stopping recording...")
	a.Session.SetRecording(false)
	a.emitState()
	return nil
}

// CompleteBrowserRecording translates and illustrates the finalized page recording of runID.
func (a *App) CompleteBrowserRecording(runID string, payload domain.AudioPayload) (domain.Run, error) {
	if err := a.requireBrowserRun(runID); err != nil {
		return domain.Run{}, err
	}
	a.releaseBrowserRun()
	a.Session.SetRecording(false)

	if len(payload.Data) == 0 {
		a.appendLog(runID, runs.LevelError, fmt.Sprintf("Error finalizing recording: %v", ErrEmptyRecording))
		_ = a.Runs.TransitionRun(runID, domain.RunStatusFailed)
		a.emitState()
		return a.Runs.Current(), ErrEmptyRecording
	}
	payload = withBrowserDefaults(payload)

	a.appendLog(runID, runs.LevelInfo, "Recording stopped. Translating audio...")
	a.emitState()

	a.background.Go(func() {
		a.runPipeline(runID, payload)
	})
	return a.Runs.Current(), nil
}

// SubmitBrowserRecording accepts a base64 encoded webm recording from the webview.
// An empty runID starts a fresh run from the upload.
func (a *App) SubmitBrowserRecording(runID, encoded string) (domain.Run, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return domain.Run{}, fmt.Errorf("decode recording: %w", err)
	}

	payload := domain.AudioPayload{
		Data:        data,
		FileName:    domain.BrowserAudioFileName,
		ContentType: domain.BrowserAudioContentType,
	}
	if strings.TrimSpace(runID) == "" {
		return a.SubmitRecording(payload)
	}
	return a.CompleteBrowserRecording(runID, payload)
}

func (a *App) requireBrowserRun(runID string) error {
	a.mu.Lock()
	owned := runID != "" && a.browserRun == runID
	a.mu.Unlock()

	run := a.Runs.Current()
	if !owned || run.ID != runID || run.Status != domain.RunStatusRecording {
		return ErrNoBrowserRecording
	}
	return nil
}

func (a *App) releaseBrowserRun() {
	a.mu.Lock()
	a.browserRun = ""
	a.mu.Unlock()
}

func withBrowserDefaults(payload domain.AudioPayload) domain.AudioPayload {
	if strings.TrimSpace(payload.FileName) == "" {
		payload.FileName = domain.BrowserAudioFileName
	}
	if strings.TrimSpace(payload.ContentType) == "" {
		payload.ContentType = domain.BrowserAudioContentType
	}
	return payload
}
