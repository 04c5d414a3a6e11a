package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"speech-illustrator/internal/capture"
	"speech-illustrator/internal/config"
	"speech-illustrator/internal/diagnostics"
	"speech-illustrator/internal/domain"
	"speech-illustrator/internal/illustrate"
	"speech-illustrator/internal/openaiclient"
	"speech-illustrator/internal/pipeline"
	"speech-illustrator/internal/runs"
	"speech-illustrator/internal/session"
	"speech-illustrator/internal/translate"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

const (
	// EventRunLog carries each appended run log entry to the view.
	EventRunLog = "run:log"
	// EventRunState carries the latest snapshot to the view.
	EventRunState = "run:state"
)

// ErrEmptyRecording is returned when a submitted recording has no audio.
var ErrEmptyRecording = errors.New("recording is empty")

// App wires settings, session state, the run guard, capture and the pipeline.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Runs        *runs.Manager
	Log         *runs.Log
	Session     *session.State
	Capture     captureController
	Diagnostics domain.DiagnosticReport
	env         config.Env
	assets      fs.FS
	checker     *diagnostics.Checker
	logger      *zap.Logger
	pipelineFor func(domain.Settings) pipelineRunner

	mu         sync.Mutex
	runtimeCtx context.Context
	browserRun string
	background conc.WaitGroup
}

// pipelineRunner isolates the translate/illustrate sequence behind an interface.
type pipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// captureController is the microphone state machine used by the App.
type captureController interface {
	Start(ctx context.Context, finalize capture.FinalizeFunc) error
	Stop() error
	IsRecording() bool
	Close()
}

// Options carries the collaborators built by the entry points.
type Options struct {
	Env    config.Env
	Logger *zap.Logger
	Assets fs.FS
	// Device is the native microphone; nil leaves browser uploads as the only input.
	Device capture.Device
	// InputName reports the default input device for diagnostics.
	InputName func() (string, error)
}

// New builds the application with persisted settings and startup diagnostics.
func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	settingsPath := opts.Env.SettingsPath
	if settingsPath == "" {
		settingsPath = config.DefaultSettingsPath()
	}
	store := config.NewJSONStore(settingsPath)
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker(opts.InputName, settingsPath)
	report := checker.Run(opts.Env.Apply(settings))
	for _, item := range report.Failed() {
		logger.Warn("diagnostic failed", zap.String("id", item.ID), zap.String("message", item.Message))
	}

	return &App{
		Settings:    settings,
		Store:       store,
		Runs:        runs.NewManager(),
		Log:         runs.NewLog(logger.Named("run")),
		Session:     session.New(settings.Provider),
		Capture:     capture.NewController(opts.Device),
		Diagnostics: report,
		env:         opts.Env,
		assets:      opts.Assets,
		checker:     checker,
		logger:      logger,
		pipelineFor: pipelineFactory(opts.Env.RequestTimeout),
	}, nil
}

// pipelineFactory builds a pipeline from the endpoint settings in effect for a run.
func pipelineFactory(timeout time.Duration) func(domain.Settings) pipelineRunner {
	return func(settings domain.Settings) pipelineRunner {
		opts := openaiclient.Options{BaseURL: settings.OpenAIBaseURL}
		return pipeline.New(translate.NewWhisperTranslator(opts), newRegistry(settings), timeout)
	}
}

// newRegistry registers every image provider against the endpoints in settings.
func newRegistry(settings domain.Settings) *illustrate.Registry {
	parser, err := illustrate.NewPathParser(settings.ArtifactPath, settings.ArtifactEncoding)
	if err != nil {
		parser = &illustrate.PathParser{Path: illustrate.DefaultArtifactPath, Encoding: illustrate.DefaultArtifactEncoding}
	}

	registry := illustrate.NewRegistry()
	registry.Register(domain.ProviderOpenAI, illustrate.NewOpenAIIllustrator(openaiclient.Options{BaseURL: settings.OpenAIBaseURL}))
	registry.Register(domain.ProviderStability, illustrate.NewStabilityIllustrator(settings.StabilityURL, 0, parser))
	return registry
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Speech Illustrator",
		Width:       960,
		Height:      820,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown releases the microphone and waits for in-flight runs.
func (a *App) Shutdown(context.Context) {
	a.Capture.Close()
	a.background.Wait()

	a.mu.Lock()
	a.runtimeCtx = nil
	a.mu.Unlock()
}

// Wait blocks until pending finalizations and background runs have finished.
func (a *App) Wait() {
	if ctrl, ok := a.Capture.(interface{ Wait() }); ok {
		ctrl.Wait()
	}
	a.background.Wait()
}

// SetCredential stores a session key for one provider. Keys are never persisted.
func (a *App) SetCredential(provider, key string) error {
	p, err := domain.ParseProvider(provider)
	if err != nil {
		return err
	}
	a.Session.SetCredential(p, key)
	a.emitState()
	return nil
}

// SelectProvider switches the image provider and remembers it as the default.
func (a *App) SelectProvider(provider string) error {
	p, err := domain.ParseProvider(provider)
	if err != nil {
		return err
	}
	a.Session.SelectProvider(p)

	if err := a.persistProvider(p); err != nil {
		a.logger.Warn("persist provider selection", zap.Error(err))
	}

	a.emitState()
	return nil
}

// persistProvider writes the selection on top of the stored settings only.
func (a *App) persistProvider(p domain.Provider) error {
	settings, err := a.Store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	settings = config.WithDefaults(settings)
	settings.Provider = p
	if err := a.Store.Save(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()
	return nil
}

// State returns the snapshot rendered by the view.
func (a *App) State() domain.Snapshot {
	return a.Session.Snapshot(a.Runs.Current())
}

// LogSince returns run log entries with sequence greater than sinceSeq.
func (a *App) LogSince(sinceSeq int64) []runs.Entry {
	return a.Log.Since(sinceSeq)
}

// StartRecording begins a run by acquiring the microphone.
func (a *App) StartRecording() (domain.Run, error) {
	runID := uuid.NewString()
	if err := a.Runs.Begin(runID, domain.RunStatusRecording); err != nil {
		return domain.Run{}, err
	}

	a.appendLog(runID, runs.LevelInfo, "Starting recording...")

	err := a.Capture.Start(context.Background(), func(payload domain.AudioPayload, err error) {
		a.onRecordingFinalized(runID, payload, err)
	})
	if err != nil {
		a.appendLog(runID, runs.LevelError, fmt.Sprintf("Error accessing the microphone: %v", err))
		_ = a.Runs.TransitionRun(runID, domain.RunStatusFailed)
		a.emitState()
		return a.Runs.Current(), err
	}

	a.Session.SetRecording(true)
	a.appendLog(runID, runs.LevelInfo, "Recording started.")
	a.emitState()
	return a.Runs.Current(), nil
}

// StopRecording ends capture; translation starts once the recording is finalized.
func (a *App) StopRecording() error {
	if !a.Capture.IsRecording() {
		return capture.ErrNotRecording
	}

	run := a.Runs.Current()
	a.appendLog(run.ID, runs.LevelInfo, "Stopping recording...")
	a.Session.SetRecording(false)
	if err := a.Capture.Stop(); err != nil {
		return err
	}

	a.emitState()
	return nil
}

// onRecordingFinalized runs the pipeline on the capture finalization goroutine.
func (a *App) onRecordingFinalized(runID string, payload domain.AudioPayload, err error) {
	if err != nil {
		a.appendLog(runID, runs.LevelError, fmt.Sprintf("Error finalizing recording: %v", err))
		_ = a.Runs.TransitionRun(runID, domain.RunStatusFailed)
		a.emitState()
		return
	}

	a.appendLog(runID, runs.LevelInfo, "Recording stopped. Translating audio...")
	a.runPipeline(runID, payload)
}

// SubmitRecording starts a run from an already finalized browser recording.
func (a *App) SubmitRecording(payload domain.AudioPayload) (domain.Run, error) {
	if len(payload.Data) == 0 {
		return domain.Run{}, ErrEmptyRecording
	}
	payload = withBrowserDefaults(payload)

	runID := uuid.NewString()
	if err := a.Runs.Begin(runID, domain.RunStatusTranslating); err != nil {
		return domain.Run{}, err
	}

	a.appendLog(runID, runs.LevelInfo, "Recording received. Translating audio...")
	a.emitState()

	a.background.Go(func() {
		a.runPipeline(runID, payload)
	})
	return a.Runs.Current(), nil
}

// runPipeline executes translate and illustrate and maps the outcome to the run state.
func (a *App) runPipeline(runID string, payload domain.AudioPayload) {
	req := pipeline.Request{
		RunID:       runID,
		Payload:     payload,
		Provider:    a.Session.Provider(),
		Credentials: a.Session.Credentials(),
		OnStage: func(stage domain.RunStatus) {
			if err := a.Runs.TransitionRun(runID, stage); err != nil {
				a.logger.Debug("run transition rejected", zap.String("run_id", runID), zap.Error(err))
			}
			a.emitState()
		},
		OnLog: func(level runs.Level, message string) {
			a.appendLog(runID, level, message)
		},
		OnTranslation: a.Session.SetTranslation,
		OnImage:       a.Session.SetImageRef,
	}

	if _, err := a.pipelineFor(a.currentSettings()).Run(context.Background(), req); err != nil {
		a.logger.Debug("run failed", zap.String("run_id", runID), zap.Error(err))
		_ = a.Runs.TransitionRun(runID, domain.RunStatusFailed)
		a.emitState()
		return
	}

	_ = a.Runs.TransitionRun(runID, domain.RunStatusDone)
	a.emitState()
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(a.env.Apply(normalized))
	}
	a.mu.Unlock()

	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns readiness checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(a.env.Apply(settings))
	}
	return a.Diagnostics, nil
}

// currentSettings returns the stored settings with defaults and environment overrides applied.
// Settings holds only what the store returned, so the result is never persisted.
func (a *App) currentSettings() domain.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.env.Apply(config.WithDefaults(a.Settings))
}

// appendLog stores one run log line and pushes it to the view.
func (a *App) appendLog(runID string, level runs.Level, message string) {
	entry := a.Log.Append(runs.Entry{
		RunID:   runID,
		Level:   level,
		Message: message,
	})

	if ctx := a.eventContext(); ctx != nil {
		wailsruntime.EventsEmit(ctx, EventRunLog, entry)
	}
}

// emitState pushes the current snapshot to the view.
func (a *App) emitState() {
	if ctx := a.eventContext(); ctx != nil {
		wailsruntime.EventsEmit(ctx, EventRunState, a.State())
	}
}

func (a *App) eventContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runtimeCtx
}

// normalizeSettings trims user inputs and fills missing values with defaults.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.OpenAIBaseURL = strings.TrimRight(strings.TrimSpace(settings.OpenAIBaseURL), "/")
	settings.StabilityURL = strings.TrimSpace(settings.StabilityURL)
	settings.ArtifactPath = strings.TrimSpace(settings.ArtifactPath)
	settings.ArtifactEncoding = domain.ArtifactEncoding(strings.ToLower(strings.TrimSpace(string(settings.ArtifactEncoding))))

	if provider, err := domain.ParseProvider(string(settings.Provider)); err == nil {
		settings.Provider = provider
	} else {
		settings.Provider = ""
	}
	return config.WithDefaults(settings)
}
