package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"speech-illustrator/internal/domain"
	"speech-illustrator/internal/illustrate"
	"speech-illustrator/internal/runs"
	"speech-illustrator/internal/translate"
)

// TranslationPlaceholder replaces the translation when the endpoint rejects a recording.
const TranslationPlaceholder = "Error translating audio."

// Request contains the finalized recording and state-update callbacks for one run.
type Request struct {
	RunID       string
	Payload     domain.AudioPayload
	Provider    domain.Provider
	Credentials map[domain.Provider]string

	OnStage       func(stage domain.RunStatus)
	OnLog         func(level runs.Level, message string)
	OnTranslation func(text string)
	OnImage       func(ref string)
}

// Result holds what a completed run produced.
type Result struct {
	Translation string
	ImageRef    string
}

// PipelineError is a stage-aware failure used for run bookkeeping.
type PipelineError struct {
	Stage      domain.RunStatus `json:"stage"`
	Message    string           `json:"message"`
	StatusCode int              `json:"statusCode,omitempty"`
	Err        error            `json:"-"`
}

// Error formats pipeline failures for logs.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IllustratorResolver finds the illustrator bound to a provider.
type IllustratorResolver interface {
	Lookup(provider domain.Provider) (illustrate.Illustrator, error)
}

// Pipeline runs translate then illustrate for one recording.
type Pipeline struct {
	translator   translate.Translator
	illustrators IllustratorResolver
	timeout      time.Duration
}

// New constructs a pipeline. A zero timeout leaves network calls unbounded.
func New(translator translate.Translator, illustrators IllustratorResolver, timeout time.Duration) *Pipeline {
	return &Pipeline{
		translator:   translator,
		illustrators: illustrators,
		timeout:      timeout,
	}
}

// Run performs one translate call and, on success, one illustrate call.
// Every outcome is reported through the request callbacks; the returned error is for bookkeeping.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	emitStage(req.OnStage, domain.RunStatusTranslating)

	text, err := p.translate(ctx, req)
	if err != nil {
		return Result{}, err
	}

	emitStage(req.OnStage, domain.RunStatusIllustrating)

	ref, err := p.illustrate(ctx, req, text)
	if err != nil {
		return Result{Translation: text}, err
	}

	return Result{Translation: text, ImageRef: ref}, nil
}

func (p *Pipeline) translate(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	result, err := p.translator.Translate(callCtx, req.Payload, req.Credentials[domain.ProviderOpenAI])
	if err != nil {
		var trErr *translate.TranslationError
		if errors.As(err, &trErr) && trErr.HasStatus() {
			emitText(req.OnTranslation, TranslationPlaceholder)
			emitLog(req.OnLog, runs.LevelError, fmt.Sprintf("Error translating audio: HTTP status %d", trErr.StatusCode))
			return "", &PipelineError{
				Stage:      domain.RunStatusTranslating,
				Message:    "translation endpoint rejected the recording",
				StatusCode: trErr.StatusCode,
				Err:        err,
			}
		}

		emitLog(req.OnLog, runs.LevelError, fmt.Sprintf("Error translating audio: %v", err))
		return "", &PipelineError{
			Stage:   domain.RunStatusTranslating,
			Message: "translation request failed",
			Err:     err,
		}
	}

	emitLog(req.OnLog, runs.LevelInfo, fmt.Sprintf("Translation request sent, HTTP status: %d", result.StatusCode))
	emitText(req.OnTranslation, result.Text)
	emitLog(req.OnLog, runs.LevelInfo, "Translation completed.")
	return result.Text, nil
}

func (p *Pipeline) illustrate(ctx context.Context, req Request, text string) (string, error) {
	illustrator, err := p.illustrators.Lookup(req.Provider)
	if err != nil {
		emitLog(req.OnLog, runs.LevelError, fmt.Sprintf("Error generating image: %v", err))
		return "", &PipelineError{
			Stage:   domain.RunStatusIllustrating,
			Message: "provider is not available",
			Err:     err,
		}
	}

	name := req.Provider.DisplayName()
	emitLog(req.OnLog, runs.LevelInfo, fmt.Sprintf("Generating image with %s...", name))

	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	image, err := illustrator.Illustrate(callCtx, text, req.Credentials[req.Provider])
	if err != nil {
		return "", imageFailure(req, name, err)
	}

	emitLog(req.OnLog, runs.LevelInfo, fmt.Sprintf("Image generation request sent, HTTP status: %d", image.StatusCode))
	emitText(req.OnImage, image.Ref)
	emitLog(req.OnLog, runs.LevelInfo, fmt.Sprintf("Image generated successfully with %s.", name))
	return image.Ref, nil
}

// imageFailure logs one illustrate failure and wraps it for bookkeeping.
func imageFailure(req Request, name string, err error) error {
	failure := &PipelineError{
		Stage:   domain.RunStatusIllustrating,
		Message: "image generation failed",
		Err:     err,
	}

	var noArtifacts *illustrate.NoArtifactsError
	var genErr *illustrate.ImageGenError
	switch {
	case errors.As(err, &noArtifacts):
		if noArtifacts.StatusCode != 0 {
			emitLog(req.OnLog, runs.LevelInfo, fmt.Sprintf("Image generation request sent, HTTP status: %d", noArtifacts.StatusCode))
		}
		emitLog(req.OnLog, runs.LevelError, fmt.Sprintf("Error generating image: no artifacts in %s response", name))
		failure.Message = "response contained no artifacts"
		failure.StatusCode = noArtifacts.StatusCode
	case errors.As(err, &genErr) && genErr.HasStatus():
		emitLog(req.OnLog, runs.LevelError, fmt.Sprintf("Error generating image: HTTP status %d", genErr.StatusCode))
		failure.StatusCode = genErr.StatusCode
	default:
		emitLog(req.OnLog, runs.LevelError, fmt.Sprintf("Error generating image: %v", err))
	}
	return failure
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// emitStage forwards stage updates when callback is configured.
func emitStage(cb func(stage domain.RunStatus), stage domain.RunStatus) {
	if cb != nil {
		cb(stage)
	}
}

// emitLog forwards log lines when callback is configured.
func emitLog(cb func(level runs.Level, message string), level runs.Level, message string) {
	if cb != nil {
		cb(level, message)
	}
}

func emitText(cb func(text string), text string) {
	if cb != nil {
		cb(text)
	}
}
