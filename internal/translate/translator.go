// Package translate sends a finalized recording to the speech-translation endpoint.
package translate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"speech-illustrator/internal/domain"
	"speech-illustrator/internal/openaiclient"
)

// Result is a successful translation.
type Result struct {
	Text       string
	StatusCode int
}

// TranslationError is a failed translation call.
// StatusCode is set when the endpoint answered with something other than 200.
type TranslationError struct {
	StatusCode int
	Err        error
}

// Error formats the failure the way the run log shows it.
func (e *TranslationError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP status %d", e.StatusCode)
	}
	if e.Err == nil {
		return "translation failed"
	}
	return e.Err.Error()
}

// Unwrap exposes the transport cause.
func (e *TranslationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HasStatus reports whether the endpoint answered with a non-200 status.
func (e *TranslationError) HasStatus() bool {
	return e != nil && e.StatusCode != 0
}

// Translator turns spoken audio into English text.
type Translator interface {
	Translate(ctx context.Context, payload domain.AudioPayload, credential string) (Result, error)
}

// WhisperTranslator calls the OpenAI audio translations endpoint.
type WhisperTranslator struct {
	opts openaiclient.Options
}

// NewWhisperTranslator creates a translator against opts.BaseURL.
func NewWhisperTranslator(opts openaiclient.Options) *WhisperTranslator {
	return &WhisperTranslator{opts: opts}
}

// Translate performs exactly one request; only HTTP 200 counts as success.
func (t *WhisperTranslator) Translate(ctx context.Context, payload domain.AudioPayload, credential string) (Result, error) {
	fileName := payload.FileName
	if fileName == "" {
		fileName = domain.BrowserAudioFileName
	}

	client, recorder := openaiclient.New(t.opts, credential)
	resp, err := client.CreateTranslation(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: fileName,
		Reader:   bytes.NewReader(payload.Data),
	})

	status := recorder.Status()
	if status != 0 && status != http.StatusOK {
		return Result{}, &TranslationError{StatusCode: status, Err: err}
	}
	if err != nil {
		return Result{}, &TranslationError{Err: unwrapRequestError(err)}
	}

	return Result{Text: resp.Text, StatusCode: status}, nil
}

// unwrapRequestError strips the SDK wrapper so the log shows the transport cause.
func unwrapRequestError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.Err != nil {
		return reqErr.Err
	}
	return err
}
