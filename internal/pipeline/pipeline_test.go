package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"speech-illustrator/internal/domain"
	"speech-illustrator/internal/illustrate"
	"speech-illustrator/internal/runs"
	"speech-illustrator/internal/translate"
)

// fakeTranslator simulates the translation endpoint.
type fakeTranslator struct {
	calls     int
	translate func(payload domain.AudioPayload, credential string) (translate.Result, error)
}

// Translate delegates to injected behavior.
func (f *fakeTranslator) Translate(_ context.Context, payload domain.AudioPayload, credential string) (translate.Result, error) {
	f.calls++
	return f.translate(payload, credential)
}

// recorder collects every callback the pipeline emits.
type recorder struct {
	stages      []domain.RunStatus
	logs        []string
	errorLogs   int
	translation string
	image       string
}

func (r *recorder) request(provider domain.Provider) Request {
	return Request{
		RunID:    "run-1",
		Payload:  domain.AudioPayload{Data: []byte("audio"), FileName: domain.BrowserAudioFileName},
		Provider: provider,
		Credentials: map[domain.Provider]string{
			domain.ProviderOpenAI:    "sk-a",
			domain.ProviderStability: "stab-b",
		},
		OnStage: func(stage domain.RunStatus) { r.stages = append(r.stages, stage) },
		OnLog: func(level runs.Level, message string) {
			if level == runs.LevelError {
				r.errorLogs++
			}
			r.logs = append(r.logs, message)
		},
		OnTranslation: func(text string) { r.translation = text },
		OnImage:       func(ref string) { r.image = ref },
	}
}

type illustrateCall struct {
	prompt     string
	credential string
}

func registryWith(provider domain.Provider, calls *[]illustrateCall, fn func() (illustrate.Image, error)) *illustrate.Registry {
	reg := illustrate.NewRegistry()
	reg.Register(provider, illustrate.IllustratorFunc(func(_ context.Context, prompt, credential string) (illustrate.Image, error) {
		*calls = append(*calls, illustrateCall{prompt: prompt, credential: credential})
		return fn()
	}))
	return reg
}

func okTranslator(text string) *fakeTranslator {
	return &fakeTranslator{translate: func(domain.AudioPayload, string) (translate.Result, error) {
		return translate.Result{Text: text, StatusCode: 200}, nil
	}}
}

// TestRunSuccessOpenAI checks the full happy path and log wording.
func TestRunSuccessOpenAI(t *testing.T) {
	var calls []illustrateCall
	reg := registryWith(domain.ProviderOpenAI, &calls, func() (illustrate.Image, error) {
		return illustrate.Image{Ref: "https://img/1.png", StatusCode: 200}, nil
	})
	tr := okTranslator("a red fox")

	rec := &recorder{}
	result, err := New(tr, reg, 0).Run(context.Background(), rec.request(domain.ProviderOpenAI))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Translation != "a red fox" || result.ImageRef != "https://img/1.png" {
		t.Fatalf("result = %+v", result)
	}
	if rec.translation != "a red fox" || rec.image != "https://img/1.png" {
		t.Fatalf("state = %q / %q", rec.translation, rec.image)
	}
	if len(calls) != 1 || calls[0].prompt != "a red fox" || calls[0].credential != "sk-a" {
		t.Fatalf("illustrate calls = %+v", calls)
	}

	wantLogs := []string{
		"Translation request sent, HTTP status: 200",
		"Translation completed.",
		"Generating image with OpenAI...",
		"Image generation request sent, HTTP status: 200",
		"Image generated successfully with OpenAI.",
	}
	if !reflect.DeepEqual(rec.logs, wantLogs) {
		t.Fatalf("logs = %#v", rec.logs)
	}
	wantStages := []domain.RunStatus{domain.RunStatusTranslating, domain.RunStatusIllustrating}
	if !reflect.DeepEqual(rec.stages, wantStages) {
		t.Fatalf("stages = %v", rec.stages)
	}
}

// TestRunTranslationNon200Aborts checks the placeholder and the single status line.
func TestRunTranslationNon200Aborts(t *testing.T) {
	for _, status := range []int{201, 400, 401, 500, 503} {
		var calls []illustrateCall
		reg := registryWith(domain.ProviderOpenAI, &calls, func() (illustrate.Image, error) {
			t.Fatal("illustrate must not be called")
			return illustrate.Image{}, nil
		})
		tr := &fakeTranslator{translate: func(domain.AudioPayload, string) (translate.Result, error) {
			return translate.Result{}, &translate.TranslationError{StatusCode: status}
		}}

		rec := &recorder{image: "previous"}
		_, err := New(tr, reg, 0).Run(context.Background(), rec.request(domain.ProviderOpenAI))

		var pipeErr *PipelineError
		if !errors.As(err, &pipeErr) || pipeErr.Stage != domain.RunStatusTranslating || pipeErr.StatusCode != status {
			t.Fatalf("status %d: err = %v", status, err)
		}
		if rec.translation != TranslationPlaceholder {
			t.Fatalf("status %d: translation = %q", status, rec.translation)
		}
		if rec.image != "previous" {
			t.Fatalf("status %d: image changed to %q", status, rec.image)
		}

		statusLines := 0
		for _, line := range rec.logs {
			if strings.Contains(line, "HTTP status") {
				statusLines++
			}
		}
		if statusLines != 1 || len(rec.logs) != 1 {
			t.Fatalf("status %d: logs = %#v", status, rec.logs)
		}
		if len(calls) != 0 {
			t.Fatalf("status %d: illustrate called", status)
		}
	}
}

// TestRunTranslationTransportFailure keeps the translation untouched.
func TestRunTranslationTransportFailure(t *testing.T) {
	var calls []illustrateCall
	reg := registryWith(domain.ProviderOpenAI, &calls, func() (illustrate.Image, error) {
		return illustrate.Image{}, nil
	})
	tr := &fakeTranslator{translate: func(domain.AudioPayload, string) (translate.Result, error) {
		return translate.Result{}, &translate.TranslationError{Err: errors.New("connection refused")}
	}}

	rec := &recorder{translation: "old text"}
	_, err := New(tr, reg, 0).Run(context.Background(), rec.request(domain.ProviderOpenAI))
	if err == nil {
		t.Fatal("expected error")
	}
	if rec.translation != "old text" {
		t.Fatalf("translation = %q, want untouched", rec.translation)
	}
	if !reflect.DeepEqual(rec.logs, []string{"Error translating audio: connection refused"}) {
		t.Fatalf("logs = %#v", rec.logs)
	}
	if len(calls) != 0 {
		t.Fatal("illustrate must not be called")
	}
}

// TestRunStabilityUsesProviderCredential checks provider dispatch and credentials.
func TestRunStabilityUsesProviderCredential(t *testing.T) {
	var calls []illustrateCall
	reg := registryWith(domain.ProviderStability, &calls, func() (illustrate.Image, error) {
		return illustrate.Image{Ref: "https://stab/1.png", StatusCode: 200}, nil
	})

	rec := &recorder{}
	if _, err := New(okTranslator("sunset"), reg, 0).Run(context.Background(), rec.request(domain.ProviderStability)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(calls) != 1 || calls[0].credential != "stab-b" {
		t.Fatalf("calls = %+v", calls)
	}
	if rec.image != "https://stab/1.png" {
		t.Fatalf("image = %q", rec.image)
	}
	if rec.logs[len(rec.logs)-1] != "Image generated successfully with StabilityAI." {
		t.Fatalf("logs = %#v", rec.logs)
	}
}

// TestRunIllustrateFailures checks each image failure leaves the previous image.
func TestRunIllustrateFailures(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantLast string
	}{
		{
			name:     "status",
			err:      &illustrate.ImageGenError{StatusCode: 429},
			wantLast: "Error generating image: HTTP status 429",
		},
		{
			name:     "no artifacts",
			err:      &illustrate.NoArtifactsError{StatusCode: 200},
			wantLast: "Error generating image: no artifacts in StabilityAI response",
		},
		{
			name:     "transport",
			err:      &illustrate.ImageGenError{Err: errors.New("timeout")},
			wantLast: "Error generating image: timeout",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls []illustrateCall
			reg := registryWith(domain.ProviderStability, &calls, func() (illustrate.Image, error) {
				return illustrate.Image{}, tc.err
			})

			rec := &recorder{image: "https://img/old.png"}
			_, err := New(okTranslator("text"), reg, 0).Run(context.Background(), rec.request(domain.ProviderStability))

			var pipeErr *PipelineError
			if !errors.As(err, &pipeErr) || pipeErr.Stage != domain.RunStatusIllustrating {
				t.Fatalf("err = %v", err)
			}
			if rec.image != "https://img/old.png" {
				t.Fatalf("image = %q, want untouched", rec.image)
			}
			if rec.translation != "text" {
				t.Fatalf("translation = %q", rec.translation)
			}
			if got := rec.logs[len(rec.logs)-1]; got != tc.wantLast {
				t.Fatalf("last log = %q, want %q", got, tc.wantLast)
			}
			if rec.errorLogs != 1 {
				t.Fatalf("error logs = %d, want 1", rec.errorLogs)
			}
		})
	}
}

// TestRunUnknownProvider checks a missing registration is logged, not panicked.
func TestRunUnknownProvider(t *testing.T) {
	rec := &recorder{}
	_, err := New(okTranslator("text"), illustrate.NewRegistry(), 0).Run(context.Background(), rec.request("dalle-mini"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(rec.logs[len(rec.logs)-1], "Error generating image: no illustrator registered") {
		t.Fatalf("logs = %#v", rec.logs)
	}
}

// TestRunAppliesTimeout verifies a configured timeout bounds each network call.
func TestRunAppliesTimeout(t *testing.T) {
	var hasDeadline bool
	tr := &fakeTranslator{}
	tr.translate = func(domain.AudioPayload, string) (translate.Result, error) {
		return translate.Result{}, &translate.TranslationError{StatusCode: 500}
	}
	p := New(&deadlineTranslator{inner: tr, seen: &hasDeadline}, illustrate.NewRegistry(), 5*time.Second)

	_, _ = p.Run(context.Background(), (&recorder{}).request(domain.ProviderOpenAI))
	if !hasDeadline {
		t.Fatal("expected deadline on translate context")
	}
}

type deadlineTranslator struct {
	inner *fakeTranslator
	seen  *bool
}

func (d *deadlineTranslator) Translate(ctx context.Context, payload domain.AudioPayload, credential string) (translate.Result, error) {
	_, *d.seen = ctx.Deadline()
	return d.inner.Translate(ctx, payload, credential)
}

// TestRunStabilityMissingArtifacts drives the real StabilityAI client with bodies that carry no image.
func TestRunStabilityMissingArtifacts(t *testing.T) {
	bodies := map[string]string{
		"empty":    `{"artifacts":[]}`,
		"absent":   `{}`,
		"null":     `{"artifacts":null}`,
		"no url":   `{"artifacts":[{}]}`,
		"not json": `upstream busy`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			reg := illustrate.NewRegistry()
			reg.Register(domain.ProviderStability, illustrate.NewStabilityIllustrator(server.URL, time.Second, nil))

			rec := &recorder{image: "https://img/old.png"}
			_, err := New(okTranslator("text"), reg, 0).Run(context.Background(), rec.request(domain.ProviderStability))

			var pipeErr *PipelineError
			if !errors.As(err, &pipeErr) || pipeErr.StatusCode != http.StatusOK {
				t.Fatalf("err = %v", err)
			}
			if rec.image != "https://img/old.png" {
				t.Fatalf("image = %q, want untouched", rec.image)
			}
			tail := rec.logs[len(rec.logs)-2:]
			want := []string{
				"Image generation request sent, HTTP status: 200",
				"Error generating image: no artifacts in StabilityAI response",
			}
			if !reflect.DeepEqual(tail, want) {
				t.Fatalf("log tail = %#v", tail)
			}
		})
	}
}
