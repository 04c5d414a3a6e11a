// Package openaiclient builds OpenAI SDK clients that expose the raw HTTP status.
package openaiclient

import (
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the public OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Options configures client construction.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Doer overrides the HTTP transport, mainly for tests.
	Doer openai.HTTPDoer
}

// StatusRecorder remembers the status of the last response it saw.
type StatusRecorder struct {
	doer openai.HTTPDoer

	mu     sync.Mutex
	status int
}

// Do forwards the request and records the response status.
func (r *StatusRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.doer.Do(req)
	if resp != nil {
		r.mu.Lock()
		r.status = resp.StatusCode
		r.mu.Unlock()
	}
	return resp, err
}

// Status returns the last observed status, or 0 when no response arrived.
func (r *StatusRecorder) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// New returns a client bound to credential plus the recorder wired into it.
// Build one per request so the recorded status belongs to that request.
func New(opts Options, credential string) (*openai.Client, *StatusRecorder) {
	cfg := openai.DefaultConfig(credential)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.BaseURL = base
	}

	doer := opts.Doer
	if doer == nil {
		doer = &http.Client{Timeout: opts.Timeout}
	}
	recorder := &StatusRecorder{doer: doer}
	cfg.HTTPClient = recorder

	return openai.NewClientWithConfig(cfg), recorder
}
