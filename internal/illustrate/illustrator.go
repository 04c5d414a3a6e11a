// Package illustrate turns recognized text into an image reference using a pluggable provider.
package illustrate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"speech-illustrator/internal/domain"
)

// Image is a successful generation result.
type Image struct {
	Ref        string
	StatusCode int
}

// Illustrator generates one image from prompt.
type Illustrator interface {
	Illustrate(ctx context.Context, prompt, credential string) (Image, error)
}

// IllustratorFunc adapts a function to Illustrator.
type IllustratorFunc func(ctx context.Context, prompt, credential string) (Image, error)

// Illustrate calls f.
func (f IllustratorFunc) Illustrate(ctx context.Context, prompt, credential string) (Image, error) {
	return f(ctx, prompt, credential)
}

// Registry maps providers to their illustrators.
type Registry struct {
	mu           sync.RWMutex
	illustrators map[domain.Provider]Illustrator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{illustrators: make(map[domain.Provider]Illustrator)}
}

// Register binds provider to illustrator, replacing any previous binding.
func (r *Registry) Register(provider domain.Provider, illustrator Illustrator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.illustrators[provider] = illustrator
}

// Lookup returns the illustrator for provider.
func (r *Registry) Lookup(provider domain.Provider) (Illustrator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	illustrator, ok := r.illustrators[provider]
	if !ok {
		return nil, fmt.Errorf("no illustrator registered for provider %q", provider)
	}
	return illustrator, nil
}

// Providers lists registered providers in stable order.
func (r *Registry) Providers() []domain.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Provider, 0, len(r.illustrators))
	for provider := range r.illustrators {
		out = append(out, provider)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
