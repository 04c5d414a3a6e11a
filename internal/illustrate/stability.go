package illustrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultStabilityURL is the SDXL text-to-image endpoint.
const DefaultStabilityURL = "https://api.stability.ai/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image"

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type stabilityRequest struct {
	Steps       int          `json:"steps"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Seed        int          `json:"seed"`
	CfgScale    float64      `json:"cfg_scale"`
	Samples     int          `json:"samples"`
	TextPrompts []textPrompt `json:"text_prompts"`
}

// StabilityIllustrator generates images with the StabilityAI REST API.
type StabilityIllustrator struct {
	url    string
	client *http.Client
	parser ArtifactParser
}

// NewStabilityIllustrator creates an illustrator posting to url.
func NewStabilityIllustrator(url string, timeout time.Duration, parser ArtifactParser) *StabilityIllustrator {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultStabilityURL
	}
	if parser == nil {
		parser = &PathParser{Path: DefaultArtifactPath, Encoding: DefaultArtifactEncoding}
	}
	return &StabilityIllustrator{
		url:    url,
		client: &http.Client{Timeout: timeout},
		parser: parser,
	}
}

// Illustrate posts one generation request; any 2xx status succeeds.
func (s *StabilityIllustrator) Illustrate(ctx context.Context, prompt, credential string) (Image, error) {
	body, err := json.Marshal(stabilityRequest{
		Steps:       40,
		Width:       1024,
		Height:      1024,
		Seed:        0,
		CfgScale:    5,
		Samples:     1,
		TextPrompts: []textPrompt{{Text: prompt, Weight: 1}},
	})
	if err != nil {
		return Image{}, &ImageGenError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return Image{}, &ImageGenError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := s.client.Do(req)
	if err != nil {
		return Image{}, &ImageGenError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Image{}, &ImageGenError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, &ImageGenError{Err: fmt.Errorf("read response: %w", err)}
	}

	ref, err := s.parser.Parse(raw)
	if err != nil {
		var noArtifacts *NoArtifactsError
		if errors.As(err, &noArtifacts) {
			return Image{}, &NoArtifactsError{StatusCode: resp.StatusCode, Err: noArtifacts.Err}
		}
		return Image{}, &ImageGenError{Err: err}
	}

	return Image{Ref: ref, StatusCode: resp.StatusCode}, nil
}
