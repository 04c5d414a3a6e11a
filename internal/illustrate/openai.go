package illustrate

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"speech-illustrator/internal/openaiclient"
)

// OpenAIIllustrator generates images with DALL-E 3.
type OpenAIIllustrator struct {
	opts openaiclient.Options
}

// NewOpenAIIllustrator creates an illustrator against opts.BaseURL.
func NewOpenAIIllustrator(opts openaiclient.Options) *OpenAIIllustrator {
	return &OpenAIIllustrator{opts: opts}
}

// Illustrate requests one 1024x1024 image; only HTTP 200 counts as success.
func (o *OpenAIIllustrator) Illustrate(ctx context.Context, prompt, credential string) (Image, error) {
	client, recorder := openaiclient.New(o.opts, credential)
	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Prompt: prompt,
		Model:  openai.CreateImageModelDallE3,
		N:      1,
		Size:   openai.CreateImageSize1024x1024,
	})

	status := recorder.Status()
	if status != 0 && status != http.StatusOK {
		return Image{}, &ImageGenError{StatusCode: status, Err: err}
	}
	if err != nil {
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.Err != nil {
			err = reqErr.Err
		}
		return Image{}, &ImageGenError{Err: err}
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return Image{}, &NoArtifactsError{StatusCode: status}
	}

	return Image{Ref: resp.Data[0].URL, StatusCode: status}, nil
}
