package illustrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"speech-illustrator/internal/domain"
)

const (
	// DefaultArtifactPath locates the image in a StabilityAI response.
	DefaultArtifactPath = "artifacts.0.url"
	// DefaultArtifactEncoding treats the located value as a direct reference.
	DefaultArtifactEncoding = domain.ArtifactEncodingURL

	dataURIPrefix = "data:image/png;base64,"
)

// ArtifactParser extracts an image reference from a raw response body.
type ArtifactParser interface {
	Parse(body []byte) (string, error)
}

// PathParser reads the reference at a gjson path.
type PathParser struct {
	Path     string
	Encoding domain.ArtifactEncoding
}

// NewPathParser validates path and encoding, applying defaults for empty values.
func NewPathParser(path string, encoding domain.ArtifactEncoding) (*PathParser, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultArtifactPath
	}
	if encoding == "" {
		encoding = DefaultArtifactEncoding
	}
	if err := ValidateArtifactSettings(path, encoding); err != nil {
		return nil, err
	}
	return &PathParser{Path: path, Encoding: encoding}, nil
}

// ValidateArtifactSettings checks a path and encoding pair.
func ValidateArtifactSettings(path string, encoding domain.ArtifactEncoding) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("artifact path is empty")
	}
	if strings.ContainsAny(path, " \t\n") {
		return fmt.Errorf("artifact path %q contains whitespace", path)
	}
	switch encoding {
	case domain.ArtifactEncodingURL, domain.ArtifactEncodingBase64:
		return nil
	default:
		return fmt.Errorf("unknown artifact encoding %q", encoding)
	}
}

// ErrInvalidArtifactBody is wrapped by NoArtifactsError when the body is not JSON.
var ErrInvalidArtifactBody = errors.New("response is not valid JSON")

// Parse returns the reference or a NoArtifactsError when none is present.
func (p *PathParser) Parse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &NoArtifactsError{Err: ErrInvalidArtifactBody}
	}

	value := gjson.GetBytes(body, p.Path)
	if !value.Exists() || value.Type != gjson.String || value.Str == "" {
		return "", &NoArtifactsError{}
	}

	if p.Encoding == domain.ArtifactEncodingBase64 {
		return dataURIPrefix + value.Str, nil
	}
	return value.Str, nil
}
