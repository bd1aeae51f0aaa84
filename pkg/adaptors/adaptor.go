// Package adaptors defines the generative capability abstraction and resolves
// which adaptor and model serve a given stage request.
package adaptors

import (
	"context"

	"github.com/flarelab/storylab/pkg/models"
)

// Options tunes a single generation call. Zero values mean "adaptor default".
type Options struct {
	Model              string
	SystemPrompt       string
	Temperature        float64
	MaxTokens          int
	ResponseFormat     models.OutputFormat
	ReferenceImageURLs []string
}

// TextResult is the outcome of a text generation call.
type TextResult struct {
	Text  string
	Model string
}

// ImageResult is the outcome of an image generation call.
type ImageResult struct {
	URL   string
	Model string
}

// VideoResult is the outcome of a video generation call.
type VideoResult struct {
	URL   string
	Model string
}

// Adaptor is one generative backend. An adaptor advertises the capabilities
// it supports; calling an unsupported capability returns an
// UnsupportedCapabilityError.
type Adaptor interface {
	ID() string
	Capabilities() []models.Capability

	GenerateText(ctx context.Context, prompt string, options Options) (*TextResult, error)
	GenerateImage(ctx context.Context, prompt string, options Options) (*ImageResult, error)
	GenerateVideo(ctx context.Context, prompt string, options Options) (*VideoResult, error)
}

// Supports reports whether the adaptor advertises the capability.
func Supports(adaptor Adaptor, capability models.Capability) bool {
	for _, c := range adaptor.Capabilities() {
		if c == capability {
			return true
		}
	}

	return false
}
