// Package stub implements a deterministic adaptor for development and tests.
// Every capability is supported and the output is a pure function of the
// prompt, so recipe runs against it are reproducible.
package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/models"
)

const AdaptorID = "stub"

// Adaptor answers every capability with deterministic synthetic content.
type Adaptor struct{}

// NewAdaptor creates the stub adaptor.
func NewAdaptor() *Adaptor {
	return &Adaptor{}
}

func (a *Adaptor) ID() string {
	return AdaptorID
}

func (a *Adaptor) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityText, models.CapabilityImage, models.CapabilityVideo}
}

func (a *Adaptor) GenerateText(_ context.Context, prompt string, options adaptors.Options) (*adaptors.TextResult, error) {
	if options.ResponseFormat == models.OutputFormatJSON {
		return &adaptors.TextResult{
			Text:  fmt.Sprintf(`{"stub": true, "digest": %q}`, digest(prompt)),
			Model: modelOr(options, "stub-text"),
		}, nil
	}

	return &adaptors.TextResult{
		Text:  "stub:" + digest(prompt),
		Model: modelOr(options, "stub-text"),
	}, nil
}

func (a *Adaptor) GenerateImage(_ context.Context, prompt string, options adaptors.Options) (*adaptors.ImageResult, error) {
	return &adaptors.ImageResult{
		URL:   "https://stub.invalid/images/" + digest(prompt) + ".png",
		Model: modelOr(options, "stub-image"),
	}, nil
}

func (a *Adaptor) GenerateVideo(_ context.Context, prompt string, options adaptors.Options) (*adaptors.VideoResult, error) {
	return &adaptors.VideoResult{
		URL:   "https://stub.invalid/videos/" + digest(prompt) + ".mp4",
		Model: modelOr(options, "stub-video"),
	}, nil
}

func digest(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))

	return hex.EncodeToString(sum[:8])
}

func modelOr(options adaptors.Options, fallback string) string {
	if options.Model != "" {
		return options.Model
	}

	return fallback
}
