// Package cmd provides common initialization helpers for the command-line
// binaries.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/adaptors/openai"
	"github.com/flarelab/storylab/pkg/adaptors/stub"
	"github.com/flarelab/storylab/pkg/models"
)

// NewRegistry builds the adaptor registry. The stub adaptor is always
// registered so local runs work without credentials; OpenAI is added when an
// API key is configured and then becomes the default for text and image.
// Video defaults to the stub until a video-capable adaptor is wired.
func NewRegistry(logger *slog.Logger, openaiAPIKey, openaiBaseURL string) *adaptors.Registry {
	registry := adaptors.NewRegistry(logger)
	registry.Register(stub.NewAdaptor())

	defaults := map[models.Capability]models.ModelConfig{
		models.CapabilityText:  {AdaptorID: stub.AdaptorID, ModelID: "stub-text"},
		models.CapabilityImage: {AdaptorID: stub.AdaptorID, ModelID: "stub-image"},
		models.CapabilityVideo: {AdaptorID: stub.AdaptorID, ModelID: "stub-video"},
	}

	if openaiAPIKey != "" {
		registry.Register(openai.NewAdaptor(openaiAPIKey, openaiBaseURL))

		defaults[models.CapabilityText] = models.ModelConfig{AdaptorID: openai.AdaptorID, ModelID: "gpt-4o"}
		defaults[models.CapabilityImage] = models.ModelConfig{AdaptorID: openai.AdaptorID, ModelID: "dall-e-3"}
	}

	for capability, config := range defaults {
		if err := registry.SetDefault(capability, config); err != nil {
			panic(fmt.Errorf("failed to set default adaptor for %s: %w", capability, err))
		}
	}

	return registry
}
