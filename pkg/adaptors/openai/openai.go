// Package openai implements the OpenAI-backed capability adaptor over the
// Chat Completions and Images APIs. A custom base URL routes the same adaptor
// at any OpenAI-compatible provider.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/models"
)

const (
	AdaptorID = "openai"

	defaultTextModel  = "gpt-4o"
	defaultImageModel = "dall-e-3"
	defaultMaxTokens  = 4096
)

// Adaptor calls OpenAI for text and image generation. Video is not offered
// by the API, so the capability is not advertised.
type Adaptor struct {
	client openai.Client
}

// NewAdaptor creates the OpenAI adaptor. baseURL is optional and points the
// client at a compatible provider when set.
func NewAdaptor(apiKey, baseURL string) *Adaptor {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Adaptor{client: openai.NewClient(opts...)}
}

func (a *Adaptor) ID() string {
	return AdaptorID
}

func (a *Adaptor) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityText, models.CapabilityImage}
}

func (a *Adaptor) GenerateText(ctx context.Context, prompt string, options adaptors.Options) (*adaptors.TextResult, error) {
	model := options.Model
	if model == "" {
		model = defaultTextModel
	}

	maxTokens := options.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if options.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(options.SystemPrompt))
	}

	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}

	if options.Temperature > 0 {
		params.Temperature = openai.Float(options.Temperature)
	}

	if options.ResponseFormat == models.OutputFormatJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &adaptors.UnavailableError{AdaptorID: AdaptorID, Model: model, Err: err}
	}

	if len(completion.Choices) == 0 {
		return nil, &adaptors.UnavailableError{
			AdaptorID: AdaptorID,
			Model:     model,
			Err:       fmt.Errorf("completion returned no choices"),
		}
	}

	return &adaptors.TextResult{
		Text:  completion.Choices[0].Message.Content,
		Model: completion.Model,
	}, nil
}

func (a *Adaptor) GenerateImage(ctx context.Context, prompt string, options adaptors.Options) (*adaptors.ImageResult, error) {
	model := options.Model
	if model == "" {
		model = defaultImageModel
	}

	response, err := a.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(model),
		N:      openai.Int(1),
	})
	if err != nil {
		return nil, &adaptors.UnavailableError{AdaptorID: AdaptorID, Model: model, Err: err}
	}

	if len(response.Data) == 0 {
		return nil, &adaptors.UnavailableError{
			AdaptorID: AdaptorID,
			Model:     model,
			Err:       fmt.Errorf("image generation returned no data"),
		}
	}

	return &adaptors.ImageResult{
		URL:   response.Data[0].URL,
		Model: model,
	}, nil
}

func (a *Adaptor) GenerateVideo(_ context.Context, _ string, _ adaptors.Options) (*adaptors.VideoResult, error) {
	return nil, &adaptors.UnsupportedCapabilityError{AdaptorID: AdaptorID, Capability: models.CapabilityVideo}
}
