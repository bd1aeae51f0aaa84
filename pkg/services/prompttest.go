package services

import (
	"context"
	"log/slog"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/aijson"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/prompts"
)

// PromptTest executes ad-hoc prompts without touching any stored state, so
// template authors can iterate before saving.
type PromptTest struct {
	registry *adaptors.Registry
	logger   *slog.Logger
}

// NewPromptTest creates the prompt test service.
func NewPromptTest(registry *adaptors.Registry, logger *slog.Logger) *PromptTest {
	return &PromptTest{
		registry: registry,
		logger:   logger.With("module", "services"),
	}
}

// PromptTestRequest is one stateless prompt invocation.
type PromptTestRequest struct {
	SystemPrompt string              `json:"system_prompt"`
	UserPrompt   string              `json:"user_prompt" validate:"required"`
	Variables    map[string]any      `json:"variables"`
	OutputFormat models.OutputFormat `json:"output_format" validate:"omitempty,oneof=text json"`
	ModelConfig  *models.ModelConfig `json:"model_config"`
}

// PromptTestResult carries the rendered prompt and the model's answer.
type PromptTestResult struct {
	Prompt    string `json:"prompt"`
	Output    any    `json:"output"`
	RawOutput string `json:"raw_output"`
	AdaptorID string `json:"adaptor_id"`
	Model     string `json:"model"`
}

// Execute renders the prompt, resolves a text adaptor and returns the answer.
// JSON-format prompts are parsed tolerantly; unparseable output comes back as
// the labeled fallback object rather than an error.
func (s *PromptTest) Execute(ctx context.Context, req PromptTestRequest) (*PromptTestResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &ServiceError{Op: "PromptTest", Message: err.Error(), Err: ErrInvalidRequest}
	}

	resolution, err := s.registry.Resolve(adaptors.ResolveRequest{
		Capability: models.CapabilityText,
		Explicit:   req.ModelConfig,
	})
	if err != nil {
		return nil, err
	}

	prompt := prompts.Render(req.UserPrompt, req.Variables)

	result, err := resolution.Adaptor.GenerateText(ctx, prompt, adaptors.Options{
		Model:          resolution.ModelID,
		SystemPrompt:   prompts.Render(req.SystemPrompt, req.Variables),
		ResponseFormat: req.OutputFormat,
	})
	if err != nil {
		return nil, err
	}

	output := any(result.Text)
	if req.OutputFormat == models.OutputFormatJSON {
		output = aijson.Extract(result.Text)
	}

	return &PromptTestResult{
		Prompt:    prompt,
		Output:    output,
		RawOutput: result.Text,
		AdaptorID: resolution.AdaptorID,
		Model:     result.Model,
	}, nil
}
