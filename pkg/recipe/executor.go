package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/prompts"
)

// Executor runs a single recipe node against the adaptor registry.
type Executor struct {
	registry *adaptors.Registry
	logger   *slog.Logger
}

// NewExecutor creates a node executor.
func NewExecutor(registry *adaptors.Registry, logger *slog.Logger) *Executor {
	return &Executor{
		registry: registry,
		logger:   logger.With("module", "recipe"),
	}
}

// ResolveInputs materializes a node's input mapping.
//
// external_input.* fields read from the external map; node_* fields read from
// the node-ID-keyed outputs of earlier nodes. A missing upstream output (for
// example a skipped node) resolves to nil so downstream nodes can decide what
// to do with it. Only a required external field that the caller did not
// supply is an error.
func (e *Executor) ResolveInputs(node *models.RecipeNode, external map[string]any, outputs map[string]any) (map[string]any, error) {
	input := make(map[string]any, len(node.InputMapping))

	for name, field := range node.InputMapping {
		switch {
		case field.IsExternal():
			value, ok := external[field.ExternalField()]
			if !ok {
				if field.Required {
					return nil, fmt.Errorf("required input %q missing from external input field %q", name, field.ExternalField())
				}

				input[name] = nil

				continue
			}

			input[name] = value
		case field.IsNodeRef():
			refID, _ := field.NodeRef()
			input[name] = outputs[refID]
		default:
			return nil, fmt.Errorf("input %q has unrecognized source %q", name, field.Source)
		}
	}

	return input, nil
}

// ExecuteNode resolves inputs, invokes the node and records the outcome.
// The retry policy re-invokes the node; fail and skip semantics are applied
// by the runner from the returned result.
func (e *Executor) ExecuteNode(ctx context.Context, node *models.RecipeNode, project *models.Project, external map[string]any, outputs map[string]any) models.ExecutionResult {
	startedAt := time.Now()

	result := models.ExecutionResult{
		NodeID:    node.ID,
		NodeName:  node.Name,
		NodeType:  node.Type,
		StartedAt: startedAt,
	}

	input, err := e.ResolveInputs(node, external, outputs)
	if err != nil {
		return e.finish(result, nil, err, startedAt)
	}

	result.Input = input

	output, err := e.invokeWithPolicy(ctx, node, project, input)

	return e.finish(result, output, err, startedAt)
}

func (e *Executor) finish(result models.ExecutionResult, output any, err error, startedAt time.Time) models.ExecutionResult {
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(startedAt)

	if err != nil {
		result.Success = false
		result.Error = err.Error()

		return result
	}

	result.Success = true
	result.Output = output

	return result
}

func (e *Executor) invokeWithPolicy(ctx context.Context, node *models.RecipeNode, project *models.Project, input map[string]any) (any, error) {
	if node.ErrorHandling.Policy() != models.ErrorPolicyRetry {
		return e.invoke(ctx, node, project, input)
	}

	attempts := uint(node.ErrorHandling.Retries()) + 1

	return retry.DoWithData(
		func() (any, error) {
			return e.invoke(ctx, node, project, input)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(0),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			e.logger.WarnContext(ctx, "Retrying node",
				"node_id", node.ID, "attempt", attempt+1, "error", err)
		}),
	)
}

func (e *Executor) invoke(ctx context.Context, node *models.RecipeNode, project *models.Project, input map[string]any) (any, error) {
	prompt := prompts.Render(node.Prompt, input)

	if node.Type == models.NodeTypeDataProcessing {
		if node.Prompt == "" {
			return input, nil
		}

		return prompt, nil
	}

	capability, err := capabilityFor(node.Type)
	if err != nil {
		return nil, err
	}

	resolution, err := e.registry.Resolve(adaptors.ResolveRequest{
		Capability: capability,
		Explicit:   explicitConfig(node),
		Project:    project,
	})
	if err != nil {
		return nil, err
	}

	options := adaptors.Options{
		Model:       resolution.ModelID,
		Temperature: node.AIModel.Temperature,
	}

	switch capability {
	case models.CapabilityText:
		result, err := resolution.Adaptor.GenerateText(ctx, prompt, options)
		if err != nil {
			return nil, err
		}

		return result.Text, nil
	case models.CapabilityImage:
		result, err := resolution.Adaptor.GenerateImage(ctx, prompt, options)
		if err != nil {
			return nil, err
		}

		return result.URL, nil
	case models.CapabilityVideo:
		result, err := resolution.Adaptor.GenerateVideo(ctx, prompt, options)
		if err != nil {
			return nil, err
		}

		return result.URL, nil
	}

	return nil, fmt.Errorf("unhandled capability %q", capability)
}

func capabilityFor(nodeType models.NodeType) (models.Capability, error) {
	switch nodeType {
	case models.NodeTypeTextGeneration:
		return models.CapabilityText, nil
	case models.NodeTypeImageGeneration:
		return models.CapabilityImage, nil
	case models.NodeTypeVideoGeneration:
		return models.CapabilityVideo, nil
	case models.NodeTypeDataProcessing:
		return "", fmt.Errorf("data_processing nodes have no capability")
	}

	return "", fmt.Errorf("unknown node type %q", nodeType)
}

func explicitConfig(node *models.RecipeNode) *models.ModelConfig {
	if node.AIModel.Provider == "" || node.AIModel.ModelName == "" {
		return nil
	}

	return &models.ModelConfig{
		AdaptorID: node.AIModel.Provider,
		ModelID:   node.AIModel.ModelName,
	}
}
