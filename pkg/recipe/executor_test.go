package recipe_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/adaptors/stub"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/recipe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func stubRegistry(t *testing.T) *adaptors.Registry {
	t.Helper()

	registry := adaptors.NewRegistry(testLogger())
	registry.Register(stub.NewAdaptor())

	for _, capability := range []models.Capability{models.CapabilityText, models.CapabilityImage, models.CapabilityVideo} {
		require.NoError(t, registry.SetDefault(capability,
			models.ModelConfig{AdaptorID: stub.AdaptorID, ModelID: "stub-" + string(capability)}))
	}

	return registry
}

func TestResolveInputs_ExternalAndNodeRef(t *testing.T) {
	executor := recipe.NewExecutor(stubRegistry(t), testLogger())

	node := &models.RecipeNode{
		ID: "n2",
		InputMapping: map[string]models.InputField{
			"brief":    {Source: "external_input.brief", Required: true},
			"personas": {Source: "node_personas.personas"},
		},
	}

	input, err := executor.ResolveInputs(node,
		map[string]any{"brief": "a heist"},
		map[string]any{"personas": []any{"ada"}})
	require.NoError(t, err)
	assert.Equal(t, "a heist", input["brief"])
	assert.Equal(t, []any{"ada"}, input["personas"])
}

func TestResolveInputs_RequiredExternalMissing(t *testing.T) {
	executor := recipe.NewExecutor(stubRegistry(t), testLogger())

	node := &models.RecipeNode{
		ID: "n1",
		InputMapping: map[string]models.InputField{
			"brief": {Source: "external_input.brief", Required: true},
		},
	}

	_, err := executor.ResolveInputs(node, map[string]any{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required input")
}

func TestResolveInputs_MissingValuesResolveNil(t *testing.T) {
	executor := recipe.NewExecutor(stubRegistry(t), testLogger())

	node := &models.RecipeNode{
		ID: "n2",
		InputMapping: map[string]models.InputField{
			"optional": {Source: "external_input.optional"},
			"upstream": {Source: "node_skipped.out"},
		},
	}

	input, err := executor.ResolveInputs(node, map[string]any{}, map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, input["optional"])
	assert.Nil(t, input["upstream"])
	assert.Len(t, input, 2)
}

func TestExecuteNode_TextGeneration(t *testing.T) {
	executor := recipe.NewExecutor(stubRegistry(t), testLogger())

	node := &models.RecipeNode{
		ID:        "n1",
		Name:      "Text",
		Type:      models.NodeTypeTextGeneration,
		OutputKey: "text",
		Prompt:    "Write about {{topic}}",
		InputMapping: map[string]models.InputField{
			"topic": {Source: "external_input.topic", Required: true},
		},
	}

	result := executor.ExecuteNode(context.Background(), node, nil,
		map[string]any{"topic": "robots"}, nil)
	require.True(t, result.Success, "error: %s", result.Error)
	assert.NotEmpty(t, result.Output)
	assert.Equal(t, "robots", result.Input["topic"])
	assert.False(t, result.StartedAt.IsZero())
	assert.False(t, result.CompletedAt.Before(result.StartedAt))
}

func TestExecuteNode_DataProcessingNoAdaptorCall(t *testing.T) {
	registry := adaptors.NewRegistry(testLogger())
	// No adaptors registered at all; data_processing must still work.
	executor := recipe.NewExecutor(registry, testLogger())

	node := &models.RecipeNode{
		ID:        "combine",
		Name:      "Combine",
		Type:      models.NodeTypeDataProcessing,
		OutputKey: "combined",
		Prompt:    "{{a}} and {{b}}",
		InputMapping: map[string]models.InputField{
			"a": {Source: "external_input.a"},
			"b": {Source: "external_input.b"},
		},
	}

	result := executor.ExecuteNode(context.Background(), node, nil,
		map[string]any{"a": "one", "b": "two"}, nil)
	require.True(t, result.Success)
	assert.Equal(t, "one and two", result.Output)
}

func TestExecuteNode_RequiredInputMissingFailsResult(t *testing.T) {
	executor := recipe.NewExecutor(stubRegistry(t), testLogger())

	node := &models.RecipeNode{
		ID:   "n1",
		Name: "Text",
		Type: models.NodeTypeTextGeneration,
		InputMapping: map[string]models.InputField{
			"topic": {Source: "external_input.topic", Required: true},
		},
	}

	result := executor.ExecuteNode(context.Background(), node, nil, map[string]any{}, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "required input")
}

// flakyAdaptor fails a fixed number of times before succeeding.
type flakyAdaptor struct {
	failures int
	calls    int
}

func (f *flakyAdaptor) ID() string { return "flaky" }

func (f *flakyAdaptor) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityText}
}

func (f *flakyAdaptor) GenerateText(_ context.Context, _ string, _ adaptors.Options) (*adaptors.TextResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient failure")
	}

	return &adaptors.TextResult{Text: "recovered"}, nil
}

func (f *flakyAdaptor) GenerateImage(_ context.Context, _ string, _ adaptors.Options) (*adaptors.ImageResult, error) {
	return nil, &adaptors.UnsupportedCapabilityError{AdaptorID: "flaky", Capability: models.CapabilityImage}
}

func (f *flakyAdaptor) GenerateVideo(_ context.Context, _ string, _ adaptors.Options) (*adaptors.VideoResult, error) {
	return nil, &adaptors.UnsupportedCapabilityError{AdaptorID: "flaky", Capability: models.CapabilityVideo}
}

func TestExecuteNode_RetryPolicyRecovers(t *testing.T) {
	flaky := &flakyAdaptor{failures: 2}
	registry := adaptors.NewRegistry(testLogger())
	registry.Register(flaky)

	executor := recipe.NewExecutor(registry, testLogger())

	node := &models.RecipeNode{
		ID:        "n1",
		Name:      "Flaky",
		Type:      models.NodeTypeTextGeneration,
		OutputKey: "out",
		AIModel:   models.ModelSettings{Provider: "flaky", ModelName: "flaky-1"},
		ErrorHandling: models.ErrorHandling{
			OnError:    models.ErrorPolicyRetry,
			MaxRetries: 3,
		},
	}

	result := executor.ExecuteNode(context.Background(), node, nil, nil, nil)
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "recovered", result.Output)
	assert.Equal(t, 3, flaky.calls)
}

func TestExecuteNode_RetryPolicyExhausted(t *testing.T) {
	flaky := &flakyAdaptor{failures: 10}
	registry := adaptors.NewRegistry(testLogger())
	registry.Register(flaky)

	executor := recipe.NewExecutor(registry, testLogger())

	node := &models.RecipeNode{
		ID:      "n1",
		Name:    "Flaky",
		Type:    models.NodeTypeTextGeneration,
		AIModel: models.ModelSettings{Provider: "flaky", ModelName: "flaky-1"},
		ErrorHandling: models.ErrorHandling{
			OnError:    models.ErrorPolicyRetry,
			MaxRetries: 2,
		},
	}

	result := executor.ExecuteNode(context.Background(), node, nil, nil, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "transient failure")
	// Initial attempt plus two retries.
	assert.Equal(t, 3, flaky.calls)
}
