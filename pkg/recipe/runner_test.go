package recipe_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelab/storylab/pkg/events"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/recipe"
	"github.com/flarelab/storylab/pkg/streaming"
)

func newRunner(t *testing.T) *recipe.Runner {
	t.Helper()

	return recipe.NewRunner(recipe.NewExecutor(stubRegistry(t), testLogger()), testLogger())
}

func threeNodeRecipe(middlePolicy models.ErrorPolicy) *models.Recipe {
	return &models.Recipe{
		ID:   "r1",
		Name: "Three Steps",
		Nodes: []*models.RecipeNode{
			{
				ID:        "first",
				Name:      "First",
				Type:      models.NodeTypeTextGeneration,
				OutputKey: "first_out",
				Prompt:    "step one about {{brief}}",
				InputMapping: map[string]models.InputField{
					"brief": {Source: "external_input.brief", Required: true},
				},
			},
			{
				ID:        "second",
				Name:      "Second",
				Type:      models.NodeTypeTextGeneration,
				OutputKey: "second_out",
				Prompt:    "step two after {{first}}",
				InputMapping: map[string]models.InputField{
					// Requires an external field that callers may omit to force failure.
					"trigger": {Source: "external_input.trigger", Required: true},
					"first":   {Source: "node_first.first_out"},
				},
				ErrorHandling: models.ErrorHandling{OnError: middlePolicy},
			},
			{
				ID:        "third",
				Name:      "Third",
				Type:      models.NodeTypeDataProcessing,
				OutputKey: "third_out",
				Prompt:    "combined: {{second}}",
				InputMapping: map[string]models.InputField{
					"second": {Source: "node_second.second_out"},
				},
			},
		},
	}
}

func TestRunFull_Success(t *testing.T) {
	runner := newRunner(t)
	sink := streaming.NewCollector()

	result, err := runner.RunFull(context.Background(), threeNodeRecipe(models.ErrorPolicyFail), nil,
		map[string]any{"brief": "space", "trigger": "yes"}, sink)
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Results, 3)
	assert.Contains(t, result.Outputs, "first_out")
	assert.Contains(t, result.Outputs, "second_out")
	assert.Contains(t, result.Outputs, "third_out")

	types := sink.Types()
	assert.Equal(t, events.StartEvent, types[0])
	assert.Equal(t, events.CompleteEvent, types[len(types)-1])
}

func TestRunFull_Deterministic(t *testing.T) {
	external := map[string]any{"brief": "space", "trigger": "yes"}

	first, err := newRunner(t).RunFull(context.Background(), threeNodeRecipe(models.ErrorPolicyFail), nil, external, nil)
	require.NoError(t, err)

	second, err := newRunner(t).RunFull(context.Background(), threeNodeRecipe(models.ErrorPolicyFail), nil, external, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Outputs, second.Outputs)
}

func TestRunFull_FailPolicyHalts(t *testing.T) {
	runner := newRunner(t)
	sink := streaming.NewCollector()

	result, err := runner.RunFull(context.Background(), threeNodeRecipe(models.ErrorPolicyFail), nil,
		map[string]any{"brief": "space"}, sink)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "second", result.FailedNodeID)
	// First succeeded, second failed, third never ran.
	require.Len(t, result.Results, 2)
	assert.Contains(t, result.Outputs, "first_out")
	assert.NotContains(t, result.Outputs, "third_out")

	types := sink.Types()
	last := sink.Events()[len(types)-1]
	errorEvent, ok := last.(events.Error)
	require.True(t, ok, "last event should be error, got %v", last.GetType())
	assert.True(t, errorEvent.Fatal)
}

func TestRunFull_SkipPolicyContinuesWithNil(t *testing.T) {
	runner := newRunner(t)

	result, err := runner.RunFull(context.Background(), threeNodeRecipe(models.ErrorPolicySkip), nil,
		map[string]any{"brief": "space"}, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[1].Success)
	assert.NotContains(t, result.Outputs, "second_out")

	// Third node ran with the skipped output resolved to nil, which renders
	// as an empty value.
	assert.Equal(t, "combined: ", result.Outputs["third_out"])
}

func TestRunSingleNode_WithMocks(t *testing.T) {
	runner := newRunner(t)

	result, err := runner.RunSingleNode(context.Background(), threeNodeRecipe(models.ErrorPolicyFail), "third",
		nil, recipe.SingleNodeOptions{
			MockOutputs: map[string]any{"second": "mocked output"},
		})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "combined: mocked output", result.Outputs["third_out"])
}

func TestRunSingleNode_MissingMockResolvesNil(t *testing.T) {
	runner := newRunner(t)

	result, err := runner.RunSingleNode(context.Background(), threeNodeRecipe(models.ErrorPolicyFail), "third",
		nil, recipe.SingleNodeOptions{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "combined: ", result.Outputs["third_out"])
}

func TestRunSingleNode_ExecuteDependencies(t *testing.T) {
	runner := newRunner(t)

	result, err := runner.RunSingleNode(context.Background(), threeNodeRecipe(models.ErrorPolicyFail), "third",
		map[string]any{"brief": "space", "trigger": "yes"},
		recipe.SingleNodeOptions{ExecuteDependencies: true})
	require.NoError(t, err)

	assert.True(t, result.Success)
	// Ancestors first and second ran, then third.
	require.Len(t, result.Results, 3)
	assert.Equal(t, "first", result.Results[0].NodeID)
	assert.Equal(t, "second", result.Results[1].NodeID)
	assert.Equal(t, "third", result.Results[2].NodeID)
}

func TestRunSingleNode_UnknownNode(t *testing.T) {
	runner := newRunner(t)

	_, err := runner.RunSingleNode(context.Background(), threeNodeRecipe(models.ErrorPolicyFail), "missing",
		nil, recipe.SingleNodeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
