package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/adaptors/stub"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/persistence/file"
	"github.com/flarelab/storylab/pkg/recipe"
	"github.com/flarelab/storylab/pkg/services"
)

func stubRunner(t *testing.T) *recipe.Runner {
	t.Helper()

	registry := adaptors.NewRegistry(testLogger())
	registry.Register(stub.NewAdaptor())

	for _, capability := range []models.Capability{models.CapabilityText, models.CapabilityImage, models.CapabilityVideo} {
		require.NoError(t, registry.SetDefault(capability,
			models.ModelConfig{AdaptorID: stub.AdaptorID, ModelID: "stub-" + string(capability)}))
	}

	return recipe.NewRunner(recipe.NewExecutor(registry, testLogger()), testLogger())
}

func newRecipeService(t *testing.T) (*services.Recipes, persistence.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	return services.NewRecipes(p, stubRunner(t), nil, testLogger()), p
}

func recipeDocument() map[string]any {
	return map[string]any{
		"name": "Persona Pipeline",
		"nodes": []any{
			map[string]any{
				"id":         "personas",
				"name":       "Personas",
				"type":       "text_generation",
				"output_key": "personas",
				"prompt":     "Create personas for {{brief}}",
				"input_mapping": map[string]any{
					"brief": map[string]any{"source": "external_input.brief", "required": true},
				},
			},
			map[string]any{
				"id":         "summary",
				"name":       "Summary",
				"type":       "data_processing",
				"output_key": "summary",
				"prompt":     "personas: {{personas}}",
				"input_mapping": map[string]any{
					"personas": map[string]any{"source": "node_personas.personas"},
				},
				"dependencies": []any{"personas"},
			},
		},
	}
}

func TestRecipes_CreateAndGet(t *testing.T) {
	service, _ := newRecipeService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, recipeDocument())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	require.Len(t, created.Nodes, 2)

	loaded, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persona Pipeline", loaded.Name)
}

func TestRecipes_Create_SchemaRejected(t *testing.T) {
	service, _ := newRecipeService(t)

	document := recipeDocument()
	document["nodes"] = []any{
		map[string]any{"id": "bad", "type": "unknown_type"},
	}

	_, err := service.Create(context.Background(), document)
	assert.True(t, services.IsValidationError(err))
}

func TestRecipes_Create_GraphRejected(t *testing.T) {
	service, _ := newRecipeService(t)

	document := recipeDocument()
	nodes := document["nodes"].([]any)
	// Point the second node's input at a node that comes later.
	nodes[0].(map[string]any)["input_mapping"] = map[string]any{
		"summary": map[string]any{"source": "node_summary.summary"},
	}

	_, err := service.Create(context.Background(), document)
	assert.True(t, services.IsValidationError(err))
}

func TestRecipes_Run_PersistsTrace(t *testing.T) {
	service, p := newRecipeService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, recipeDocument())
	require.NoError(t, err)

	run, result, err := service.Run(ctx, created.ID, "", map[string]any{"brief": "space"}, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)

	stored, err := p.Runs().GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, stored.Status)
	assert.Len(t, stored.Results, 2)

	runs, err := service.Runs(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecipes_Run_FailureRecorded(t *testing.T) {
	service, p := newRecipeService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, recipeDocument())
	require.NoError(t, err)

	// Missing required external input fails the first node.
	run, result, err := service.Run(ctx, created.ID, "", map[string]any{}, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "personas", result.FailedNodeID)
	assert.Equal(t, models.RunStatusFailed, run.Status)

	stored, err := p.Runs().GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, stored.Status)
}

func TestRecipes_TestNode_WithMocks(t *testing.T) {
	service, _ := newRecipeService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, recipeDocument())
	require.NoError(t, err)

	result, err := service.TestNode(ctx, created.ID, services.TestNodeRequest{
		NodeID:      "summary",
		MockOutputs: map[string]any{"personas": "mocked personas"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "personas: mocked personas", result.Outputs["summary"])
}

func TestRecipes_TestNode_ExecuteDependencies(t *testing.T) {
	service, _ := newRecipeService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, recipeDocument())
	require.NoError(t, err)

	result, err := service.TestNode(ctx, created.ID, services.TestNodeRequest{
		NodeID:              "summary",
		ExternalInput:       map[string]any{"brief": "space"},
		ExecuteDependencies: true,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "personas", result.Results[0].NodeID)
}

func TestRecipes_TestNode_UnknownNode(t *testing.T) {
	service, _ := newRecipeService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, recipeDocument())
	require.NoError(t, err)

	_, err = service.TestNode(ctx, created.ID, services.TestNodeRequest{NodeID: "missing"})
	assert.True(t, services.IsValidationError(err))
}
