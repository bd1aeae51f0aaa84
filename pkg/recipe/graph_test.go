package recipe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/recipe"
	"github.com/flarelab/storylab/pkg/testutil"
)

func validRecipe() *models.Recipe {
	return &models.Recipe{
		ID:   "r1",
		Name: "Persona Pipeline",
		Nodes: []*models.RecipeNode{
			{
				ID:        "personas",
				Name:      "Personas",
				Type:      models.NodeTypeTextGeneration,
				OutputKey: "personas",
				Prompt:    "Create personas for {{brief}}",
				InputMapping: map[string]models.InputField{
					"brief": {Source: "external_input.brief", Required: true},
				},
			},
			{
				ID:        "portraits",
				Name:      "Portraits",
				Type:      models.NodeTypeImageGeneration,
				OutputKey: "portraits",
				Prompt:    "Portrait of {{personas}}",
				InputMapping: map[string]models.InputField{
					"personas": {Source: "node_personas.personas"},
				},
				Dependencies: []string{"personas"},
			},
		},
		Edges: []models.Edge{{From: "personas", To: "portraits"}},
	}
}

func TestValidateGraph_Valid(t *testing.T) {
	assert.NoError(t, recipe.ValidateGraph(validRecipe()))
}

func TestValidateGraph_DuplicateID(t *testing.T) {
	r := validRecipe()
	r.Nodes[1].ID = "personas"

	err := recipe.ValidateGraph(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node ID")
}

func TestValidateGraph_DependencyMustBeEarlier(t *testing.T) {
	r := validRecipe()
	r.Nodes[0].Dependencies = []string{"portraits"}

	err := recipe.ValidateGraph(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not appear earlier")
}

func TestValidateGraph_UnknownDependency(t *testing.T) {
	r := validRecipe()
	r.Nodes[1].Dependencies = []string{"missing"}

	err := recipe.ValidateGraph(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidateGraph_NodeRefOutputKeyMismatch(t *testing.T) {
	r := validRecipe()
	r.Nodes[1].InputMapping["personas"] = models.InputField{Source: "node_personas.wrong_key"}

	err := recipe.ValidateGraph(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects output")
}

func TestValidateGraph_BackwardEdge(t *testing.T) {
	r := validRecipe()
	r.Edges = []models.Edge{{From: "portraits", To: "personas"}}

	err := recipe.ValidateGraph(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not point forward")
}

func TestValidateGraph_Empty(t *testing.T) {
	err := recipe.ValidateGraph(&models.Recipe{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no nodes")
}

func TestAncestors_Transitive(t *testing.T) {
	r := validRecipe()
	r.Nodes = append(r.Nodes, &models.RecipeNode{
		ID:        "gallery",
		Name:      "Gallery",
		Type:      models.NodeTypeDataProcessing,
		OutputKey: "gallery",
		InputMapping: map[string]models.InputField{
			"portraits": {Source: "node_portraits.portraits"},
		},
	})

	ancestors := recipe.Ancestors(r, "gallery")
	require.Len(t, ancestors, 2)
	assert.Equal(t, "personas", ancestors[0].ID)
	assert.Equal(t, "portraits", ancestors[1].ID)
}

func TestValidateDocument(t *testing.T) {
	valid := map[string]any{
		"name": "Persona Pipeline",
		"nodes": []any{
			map[string]any{
				"id":         "personas",
				"name":       "Personas",
				"type":       "text_generation",
				"output_key": "personas",
			},
		},
	}
	assert.NoError(t, recipe.ValidateDocument(valid))

	invalid := map[string]any{
		"name": "x",
		"nodes": []any{
			map[string]any{"id": "personas", "type": "unknown_type"},
		},
	}
	assert.Error(t, recipe.ValidateDocument(invalid))
}

func TestValidateGraph_BuiltRecipes(t *testing.T) {
	first := testutil.CreateTestNode(testutil.WithNodeID("outline"))
	second := testutil.CreateTestNode(
		testutil.WithNodeID("draft"),
		testutil.WithPrompt("Expand {{outline}}"),
		testutil.WithInputMapping(map[string]models.InputField{
			"outline": {Source: "node_outline.outline"},
		}),
		testutil.WithDependencies("outline"),
	)

	assert.NoError(t, recipe.ValidateGraph(testutil.CreateTestRecipe(first, second)))

	// Reversed authoring order makes the reference point forward.
	assert.Error(t, recipe.ValidateGraph(testutil.CreateTestRecipe(second, first)))
}
