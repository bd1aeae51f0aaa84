// Package testutil provides test data builders shared across packages.
package testutil

import (
	"github.com/google/uuid"

	"github.com/flarelab/storylab/pkg/models"
)

// CreateTestNode creates a text generation node with defaults that can be
// overridden.
func CreateTestNode(overrides ...func(*models.RecipeNode)) *models.RecipeNode {
	node := &models.RecipeNode{
		ID:        uuid.New().String(),
		Name:      "Test Node",
		Type:      models.NodeTypeTextGeneration,
		OutputKey: "output",
		Prompt:    "Write about {{topic}}",
		InputMapping: map[string]models.InputField{
			"topic": {Source: "external_input.topic", Required: true},
		},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithNodeID sets the node ID and output key alias.
func WithNodeID(id string) func(*models.RecipeNode) {
	return func(n *models.RecipeNode) {
		n.ID = id
		n.OutputKey = id
	}
}

// WithPrompt sets the node prompt.
func WithPrompt(prompt string) func(*models.RecipeNode) {
	return func(n *models.RecipeNode) {
		n.Prompt = prompt
	}
}

// WithInputMapping replaces the input mapping.
func WithInputMapping(mapping map[string]models.InputField) func(*models.RecipeNode) {
	return func(n *models.RecipeNode) {
		n.InputMapping = mapping
	}
}

// WithDependencies sets the authored dependencies.
func WithDependencies(ids ...string) func(*models.RecipeNode) {
	return func(n *models.RecipeNode) {
		n.Dependencies = ids
	}
}

// WithErrorPolicy sets the node failure policy.
func WithErrorPolicy(policy models.ErrorPolicy, maxRetries int) func(*models.RecipeNode) {
	return func(n *models.RecipeNode) {
		n.ErrorHandling = models.ErrorHandling{OnError: policy, MaxRetries: maxRetries}
	}
}

// CreateTestRecipe creates a recipe around the given nodes.
func CreateTestRecipe(nodes ...*models.RecipeNode) *models.Recipe {
	if len(nodes) == 0 {
		nodes = []*models.RecipeNode{CreateTestNode()}
	}

	return &models.Recipe{
		ID:    uuid.New().String(),
		Name:  "Test Recipe",
		Nodes: nodes,
	}
}

// CreateTestProject creates a FlareLab project with empty stage state.
func CreateTestProject(overrides ...func(*models.Project)) *models.Project {
	project := &models.Project{
		ID:              uuid.New().String(),
		Name:            "Test Project",
		Owner:           "test-user",
		PipelineID:      models.PipelineFlareLab.ID,
		StageExecutions: map[string]models.StageExecution{},
	}

	for _, override := range overrides {
		override(project)
	}

	return project
}

// WithPipeline sets the project pipeline.
func WithPipeline(pipelineID string) func(*models.Project) {
	return func(p *models.Project) {
		p.PipelineID = pipelineID
	}
}
