// Package persistence provides the document storage abstraction for projects,
// prompt templates, recipes and recipe runs.
package persistence

import (
	"context"
	"time"

	"github.com/flarelab/storylab/pkg/models"
)

// Persistence is the root handle to a storage backend.
type Persistence interface {
	Projects() ProjectRepository
	Prompts() PromptRepository
	Recipes() RecipeRepository
	Runs() RunRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ProjectRepository stores per-user project documents.
type ProjectRepository interface {
	GetAll(ctx context.Context) ([]*models.Project, error)
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Save(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error

	// ApplyStageUpdate merges new stage executions and an optional new current
	// stage index into the project as one atomic write. Implementations must
	// not interleave partial state: either the whole patch lands or none of it.
	ApplyStageUpdate(ctx context.Context, projectID string, stages map[string]models.StageExecution, currentStageIndex *int) error

	// MergePayload merges generated stage artifacts into the project payload
	// as one atomic write.
	MergePayload(ctx context.Context, projectID string, payload map[string]any) error
}

// PromptRepository stores shared default templates and project overrides.
type PromptRepository interface {
	TemplatesByStageType(ctx context.Context, stageType string) ([]*models.PromptTemplate, error)
	TemplateByID(ctx context.Context, stageType, id string) (*models.PromptTemplate, error)
	SaveTemplate(ctx context.Context, template *models.PromptTemplate) error

	Override(ctx context.Context, projectID, stageType string) (*models.PromptOverride, error)
	SaveOverride(ctx context.Context, override *models.PromptOverride) error
	DeleteOverride(ctx context.Context, projectID, stageType string) error
}

// RecipeRepository stores recipe definitions.
type RecipeRepository interface {
	GetAll(ctx context.Context) ([]*models.Recipe, error)
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	Save(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id string) error
}

// RunRepository stores recipe execution traces.
type RunRepository interface {
	GetByID(ctx context.Context, id string) (*models.RecipeRun, error)
	GetByRecipe(ctx context.Context, recipeID string) ([]*models.RecipeRun, error)
	Save(ctx context.Context, run *models.RecipeRun) error

	// PruneOlderThan deletes runs that started before the cutoff, returning
	// how many were removed.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
