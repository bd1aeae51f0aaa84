package file

import (
	"context"
	"testing"
	"time"

	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func TestProjectRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	fp := newTestPersistence(t)

	project := &models.Project{
		ID:         "proj-1",
		Name:       "Neon Dusk",
		Owner:      "ann",
		PipelineID: models.PipelineStoryLab.ID,
		StageExecutions: map[string]models.StageExecution{
			"personas": {Status: models.StageStatusCompleted},
		},
	}

	require.NoError(t, fp.Projects().Save(ctx, project))

	loaded, err := fp.Projects().GetByID(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Neon Dusk", loaded.Name)
	assert.Equal(t, models.StageStatusCompleted, loaded.StageExecutions["personas"].Status)
}

func TestProjectRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	fp := newTestPersistence(t)

	_, err := fp.Projects().GetByID(ctx, "nope")
	assert.True(t, persistence.IsProjectNotFound(err))
}

func TestProjectRepository_ApplyStageUpdate(t *testing.T) {
	ctx := context.Background()
	fp := newTestPersistence(t)

	project := &models.Project{
		ID:                "proj-1",
		Name:              "Neon Dusk",
		Owner:             "ann",
		PipelineID:        models.PipelineStoryLab.ID,
		CurrentStageIndex: 1,
	}
	require.NoError(t, fp.Projects().Save(ctx, project))

	newIndex := 2
	update := map[string]models.StageExecution{
		"narratives": {Status: models.StageStatusCompleted, Data: map[string]any{"draft": "v1"}},
	}

	require.NoError(t, fp.Projects().ApplyStageUpdate(ctx, "proj-1", update, &newIndex))

	loaded, err := fp.Projects().GetByID(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.CurrentStageIndex)
	assert.Equal(t, models.StageStatusCompleted, loaded.StageExecutions["narratives"].Status)
	assert.Equal(t, "v1", loaded.StageExecutions["narratives"].Data["draft"])
}

func TestProjectRepository_DeleteIsSoft(t *testing.T) {
	ctx := context.Background()
	fp := newTestPersistence(t)

	project := &models.Project{ID: "proj-1", Name: "Neon Dusk", Owner: "ann", PipelineID: "storylab"}
	require.NoError(t, fp.Projects().Save(ctx, project))
	require.NoError(t, fp.Projects().Delete(ctx, "proj-1"))

	all, err := fp.Projects().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	loaded, err := fp.Projects().GetByID(ctx, "proj-1")
	require.NoError(t, err)
	assert.NotNil(t, loaded.DeletedAt)
}

func TestPromptRepository_OverrideRoundTrip(t *testing.T) {
	ctx := context.Background()
	fp := newTestPersistence(t)

	override := &models.PromptOverride{
		ProjectID: "proj-1",
		StageType: "personas",
		Template: models.PromptTemplate{
			ID:        "custom",
			StageType: "personas",
			Name:      "Custom personas",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityText: {UserPromptTemplate: "Describe {{name}}"},
			},
		},
	}

	require.NoError(t, fp.Prompts().SaveOverride(ctx, override))

	loaded, err := fp.Prompts().Override(ctx, "proj-1", "personas")
	require.NoError(t, err)
	assert.Equal(t, "Custom personas", loaded.Template.Name)

	require.NoError(t, fp.Prompts().DeleteOverride(ctx, "proj-1", "personas"))

	_, err = fp.Prompts().Override(ctx, "proj-1", "personas")
	assert.True(t, persistence.IsOverrideNotFound(err))
}

func TestPromptRepository_TemplatesByStageType(t *testing.T) {
	ctx := context.Background()
	fp := newTestPersistence(t)

	for _, stageType := range []string{"personas", "narratives"} {
		template := &models.PromptTemplate{
			ID:        "default",
			StageType: stageType,
			Name:      "Default " + stageType,
			IsDefault: true,
			IsActive:  true,
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityText: {UserPromptTemplate: "Generate " + stageType},
			},
		}
		require.NoError(t, fp.Prompts().SaveTemplate(ctx, template))
	}

	templates, err := fp.Prompts().TemplatesByStageType(ctx, "personas")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "personas", templates[0].StageType)

	all, err := fp.Prompts().TemplatesByStageType(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRunRepository_PruneOlderThan(t *testing.T) {
	ctx := context.Background()
	fp := newTestPersistence(t)

	old := &models.RecipeRun{ID: "run-old", RecipeID: "r1", StartedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &models.RecipeRun{ID: "run-new", RecipeID: "r1", StartedAt: time.Now()}

	require.NoError(t, fp.Runs().Save(ctx, old))
	require.NoError(t, fp.Runs().Save(ctx, fresh))

	pruned, err := fp.Runs().PruneOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	_, err = fp.Runs().GetByID(ctx, "run-old")
	assert.True(t, persistence.IsRunNotFound(err))

	runs, err := fp.Runs().GetByRecipe(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
