package services_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flarelab/storylab/pkg/events"
	"github.com/flarelab/storylab/pkg/mocks"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/persistence/file"
	"github.com/flarelab/storylab/pkg/services"
	"github.com/flarelab/storylab/pkg/stages"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newProjectService(t *testing.T) (*services.Projects, persistence.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	return services.NewProjects(p, nil, testLogger()), p
}

func TestProjects_Create(t *testing.T) {
	service, _ := newProjectService(t)

	project, err := service.Create(context.Background(), services.CreateProjectRequest{
		Name:       "Neon Heist",
		Owner:      "user-1",
		PipelineID: models.PipelineStoryLab.ID,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, project.ID)
	assert.Equal(t, 0, project.CurrentStageIndex)

	loaded, err := service.Get(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neon Heist", loaded.Name)
}

func TestProjects_Create_Validation(t *testing.T) {
	service, _ := newProjectService(t)

	_, err := service.Create(context.Background(), services.CreateProjectRequest{
		Name:       "x",
		Owner:      "user-1",
		PipelineID: models.PipelineStoryLab.ID,
	})
	assert.True(t, services.IsValidationError(err))

	_, err = service.Create(context.Background(), services.CreateProjectRequest{
		Name:       "Valid Name",
		Owner:      "user-1",
		PipelineID: "mixtape",
	})
	assert.ErrorIs(t, err, services.ErrUnknownPipeline)
}

func TestProjects_CompleteStage_Advances(t *testing.T) {
	service, _ := newProjectService(t)
	ctx := context.Background()

	project, err := service.Create(ctx, services.CreateProjectRequest{
		Name: "Neon Heist", Owner: "user-1", PipelineID: models.PipelineStoryLab.ID,
	})
	require.NoError(t, err)

	updated, err := service.CompleteStage(ctx, project.ID, "personas",
		map[string]any{"personas": []any{"ada"}})
	require.NoError(t, err)

	assert.Equal(t, 1, updated.CurrentStageIndex)
	assert.True(t, updated.StageCompleted("personas"))
}

func TestProjects_CompleteStage_ReEditCascade(t *testing.T) {
	service, _ := newProjectService(t)
	ctx := context.Background()

	project, err := service.Create(ctx, services.CreateProjectRequest{
		Name: "Neon Heist", Owner: "user-1", PipelineID: models.PipelineStoryLab.ID,
	})
	require.NoError(t, err)

	for _, stage := range []string{"personas", "narratives", "storyboards"} {
		_, err = service.CompleteStage(ctx, project.ID, stage, map[string]any{"v": stage})
		require.NoError(t, err)
	}

	// Re-edit the personas stage.
	updated, err := service.CompleteStage(ctx, project.ID, "personas", map[string]any{"v": "personas-v2"})
	require.NoError(t, err)

	assert.Equal(t, 3, updated.CurrentStageIndex)
	assert.Equal(t, "personas-v2", updated.StageExecutions["personas"].Data["v"])

	for _, stage := range []string{"narratives", "storyboards"} {
		execution := updated.StageExecutions[stage]
		assert.Equal(t, models.StageStatusPending, execution.Status, stage)
		assert.Equal(t, stage, execution.Data["v"], stage)
	}
}

func TestProjects_FailAndRetryStage(t *testing.T) {
	service, _ := newProjectService(t)
	ctx := context.Background()

	project, err := service.Create(ctx, services.CreateProjectRequest{
		Name: "Neon Heist", Owner: "user-1", PipelineID: models.PipelineFlareLab.ID,
	})
	require.NoError(t, err)

	updated, err := service.FailStage(ctx, project.ID, "themes")
	require.NoError(t, err)
	assert.Equal(t, models.StageStatusFailed, updated.StageExecutions["themes"].Status)

	updated, err = service.RetryStage(ctx, project.ID, "themes")
	require.NoError(t, err)
	assert.Equal(t, models.StageStatusPending, updated.StageExecutions["themes"].Status)

	_, err = service.RetryStage(ctx, project.ID, "themes")
	assert.ErrorIs(t, err, stages.ErrStageNotFailed)
	assert.True(t, services.IsConflictError(err))
}

func TestProjects_SetModelPreference(t *testing.T) {
	service, _ := newProjectService(t)
	ctx := context.Background()

	project, err := service.Create(ctx, services.CreateProjectRequest{
		Name: "Neon Heist", Owner: "user-1", PipelineID: models.PipelineStoryLab.ID,
	})
	require.NoError(t, err)

	err = service.SetModelPreference(ctx, project.ID, "narratives", models.CapabilityText,
		models.ModelConfig{AdaptorID: "openai", ModelID: "gpt-4o-mini"})
	require.NoError(t, err)

	loaded, err := service.Get(ctx, project.ID)
	require.NoError(t, err)

	key := models.ModelPreferenceKey("narratives", models.CapabilityText)
	assert.Equal(t, "gpt-4o-mini", loaded.ModelPreferences[key].ModelID)
}

func TestProjects_CompleteStage_PublishesLifecycleEvent(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	bus := new(mocks.MockEventBus)
	bus.On("GenerateID").Return("event-1")
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := services.NewProjects(p, bus, testLogger())
	ctx := context.Background()

	project, err := service.Create(ctx, services.CreateProjectRequest{
		Name: "Neon Heist", Owner: "user-1", PipelineID: models.PipelineFlareLab.ID,
	})
	require.NoError(t, err)

	_, err = service.CompleteStage(ctx, project.ID, "themes", map[string]any{"themes": []any{"retro"}})
	require.NoError(t, err)

	bus.AssertCalled(t, "Publish", mock.Anything, project.ID, mock.MatchedBy(func(event any) bool {
		completed, ok := event.(events.StageCompleted)

		return ok && completed.StageName == "themes" && completed.StageIndex == 0
	}))
}
