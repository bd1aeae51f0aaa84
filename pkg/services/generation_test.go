package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/adaptors/stub"
	"github.com/flarelab/storylab/pkg/cache"
	"github.com/flarelab/storylab/pkg/events"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/persistence/file"
	"github.com/flarelab/storylab/pkg/prompts"
	"github.com/flarelab/storylab/pkg/services"
	"github.com/flarelab/storylab/pkg/streaming"
	"github.com/flarelab/storylab/pkg/testutil"
)

type generationFixture struct {
	service *services.Generation
	store   *prompts.Store
	p       persistence.Persistence
	project *models.Project
}

func newGenerationFixture(t *testing.T, register func(*adaptors.Registry)) *generationFixture {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	store := prompts.NewStore(p.Prompts(), cache.NewMemory(), testLogger())
	require.NoError(t, store.SeedDefaults(context.Background()))

	registry := adaptors.NewRegistry(testLogger())

	if register != nil {
		register(registry)
	} else {
		registry.Register(stub.NewAdaptor())

		for _, capability := range []models.Capability{models.CapabilityText, models.CapabilityImage, models.CapabilityVideo} {
			require.NoError(t, registry.SetDefault(capability,
				models.ModelConfig{AdaptorID: stub.AdaptorID, ModelID: "stub-" + string(capability)}))
		}
	}

	project := testutil.CreateTestProject()
	require.NoError(t, p.Projects().Save(context.Background(), project))

	return &generationFixture{
		service: services.NewGeneration(store, registry, p, testLogger()),
		store:   store,
		p:       p,
		project: project,
	}
}

func completeStages(t *testing.T, f *generationFixture, names ...string) {
	t.Helper()

	now := time.Now().UTC()
	patch := map[string]models.StageExecution{}

	for _, name := range names {
		patch[name] = models.StageExecution{Status: models.StageStatusCompleted, CompletedAt: &now}
	}

	require.NoError(t, f.p.Projects().ApplyStageUpdate(context.Background(), f.project.ID, patch, nil))
}

func TestGenerate_Themes_StreamsAndPersists(t *testing.T) {
	f := newGenerationFixture(t, nil)
	sink := streaming.NewCollector()

	err := f.service.Generate(context.Background(), f.project.ID, services.KindThemes,
		services.GenerateRequest{Count: 3, Variables: map[string]any{"brief": "retro arcade"}}, sink)
	require.NoError(t, err)

	types := sink.Types()
	require.NotEmpty(t, types)
	assert.Equal(t, events.StartEvent, types[0])
	assert.Equal(t, events.CompleteEvent, types[len(types)-1])
	assert.Contains(t, types, events.ThemeEvent)

	project, err := f.p.Projects().GetByID(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, project.Payload["themes"])
}

func TestGenerate_UnknownKind(t *testing.T) {
	f := newGenerationFixture(t, nil)

	err := f.service.Generate(context.Background(), f.project.ID, "podcasts",
		services.GenerateRequest{}, streaming.NewCollector())
	assert.ErrorIs(t, err, services.ErrUnknownKind)
}

func TestGenerate_StageGating(t *testing.T) {
	f := newGenerationFixture(t, nil)

	// composites requires the casting stage to be completed first.
	err := f.service.Generate(context.Background(), f.project.ID, services.KindImages,
		services.GenerateRequest{Count: 2}, streaming.NewCollector())
	assert.True(t, services.IsConflictError(err))

	completeStages(t, f, "themes", "casting")

	err = f.service.Generate(context.Background(), f.project.ID, services.KindImages,
		services.GenerateRequest{Count: 2}, streaming.NewCollector())
	assert.NoError(t, err)
}

func TestGenerate_ProjectNotFound(t *testing.T) {
	f := newGenerationFixture(t, nil)

	err := f.service.Generate(context.Background(), "missing", services.KindThemes,
		services.GenerateRequest{}, streaming.NewCollector())
	assert.True(t, services.IsNotFoundError(err))
}

// failEveryOther fails image generation on every second call.
type failEveryOther struct {
	stub.Adaptor

	calls int
}

func (f *failEveryOther) ID() string { return "flaky-images" }

func (f *failEveryOther) GenerateImage(ctx context.Context, prompt string, options adaptors.Options) (*adaptors.ImageResult, error) {
	f.calls++
	if f.calls%2 == 0 {
		return nil, errors.New("upstream image error")
	}

	return f.Adaptor.GenerateImage(ctx, prompt, options)
}

func TestGenerate_Images_ItemFailuresAreNonFatal(t *testing.T) {
	flaky := &failEveryOther{}

	f := newGenerationFixture(t, func(registry *adaptors.Registry) {
		registry.Register(flaky)
		require.NoError(t, registry.SetDefault(models.CapabilityImage,
			models.ModelConfig{AdaptorID: "flaky-images", ModelID: "m"}))
	})
	completeStages(t, f, "themes", "casting")

	sink := streaming.NewCollector()

	err := f.service.Generate(context.Background(), f.project.ID, services.KindImages,
		services.GenerateRequest{Count: 4}, sink)
	require.NoError(t, err)

	var imageCount, errorCount int

	for _, event := range sink.Events() {
		switch e := event.(type) {
		case events.Image:
			imageCount++
		case events.Error:
			assert.False(t, e.Fatal)

			errorCount++
		}
	}

	assert.Equal(t, 2, imageCount)
	assert.Equal(t, 2, errorCount)
	assert.Equal(t, events.CompleteEvent, sink.Types()[len(sink.Types())-1])
}

func TestGenerate_Animations_UsesStoredComposites(t *testing.T) {
	f := newGenerationFixture(t, nil)
	completeStages(t, f, "themes", "casting", "composites")

	require.NoError(t, f.p.Projects().MergePayload(context.Background(), f.project.ID,
		map[string]any{"composites": []any{"https://img/1.png", "https://img/2.png"}}))

	sink := streaming.NewCollector()

	err := f.service.Generate(context.Background(), f.project.ID, services.KindAnimations,
		services.GenerateRequest{}, sink)
	require.NoError(t, err)

	var animations int

	for _, event := range sink.Events() {
		if _, ok := event.(events.Animation); ok {
			animations++
		}
	}

	assert.Equal(t, 2, animations)

	project, err := f.p.Projects().GetByID(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Len(t, project.Payload["animations"], 2)
}

func TestGenerate_ItemEventsInOrder(t *testing.T) {
	f := newGenerationFixture(t, nil)
	completeStages(t, f, "themes", "casting")

	sink := streaming.NewCollector()

	err := f.service.Generate(context.Background(), f.project.ID, services.KindImages,
		services.GenerateRequest{Count: 5}, sink)
	require.NoError(t, err)

	previous := -1

	for _, event := range sink.Events() {
		if image, ok := event.(events.Image); ok {
			assert.Greater(t, image.Index, previous)
			previous = image.Index
		}
	}

	assert.Equal(t, 4, previous)
}
