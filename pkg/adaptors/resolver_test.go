package adaptors_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/adaptors/stub"
	"github.com/flarelab/storylab/pkg/models"
)

func newTestRegistry(t *testing.T) *adaptors.Registry {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	registry := adaptors.NewRegistry(logger)
	registry.Register(stub.NewAdaptor())

	require.NoError(t, registry.SetDefault(models.CapabilityText,
		models.ModelConfig{AdaptorID: stub.AdaptorID, ModelID: "global-model"}))

	return registry
}

func TestResolve_ExplicitWins(t *testing.T) {
	registry := newTestRegistry(t)

	resolution, err := registry.Resolve(adaptors.ResolveRequest{
		Capability: models.CapabilityText,
		StageType:  "narratives",
		Explicit:   &models.ModelConfig{AdaptorID: stub.AdaptorID, ModelID: "explicit-model"},
		Template: &models.PromptConfig{
			ModelConfig: &models.ModelConfig{AdaptorID: stub.AdaptorID, ModelID: "template-model"},
		},
		Project: &models.Project{
			ModelPreferences: map[string]models.ModelConfig{
				models.ModelPreferenceKey("narratives", models.CapabilityText): {AdaptorID: stub.AdaptorID, ModelID: "project-model"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "explicit-model", resolution.ModelID)
	assert.Equal(t, adaptors.SourceExplicit, resolution.Source)
}

func TestResolve_TemplateBeatsProject(t *testing.T) {
	registry := newTestRegistry(t)

	resolution, err := registry.Resolve(adaptors.ResolveRequest{
		Capability: models.CapabilityText,
		StageType:  "narratives",
		Template: &models.PromptConfig{
			ModelConfig: &models.ModelConfig{AdaptorID: stub.AdaptorID, ModelID: "template-model"},
		},
		Project: &models.Project{
			ModelPreferences: map[string]models.ModelConfig{
				models.ModelPreferenceKey("narratives", models.CapabilityText): {AdaptorID: stub.AdaptorID, ModelID: "project-model"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "template-model", resolution.ModelID)
	assert.Equal(t, adaptors.SourceTemplate, resolution.Source)
}

func TestResolve_ProjectBeatsGlobal(t *testing.T) {
	registry := newTestRegistry(t)

	resolution, err := registry.Resolve(adaptors.ResolveRequest{
		Capability: models.CapabilityText,
		StageType:  "narratives",
		Template:   &models.PromptConfig{},
		Project: &models.Project{
			ModelPreferences: map[string]models.ModelConfig{
				models.ModelPreferenceKey("narratives", models.CapabilityText): {AdaptorID: stub.AdaptorID, ModelID: "project-model"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "project-model", resolution.ModelID)
	assert.Equal(t, adaptors.SourceProjectDefault, resolution.Source)
}

func TestResolve_ProjectPreferenceIsPerStage(t *testing.T) {
	registry := newTestRegistry(t)

	resolution, err := registry.Resolve(adaptors.ResolveRequest{
		Capability: models.CapabilityText,
		StageType:  "storyboards",
		Project: &models.Project{
			ModelPreferences: map[string]models.ModelConfig{
				models.ModelPreferenceKey("narratives", models.CapabilityText): {AdaptorID: stub.AdaptorID, ModelID: "project-model"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, adaptors.SourceGlobalDefault, resolution.Source)
	assert.Equal(t, "global-model", resolution.ModelID)
}

func TestResolve_GlobalDefaultFallback(t *testing.T) {
	registry := newTestRegistry(t)

	resolution, err := registry.Resolve(adaptors.ResolveRequest{
		Capability: models.CapabilityText,
		StageType:  "narratives",
	})
	require.NoError(t, err)
	assert.Equal(t, "global-model", resolution.ModelID)
	assert.Equal(t, adaptors.SourceGlobalDefault, resolution.Source)
}

func TestResolve_NoDefault(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Resolve(adaptors.ResolveRequest{
		Capability: models.CapabilityVideo,
		StageType:  "videos",
	})
	assert.ErrorIs(t, err, adaptors.ErrNoDefaultAdaptor)
}

func TestResolve_UnknownAdaptor(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Resolve(adaptors.ResolveRequest{
		Capability: models.CapabilityText,
		Explicit:   &models.ModelConfig{AdaptorID: "missing", ModelID: "m"},
	})
	assert.ErrorIs(t, err, adaptors.ErrAdaptorNotRegistered)
}

func TestSetDefault_RejectsUnsupportedCapability(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	registry := adaptors.NewRegistry(logger)
	registry.Register(stub.NewAdaptor())

	err := registry.SetDefault(models.CapabilityText,
		models.ModelConfig{AdaptorID: "missing", ModelID: "m"})
	assert.ErrorIs(t, err, adaptors.ErrAdaptorNotRegistered)
}

func TestStubAdaptor_Deterministic(t *testing.T) {
	adaptor := stub.NewAdaptor()

	first, err := adaptor.GenerateText(t.Context(), "same prompt", adaptors.Options{})
	require.NoError(t, err)

	second, err := adaptor.GenerateText(t.Context(), "same prompt", adaptors.Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)

	other, err := adaptor.GenerateText(t.Context(), "different prompt", adaptors.Options{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Text, other.Text)
}
