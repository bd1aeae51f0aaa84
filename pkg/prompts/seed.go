package prompts

import (
	"context"
	"fmt"

	"github.com/flarelab/storylab/pkg/models"
)

// SeedDefaults installs a default template for every built-in stage type that
// does not already have an active default. Existing templates are never
// touched, so operators can re-run seeding safely.
func (s *Store) SeedDefaults(ctx context.Context) error {
	for _, template := range defaultTemplates() {
		existing, err := s.repository.TemplatesByStageType(ctx, template.StageType)
		if err != nil {
			return fmt.Errorf("failed to check templates for %q: %w", template.StageType, err)
		}

		hasDefault := false

		for _, other := range existing {
			if other.IsDefault && other.IsActive {
				hasDefault = true

				break
			}
		}

		if hasDefault {
			continue
		}

		if err := s.SaveTemplate(ctx, template); err != nil {
			return err
		}
	}

	return nil
}

func defaultTemplates() []*models.PromptTemplate {
	return []*models.PromptTemplate{
		{
			ID:        "default-personas",
			StageType: "personas",
			Name:      "Persona Generation",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityText: {
					SystemPrompt:       "You are a character designer building distinct, believable personas.",
					UserPromptTemplate: "Create {{count}} personas for a story about {{brief}}. Return a JSON array where each persona has name, age, background and motivation.",
					OutputFormat:       models.OutputFormatJSON,
				},
			},
			Variables: []models.PromptVariable{
				{Name: "count", Description: "How many personas to generate"},
				{Name: "brief", Description: "The story brief supplied by the user"},
			},
			IsDefault: true,
			IsActive:  true,
		},
		{
			ID:        "default-narratives",
			StageType: "narratives",
			Name:      "Narrative Generation",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityText: {
					SystemPrompt:       "You are a story writer developing narrative arcs.",
					UserPromptTemplate: "Write {{count}} alternative narrative outlines featuring these personas: {{personas}}. Return a JSON array with title and synopsis per narrative.",
					OutputFormat:       models.OutputFormatJSON,
				},
			},
			Variables: []models.PromptVariable{
				{Name: "count", Description: "How many narratives to generate"},
				{Name: "personas", Description: "The personas produced by the previous stage"},
			},
			IsDefault: true,
			IsActive:  true,
		},
		{
			ID:        "default-storyboards",
			StageType: "storyboards",
			Name:      "Storyboard Generation",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityText: {
					SystemPrompt:       "You are a storyboard artist breaking a narrative into visual beats.",
					UserPromptTemplate: "Break this narrative into {{count}} storyboard frames: {{narrative}}. Return a JSON array with scene description and camera notes per frame.",
					OutputFormat:       models.OutputFormatJSON,
				},
				models.CapabilityImage: {
					UserPromptTemplate: "Storyboard frame, cinematic composition: {{scene}}",
				},
			},
			Variables: []models.PromptVariable{
				{Name: "count", Description: "How many frames to generate"},
				{Name: "narrative", Description: "The selected narrative"},
				{Name: "scene", Description: "The frame description used for image generation"},
			},
			IsDefault: true,
			IsActive:  true,
		},
		{
			ID:        "default-screenplays",
			StageType: "screenplays",
			Name:      "Screenplay Generation",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityText: {
					SystemPrompt:       "You are a screenwriter producing shootable scenes.",
					UserPromptTemplate: "Write the screenplay for these storyboard frames: {{frames}}. Return a JSON array with dialogue and action per scene.",
					OutputFormat:       models.OutputFormatJSON,
				},
			},
			Variables: []models.PromptVariable{
				{Name: "frames", Description: "The storyboard frames to script"},
			},
			IsDefault: true,
			IsActive:  true,
		},
		{
			ID:        "default-videos",
			StageType: "videos",
			Name:      "Video Generation",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityVideo: {
					UserPromptTemplate: "Cinematic shot of {{scene}}, following this direction: {{direction}}",
				},
			},
			Variables: []models.PromptVariable{
				{Name: "scene", Description: "The scene to render"},
				{Name: "direction", Description: "Camera and pacing direction from the screenplay"},
			},
			IsDefault: true,
			IsActive:  true,
		},
		{
			ID:        "default-themes",
			StageType: "themes",
			Name:      "Theme Suggestions",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityText: {
					SystemPrompt:       "You are a creative director proposing visual themes.",
					UserPromptTemplate: "Suggest {{count}} visual themes for {{brief}}. Return a JSON array with name, palette and mood per theme.",
					OutputFormat:       models.OutputFormatJSON,
				},
			},
			Variables: []models.PromptVariable{
				{Name: "count", Description: "How many themes to suggest"},
				{Name: "brief", Description: "The creative brief supplied by the user"},
			},
			IsDefault: true,
			IsActive:  true,
		},
		{
			ID:        "default-casting",
			StageType: "casting",
			Name:      "Casting Selection",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityText: {
					SystemPrompt:       "You are a casting assistant matching subjects to a theme.",
					UserPromptTemplate: "Given the theme {{theme}}, pick the {{count}} best-fitting subjects from: {{subjects}}. Return a JSON array of subject IDs with a one-line rationale each.",
					OutputFormat:       models.OutputFormatJSON,
				},
			},
			Variables: []models.PromptVariable{
				{Name: "theme", Description: "The selected theme"},
				{Name: "count", Description: "How many subjects to pick"},
				{Name: "subjects", Description: "The candidate subjects"},
			},
			IsDefault: true,
			IsActive:  true,
		},
		{
			ID:        "default-composites",
			StageType: "composites",
			Name:      "Composite Generation",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityImage: {
					UserPromptTemplate: "Composite portrait of {{subject}} in the style of {{theme}}, keeping the subject's face recognizable.",
				},
			},
			Variables: []models.PromptVariable{
				{Name: "subject", Description: "The subject to composite"},
				{Name: "theme", Description: "The selected theme"},
			},
			IsDefault: true,
			IsActive:  true,
		},
		{
			ID:        "default-animations",
			StageType: "animations",
			Name:      "Animation Generation",
			Prompts: map[models.Capability]models.PromptConfig{
				models.CapabilityVideo: {
					UserPromptTemplate: "Short looping animation of {{composite}}, subtle motion matching the {{theme}} mood.",
				},
			},
			Variables: []models.PromptVariable{
				{Name: "composite", Description: "The composite image to animate"},
				{Name: "theme", Description: "The selected theme"},
			},
			IsDefault: true,
			IsActive:  true,
		},
	}
}
