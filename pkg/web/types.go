// Package web provides HTTP request and response types for the StoryLab API.
package web

import "github.com/flarelab/storylab/pkg/models"

// UpdateTemplateRequest is the body for the template upsert endpoint. All
// fields are optional so existing templates can be patched; a template that
// does not exist yet must carry at least a name and one prompt.
type UpdateTemplateRequest struct {
	Name      *string                                   `json:"name,omitempty" validate:"omitempty,min=3"`
	Prompts   map[models.Capability]models.PromptConfig `json:"prompts,omitempty"`
	Variables []models.PromptVariable                   `json:"variables,omitempty"`
	IsDefault *bool                                     `json:"is_default,omitempty"`
	IsActive  *bool                                     `json:"is_active,omitempty"`
}

// OverrideRequest replaces the default template for one stage type within a
// single project.
type OverrideRequest struct {
	ProjectID      string                `json:"project_id"      validate:"required"`
	StageType      string                `json:"stage_type"      validate:"required"`
	PromptTemplate models.PromptTemplate `json:"prompt_template" validate:"required"`
}

// ModelConfigRequest rebinds a stage capability to a different model. With a
// project ID it updates that project's preference; without one it updates the
// resolved default template.
type ModelConfigRequest struct {
	StageType   string             `json:"stage_type"   validate:"required"`
	Capability  models.Capability  `json:"capability"   validate:"required,oneof=text image video"`
	ModelConfig models.ModelConfig `json:"model_config" validate:"required"`
	ProjectID   string             `json:"project_id,omitempty"`
	TemplateID  string             `json:"template_id,omitempty"`
}

// RunRecipeRequest is the body for a full recipe run.
type RunRecipeRequest struct {
	ProjectID     string         `json:"project_id,omitempty"`
	ExternalInput map[string]any `json:"external_input"`
}

// CompleteStageRequest carries the edited stage data.
type CompleteStageRequest struct {
	Data map[string]any `json:"data"`
}
