// Package models defines the core domain models for the staged generation pipeline.
package models

import "time"

// Capability identifies one of the generative capabilities an adaptor can expose.
type Capability string

const (
	CapabilityText  Capability = "text"
	CapabilityImage Capability = "image"
	CapabilityVideo Capability = "video"
)

// OutputFormat declares how a prompt expects the model to answer.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// ModelConfig pins a prompt or project to a concrete adaptor and model.
type ModelConfig struct {
	AdaptorID string `json:"adaptor_id" validate:"required"`
	ModelID   string `json:"model_id"   validate:"required"`
}

// PromptConfig is the per-capability prompt payload of a template.
type PromptConfig struct {
	SystemPrompt       string       `json:"system_prompt"`
	UserPromptTemplate string       `json:"user_prompt_template" validate:"required"`
	OutputFormat       OutputFormat `json:"output_format"        validate:"omitempty,oneof=text json"`
	ModelConfig        *ModelConfig `json:"model_config,omitempty"`
}

// PromptVariable documents a placeholder a template expects.
type PromptVariable struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Placeholder string `json:"placeholder"`
}

// PromptTemplate is a versionable set of capability prompts for one stage type.
//
// At most one template per stage type may be both IsDefault and IsActive;
// the prompt store enforces this on save. Project-specific overrides are kept
// in a separate collection keyed by (project, stage type) and win over the
// default whenever present.
type PromptTemplate struct {
	ID        string                      `json:"id"`
	StageType string                      `json:"stage_type" validate:"required"`
	Name      string                      `json:"name"       validate:"required,min=3"`
	Prompts   map[Capability]PromptConfig `json:"prompts"    validate:"required,min=1"`
	Variables []PromptVariable            `json:"variables"`
	IsDefault bool                        `json:"is_default"`
	IsActive  bool                        `json:"is_active"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// PromptOverride is a project-scoped replacement of the default template for
// one stage type.
type PromptOverride struct {
	ProjectID string         `json:"project_id" validate:"required"`
	StageType string         `json:"stage_type" validate:"required"`
	Template  PromptTemplate `json:"template"`
	UpdatedAt time.Time      `json:"updated_at"`
}
