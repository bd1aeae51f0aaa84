// Package prompts implements the versioned prompt template store.
//
// Templates are shared per stage type, with at most one active default.
// Projects may override the default for a stage type; overrides always win.
// Reads go through the cache; the store never invalidates on write, callers
// clear the cache once after their mutations succeed.
package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flarelab/storylab/pkg/cache"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
)

var (
	// ErrNoDefaultTemplate is returned when a stage type has no active default
	// and the project has no override.
	ErrNoDefaultTemplate = errors.New("no active default template for stage type")

	// ErrCapabilityNotConfigured is returned when the resolved template carries
	// no prompt for the requested capability.
	ErrCapabilityNotConfigured = errors.New("template has no prompt for capability")
)

// Store resolves, caches and mutates prompt templates.
type Store struct {
	repository persistence.PromptRepository
	cache      cache.Cache
	logger     *slog.Logger
}

// NewStore creates a prompt store over the given repository and cache.
func NewStore(repository persistence.PromptRepository, promptCache cache.Cache, logger *slog.Logger) *Store {
	return &Store{
		repository: repository,
		cache:      promptCache,
		logger:     logger.With("module", "prompts"),
	}
}

func cacheKey(stageType, projectID string) string {
	return "prompt:" + stageType + ":" + projectID
}

// ResolveTemplate returns the effective template for a stage type within a
// project: the project override when present, otherwise the active default.
// Entries are cached as JSON strings so they survive both backends: the
// memory cache stores values as-is and the Redis backend round-trips them
// through its own JSON codec.
func (s *Store) ResolveTemplate(ctx context.Context, stageType, projectID string) (*models.PromptTemplate, error) {
	key := cacheKey(stageType, projectID)

	if template, ok := s.cachedTemplate(ctx, key); ok {
		return template, nil
	}

	template, err := s.lookupTemplate(ctx, stageType, projectID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(template); err == nil {
		s.cache.Set(ctx, key, string(raw))
	}

	return template, nil
}

func (s *Store) cachedTemplate(ctx context.Context, key string) (*models.PromptTemplate, bool) {
	cached, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}

	raw, ok := cached.(string)
	if !ok {
		return nil, false
	}

	var template models.PromptTemplate
	if err := json.Unmarshal([]byte(raw), &template); err != nil {
		s.logger.WarnContext(ctx, "Discarding undecodable cached template", "key", key, "error", err)

		return nil, false
	}

	return &template, true
}

func (s *Store) lookupTemplate(ctx context.Context, stageType, projectID string) (*models.PromptTemplate, error) {
	if projectID != "" {
		override, err := s.repository.Override(ctx, projectID, stageType)
		if err == nil {
			template := override.Template

			return &template, nil
		}

		if !persistence.IsOverrideNotFound(err) {
			return nil, fmt.Errorf("failed to load prompt override: %w", err)
		}
	}

	return s.defaultTemplate(ctx, stageType)
}

func (s *Store) defaultTemplate(ctx context.Context, stageType string) (*models.PromptTemplate, error) {
	templates, err := s.repository.TemplatesByStageType(ctx, stageType)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates for stage type %q: %w", stageType, err)
	}

	for _, template := range templates {
		if template.IsDefault && template.IsActive {
			return template, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoDefaultTemplate, stageType)
}

// GetPromptByCapability resolves the effective prompt config for one
// capability of a stage type, honoring project overrides.
func (s *Store) GetPromptByCapability(ctx context.Context, stageType, projectID string, capability models.Capability) (*models.PromptConfig, error) {
	template, err := s.ResolveTemplate(ctx, stageType, projectID)
	if err != nil {
		return nil, err
	}

	config, ok := template.Prompts[capability]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrCapabilityNotConfigured, stageType, capability)
	}

	return &config, nil
}

// Templates lists templates for a stage type, or all templates when stageType
// is empty.
func (s *Store) Templates(ctx context.Context, stageType string) ([]*models.PromptTemplate, error) {
	return s.repository.TemplatesByStageType(ctx, stageType)
}

// Template returns one template by stage type and ID.
func (s *Store) Template(ctx context.Context, stageType, id string) (*models.PromptTemplate, error) {
	return s.repository.TemplateByID(ctx, stageType, id)
}

// SaveTemplate persists a template, demoting any other active default of the
// same stage type so the single-default invariant holds.
func (s *Store) SaveTemplate(ctx context.Context, template *models.PromptTemplate) error {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}

	if template.IsDefault && template.IsActive {
		if err := s.demoteOtherDefaults(ctx, template.StageType, template.ID); err != nil {
			return err
		}
	}

	if err := s.repository.SaveTemplate(ctx, template); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.InfoContext(ctx, "Saved prompt template",
		"stage_type", template.StageType, "template_id", template.ID, "default", template.IsDefault)

	return nil
}

func (s *Store) demoteOtherDefaults(ctx context.Context, stageType, keepID string) error {
	templates, err := s.repository.TemplatesByStageType(ctx, stageType)
	if err != nil {
		return fmt.Errorf("failed to load templates for stage type %q: %w", stageType, err)
	}

	for _, other := range templates {
		if other.ID == keepID || !other.IsDefault {
			continue
		}

		other.IsDefault = false
		if err := s.repository.SaveTemplate(ctx, other); err != nil {
			return fmt.Errorf("failed to demote template %s: %w", other.ID, err)
		}
	}

	return nil
}

// UpdateModelConfig pins one capability of a template to a concrete adaptor
// and model.
func (s *Store) UpdateModelConfig(ctx context.Context, stageType, templateID string, capability models.Capability, config models.ModelConfig) error {
	template, err := s.repository.TemplateByID(ctx, stageType, templateID)
	if err != nil {
		return err
	}

	prompt, ok := template.Prompts[capability]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrCapabilityNotConfigured, stageType, capability)
	}

	prompt.ModelConfig = &config
	template.Prompts[capability] = prompt

	if err := s.repository.SaveTemplate(ctx, template); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	return nil
}

// Override returns the project override for a stage type, if any.
func (s *Store) Override(ctx context.Context, projectID, stageType string) (*models.PromptOverride, error) {
	return s.repository.Override(ctx, projectID, stageType)
}

// SaveOverride persists a project-scoped template override.
func (s *Store) SaveOverride(ctx context.Context, override *models.PromptOverride) error {
	override.Template.StageType = override.StageType

	if err := s.repository.SaveOverride(ctx, override); err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}

	s.logger.InfoContext(ctx, "Saved prompt override",
		"project_id", override.ProjectID, "stage_type", override.StageType)

	return nil
}

// DeleteOverride removes a project override so the default applies again.
func (s *Store) DeleteOverride(ctx context.Context, projectID, stageType string) error {
	return s.repository.DeleteOverride(ctx, projectID, stageType)
}

// ClearCache drops every cached resolution. Handlers call this once after a
// successful write so later reads observe the new templates.
func (s *Store) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
}
