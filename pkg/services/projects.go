package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/flarelab/storylab/pkg/eventbus"
	"github.com/flarelab/storylab/pkg/events"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/stages"
)

var validate = validator.New()

// Projects manages project documents and their stage state machine.
type Projects struct {
	persistence persistence.Persistence
	bus         eventbus.EventBus
	logger      *slog.Logger
}

// NewProjects creates the project service. bus may be nil when event
// mirroring is disabled.
func NewProjects(p persistence.Persistence, bus eventbus.EventBus, logger *slog.Logger) *Projects {
	return &Projects{
		persistence: p,
		bus:         bus,
		logger:      logger.With("module", "services"),
	}
}

// CreateProjectRequest carries the fields of a new project.
type CreateProjectRequest struct {
	Name       string `json:"name"        validate:"required,min=3"`
	Owner      string `json:"owner"       validate:"required"`
	PipelineID string `json:"pipeline_id" validate:"required"`
}

// Create validates and persists a new project at stage zero.
func (s *Projects) Create(ctx context.Context, req CreateProjectRequest) (*models.Project, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &ServiceError{Op: "CreateProject", Message: err.Error(), Err: ErrInvalidRequest}
	}

	if _, ok := models.PipelineByID(req.PipelineID); !ok {
		return nil, &ServiceError{Op: "CreateProject", Message: req.PipelineID, Err: ErrUnknownPipeline}
	}

	project := &models.Project{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Owner:           req.Owner,
		PipelineID:      req.PipelineID,
		StageExecutions: map[string]models.StageExecution{},
	}

	if err := s.persistence.Projects().Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.logger.InfoContext(ctx, "Created project",
		"project_id", project.ID, "pipeline_id", project.PipelineID)

	return project, nil
}

// Get returns a project by ID.
func (s *Projects) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.persistence.Projects().GetByID(ctx, id)
}

// List returns all live projects.
func (s *Projects) List(ctx context.Context) ([]*models.Project, error) {
	return s.persistence.Projects().GetAll(ctx)
}

// Delete soft-deletes a project.
func (s *Projects) Delete(ctx context.Context, id string) error {
	return s.persistence.Projects().Delete(ctx, id)
}

// Pipeline returns the pipeline a project walks through.
func (s *Projects) Pipeline(project *models.Project) (models.Pipeline, error) {
	pipeline, ok := models.PipelineByID(project.PipelineID)
	if !ok {
		return models.Pipeline{}, &ServiceError{Op: "Pipeline", Message: project.PipelineID, Err: ErrUnknownPipeline}
	}

	return pipeline, nil
}

// CompleteStage marks a stage completed and applies the resulting transition
// atomically. Completing an earlier stage cascades later stages back to
// pending with their data preserved.
func (s *Projects) CompleteStage(ctx context.Context, projectID, stageName string, data map[string]any) (*models.Project, error) {
	project, err := s.persistence.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	pipeline, err := s.Pipeline(project)
	if err != nil {
		return nil, err
	}

	update, err := stages.CompleteStage(project, pipeline, stageName, data)
	if err != nil {
		return nil, err
	}

	if err := s.persistence.Projects().ApplyStageUpdate(ctx, projectID, update.Stages, update.CurrentStageIndex); err != nil {
		return nil, err
	}

	s.publish(ctx, projectID, events.StageCompleted{
		BaseEvent:  s.baseEvent(events.StageCompletedEvent, projectID),
		StageName:  stageName,
		StageIndex: pipeline.StageIndex(stageName),
	})

	return s.persistence.Projects().GetByID(ctx, projectID)
}

// FailStage marks a stage failed.
func (s *Projects) FailStage(ctx context.Context, projectID, stageName string) (*models.Project, error) {
	return s.transition(ctx, projectID, stageName, stages.FailStage)
}

// RetryStage flips a failed stage back to pending.
func (s *Projects) RetryStage(ctx context.Context, projectID, stageName string) (*models.Project, error) {
	return s.transition(ctx, projectID, stageName, stages.RetryStage)
}

func (s *Projects) transition(ctx context.Context, projectID, stageName string, fn func(*models.Project, models.Pipeline, string) (*stages.StageUpdate, error)) (*models.Project, error) {
	project, err := s.persistence.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	pipeline, err := s.Pipeline(project)
	if err != nil {
		return nil, err
	}

	update, err := fn(project, pipeline, stageName)
	if err != nil {
		return nil, err
	}

	if err := s.persistence.Projects().ApplyStageUpdate(ctx, projectID, update.Stages, update.CurrentStageIndex); err != nil {
		return nil, err
	}

	return s.persistence.Projects().GetByID(ctx, projectID)
}

// SetModelPreference pins a stage/capability pair of a project to a model.
func (s *Projects) SetModelPreference(ctx context.Context, projectID, stageType string, capability models.Capability, config models.ModelConfig) error {
	project, err := s.persistence.Projects().GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if project.ModelPreferences == nil {
		project.ModelPreferences = map[string]models.ModelConfig{}
	}

	project.ModelPreferences[models.ModelPreferenceKey(stageType, capability)] = config

	return s.persistence.Projects().Save(ctx, project)
}

// HealthCheck reports the persistence layer health.
func (s *Projects) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (s *Projects) baseEvent(eventType events.EventType, projectID string) events.BaseEvent {
	id := uuid.New().String()
	if s.bus != nil {
		id = s.bus.GenerateID()
	}

	return events.BaseEvent{
		ID:        id,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ProjectID: projectID,
	}
}

func (s *Projects) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.bus == nil {
		return
	}

	if err := s.bus.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", string(event.GetType()), "error", err)
	}
}
