package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flarelab/storylab/pkg/eventbus"
	"github.com/flarelab/storylab/pkg/events"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/recipe"
	"github.com/flarelab/storylab/pkg/streaming"
)

// Recipes manages recipe documents and their execution.
type Recipes struct {
	persistence persistence.Persistence
	runner      *recipe.Runner
	bus         eventbus.EventBus
	logger      *slog.Logger
}

// NewRecipes creates the recipe service.
func NewRecipes(p persistence.Persistence, runner *recipe.Runner, bus eventbus.EventBus, logger *slog.Logger) *Recipes {
	return &Recipes{
		persistence: p,
		runner:      runner,
		bus:         bus,
		logger:      logger.With("module", "services"),
	}
}

// Create validates a raw recipe document against the schema and the graph
// rules, then persists it.
func (s *Recipes) Create(ctx context.Context, document map[string]any) (*models.Recipe, error) {
	if err := recipe.ValidateDocument(document); err != nil {
		return nil, &ServiceError{Op: "CreateRecipe", Message: err.Error(), Err: ErrInvalidRequest}
	}

	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipe document: %w", err)
	}

	var parsed models.Recipe
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ServiceError{Op: "CreateRecipe", Message: err.Error(), Err: ErrInvalidRequest}
	}

	if err := recipe.ValidateGraph(&parsed); err != nil {
		return nil, &ServiceError{Op: "CreateRecipe", Message: err.Error(), Err: ErrInvalidRequest}
	}

	if parsed.ID == "" {
		parsed.ID = uuid.New().String()
	}

	if err := s.persistence.Recipes().Save(ctx, &parsed); err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}

	s.logger.InfoContext(ctx, "Created recipe", "recipe_id", parsed.ID, "nodes", len(parsed.Nodes))

	return &parsed, nil
}

// Get returns a recipe by ID.
func (s *Recipes) Get(ctx context.Context, id string) (*models.Recipe, error) {
	return s.persistence.Recipes().GetByID(ctx, id)
}

// List returns all recipes.
func (s *Recipes) List(ctx context.Context) ([]*models.Recipe, error) {
	return s.persistence.Recipes().GetAll(ctx)
}

// Delete removes a recipe.
func (s *Recipes) Delete(ctx context.Context, id string) error {
	return s.persistence.Recipes().Delete(ctx, id)
}

// Run executes a full recipe, persists the run trace and mirrors lifecycle
// events on the bus. projectID may be empty for standalone runs; sink may be
// nil for non-streamed runs.
func (s *Recipes) Run(ctx context.Context, recipeID, projectID string, external map[string]any, sink streaming.Sink) (*models.RecipeRun, *recipe.RunResult, error) {
	stored, err := s.persistence.Recipes().GetByID(ctx, recipeID)
	if err != nil {
		return nil, nil, err
	}

	var project *models.Project
	if projectID != "" {
		project, err = s.persistence.Projects().GetByID(ctx, projectID)
		if err != nil {
			return nil, nil, err
		}
	}

	run := &models.RecipeRun{
		ID:        uuid.New().String(),
		RecipeID:  recipeID,
		ProjectID: projectID,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.publish(ctx, run.ID, events.RunStarted{
		BaseEvent: s.baseEvent(events.RunStartedEvent, projectID),
		RunID:     run.ID,
		RecipeID:  recipeID,
	})

	result, err := s.runner.RunFull(ctx, stored, project, external, sink)
	if err != nil {
		return nil, nil, err
	}

	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt
	run.Results = result.Results
	run.Outputs = result.Outputs

	if result.Success {
		run.Status = models.RunStatusCompleted

		s.publish(ctx, run.ID, events.RunFinished{
			BaseEvent: s.baseEvent(events.RunFinishedEvent, projectID),
			RunID:     run.ID,
			RecipeID:  recipeID,
			Duration:  completedAt.Sub(run.StartedAt),
		})
	} else {
		run.Status = models.RunStatusFailed

		s.publish(ctx, run.ID, events.RunFailed{
			BaseEvent: s.baseEvent(events.RunFailedEvent, projectID),
			RunID:     run.ID,
			RecipeID:  recipeID,
			NodeID:    result.FailedNodeID,
			Error:     lastError(result.Results),
			Duration:  completedAt.Sub(run.StartedAt),
		})
	}

	if err := s.persistence.Runs().Save(ctx, run); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist run trace", "run_id", run.ID, "error", err)
	}

	return run, result, nil
}

// TestNodeRequest configures a single-node test execution.
type TestNodeRequest struct {
	NodeID              string         `json:"node_id" validate:"required"`
	ExternalInput       map[string]any `json:"external_input"`
	ExecuteDependencies bool           `json:"execute_dependencies"`
	MockOutputs         map[string]any `json:"mock_outputs"`
}

// TestNode executes one node for recipe authoring, either against mocked
// upstream outputs or by running its dependencies first.
func (s *Recipes) TestNode(ctx context.Context, recipeID string, req TestNodeRequest) (*recipe.RunResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &ServiceError{Op: "TestNode", Message: err.Error(), Err: ErrInvalidRequest}
	}

	stored, err := s.persistence.Recipes().GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	result, err := s.runner.RunSingleNode(ctx, stored, req.NodeID, req.ExternalInput, recipe.SingleNodeOptions{
		ExecuteDependencies: req.ExecuteDependencies,
		MockOutputs:         req.MockOutputs,
	})
	if err != nil {
		return nil, &ServiceError{Op: "TestNode", Message: err.Error(), Err: ErrInvalidRequest}
	}

	return result, nil
}

// Runs lists the persisted run traces of a recipe.
func (s *Recipes) Runs(ctx context.Context, recipeID string) ([]*models.RecipeRun, error) {
	return s.persistence.Runs().GetByRecipe(ctx, recipeID)
}

func (s *Recipes) baseEvent(eventType events.EventType, projectID string) events.BaseEvent {
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

func (s *Recipes) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.bus == nil {
		return
	}

	if err := s.bus.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", string(event.GetType()), "error", err)
	}
}

func lastError(results []models.ExecutionResult) string {
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Error != "" {
			return results[i].Error
		}
	}

	return ""
}
