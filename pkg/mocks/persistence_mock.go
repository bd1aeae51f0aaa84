package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
)

// MockProjectRepository is a mock implementation of persistence.ProjectRepository.
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) GetAll(ctx context.Context) ([]*models.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Project), args.Error(1)
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)

	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockProjectRepository) ApplyStageUpdate(ctx context.Context, projectID string, stages map[string]models.StageExecution, currentStageIndex *int) error {
	args := m.Called(ctx, projectID, stages, currentStageIndex)

	return args.Error(0)
}

func (m *MockProjectRepository) MergePayload(ctx context.Context, projectID string, payload map[string]any) error {
	args := m.Called(ctx, projectID, payload)

	return args.Error(0)
}

// MockPromptRepository is a mock implementation of persistence.PromptRepository.
type MockPromptRepository struct {
	mock.Mock
}

func (m *MockPromptRepository) TemplatesByStageType(ctx context.Context, stageType string) ([]*models.PromptTemplate, error) {
	args := m.Called(ctx, stageType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.PromptTemplate), args.Error(1)
}

func (m *MockPromptRepository) TemplateByID(ctx context.Context, stageType, id string) (*models.PromptTemplate, error) {
	args := m.Called(ctx, stageType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.PromptTemplate), args.Error(1)
}

func (m *MockPromptRepository) SaveTemplate(ctx context.Context, template *models.PromptTemplate) error {
	args := m.Called(ctx, template)

	return args.Error(0)
}

func (m *MockPromptRepository) Override(ctx context.Context, projectID, stageType string) (*models.PromptOverride, error) {
	args := m.Called(ctx, projectID, stageType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.PromptOverride), args.Error(1)
}

func (m *MockPromptRepository) SaveOverride(ctx context.Context, override *models.PromptOverride) error {
	args := m.Called(ctx, override)

	return args.Error(0)
}

func (m *MockPromptRepository) DeleteOverride(ctx context.Context, projectID, stageType string) error {
	args := m.Called(ctx, projectID, stageType)

	return args.Error(0)
}

// MockRecipeRepository is a mock implementation of persistence.RecipeRepository.
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) GetAll(ctx context.Context) ([]*models.Recipe, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Save(ctx context.Context, recipe *models.Recipe) error {
	args := m.Called(ctx, recipe)

	return args.Error(0)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockRunRepository is a mock implementation of persistence.RunRepository.
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) GetByID(ctx context.Context, id string) (*models.RecipeRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.RecipeRun), args.Error(1)
}

func (m *MockRunRepository) GetByRecipe(ctx context.Context, recipeID string) ([]*models.RecipeRun, error) {
	args := m.Called(ctx, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.RecipeRun), args.Error(1)
}

func (m *MockRunRepository) Save(ctx context.Context, run *models.RecipeRun) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}

func (m *MockRunRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)

	return args.Int(0), args.Error(1)
}

// MockPersistence is a mock implementation of the persistence.Persistence root.
type MockPersistence struct {
	mock.Mock

	ProjectRepo *MockProjectRepository
	PromptRepo  *MockPromptRepository
	RecipeRepo  *MockRecipeRepository
	RunRepo     *MockRunRepository
}

// NewMockPersistence wires a root mock with fresh repository mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		ProjectRepo: new(MockProjectRepository),
		PromptRepo:  new(MockPromptRepository),
		RecipeRepo:  new(MockRecipeRepository),
		RunRepo:     new(MockRunRepository),
	}
}

func (m *MockPersistence) Projects() persistence.ProjectRepository {
	return m.ProjectRepo
}

func (m *MockPersistence) Prompts() persistence.PromptRepository {
	return m.PromptRepo
}

func (m *MockPersistence) Recipes() persistence.RecipeRepository {
	return m.RecipeRepo
}

func (m *MockPersistence) Runs() persistence.RunRepository {
	return m.RunRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
