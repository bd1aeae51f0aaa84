// Package postgresql provides PostgreSQL persistence for projects, prompts,
// recipes and runs. Documents are stored as JSONB columns so the schema stays
// close to the file backend's document shape.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	projectRepo *ProjectRepository
	promptRepo  *PromptRepository
	recipeRepo  *RecipeRepository
	runRepo     *RunRepository
}

// NewPersistence connects, migrates and returns a PostgreSQL persistence.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		projectRepo: &ProjectRepository{db: database},
		promptRepo:  &PromptRepository{db: database},
		recipeRepo:  &RecipeRepository{db: database},
		runRepo:     &RunRepository{db: database},
	}, nil
}

func (p *Persistence) Projects() persistence.ProjectRepository {
	return p.projectRepo
}

func (p *Persistence) Prompts() persistence.PromptRepository {
	return p.promptRepo
}

func (p *Persistence) Recipes() persistence.RecipeRepository {
	return p.recipeRepo
}

func (p *Persistence) Runs() persistence.RunRepository {
	return p.runRepo
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
