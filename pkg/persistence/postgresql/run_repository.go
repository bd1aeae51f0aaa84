package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
)

// RunRepository stores recipe run traces in the recipe_runs table.
type RunRepository struct {
	db *sql.DB
}

func (rr *RunRepository) GetByID(ctx context.Context, id string) (*models.RecipeRun, error) {
	row := rr.db.QueryRowContext(ctx,
		`SELECT id, recipe_id, project_id, status, results, outputs, started_at, completed_at
		 FROM recipe_runs WHERE id = $1`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "run", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", "run", id, err)
	}

	return run, nil
}

func (rr *RunRepository) GetByRecipe(ctx context.Context, recipeID string) ([]*models.RecipeRun, error) {
	rows, err := rr.db.QueryContext(ctx,
		`SELECT id, recipe_id, project_id, status, results, outputs, started_at, completed_at
		 FROM recipe_runs WHERE recipe_id = $1 ORDER BY started_at DESC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.RecipeRun, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (rr *RunRepository) Save(ctx context.Context, run *models.RecipeRun) error {
	results, err := json.Marshal(orEmptyResults(run.Results))
	if err != nil {
		return persistence.NewStoreError("Save", "run", run.ID, err)
	}

	outputs, err := json.Marshal(run.Outputs)
	if err != nil {
		return persistence.NewStoreError("Save", "run", run.ID, err)
	}

	var projectID sql.NullString
	if run.ProjectID != "" {
		projectID = sql.NullString{String: run.ProjectID, Valid: true}
	}

	_, err = rr.db.ExecContext(ctx, `
		INSERT INTO recipe_runs (id, recipe_id, project_id, status, results, outputs, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			results = EXCLUDED.results,
			outputs = EXCLUDED.outputs,
			completed_at = EXCLUDED.completed_at`,
		run.ID, run.RecipeID, projectID, run.Status, results, outputs, run.StartedAt, run.CompletedAt)
	if err != nil {
		return persistence.NewStoreError("Save", "run", run.ID, err)
	}

	return nil
}

// PruneOlderThan deletes run traces started before the cutoff and returns how
// many were removed.
func (rr *RunRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := rr.db.ExecContext(ctx, `DELETE FROM recipe_runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune recipe runs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned recipe runs: %w", err)
	}

	return int(affected), nil
}

func scanRun(row rowScanner) (*models.RecipeRun, error) {
	var (
		run         models.RecipeRun
		projectID   sql.NullString
		results     []byte
		outputs     []byte
		completedAt sql.NullTime
	)

	err := row.Scan(&run.ID, &run.RecipeID, &projectID, &run.Status, &results, &outputs,
		&run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.ProjectID = projectID.String

	if err := json.Unmarshal(results, &run.Results); err != nil {
		return nil, fmt.Errorf("failed to decode run results: %w", err)
	}

	if len(outputs) > 0 {
		if err := json.Unmarshal(outputs, &run.Outputs); err != nil {
			return nil, fmt.Errorf("failed to decode run outputs: %w", err)
		}
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

func orEmptyResults(results []models.ExecutionResult) []models.ExecutionResult {
	if results == nil {
		return []models.ExecutionResult{}
	}

	return results
}
