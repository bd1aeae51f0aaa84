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

// ProjectRepository stores project documents in the projects table.
type ProjectRepository struct {
	db *sql.DB
}

const projectColumns = `id, name, owner, pipeline_id, current_stage_index,
	stage_executions, model_preferences, payload, created_at, updated_at, deleted_at`

func (pr *ProjectRepository) GetAll(ctx context.Context) ([]*models.Project, error) {
	rows, err := pr.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}

		projects = append(projects, project)
	}

	return projects, rows.Err()
}

func (pr *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	row := pr.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "project", id, persistence.ErrProjectNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", "project", id, err)
	}

	return project, nil
}

func (pr *ProjectRepository) Save(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = project.UpdatedAt
	}

	stages, err := json.Marshal(orEmptyStages(project.StageExecutions))
	if err != nil {
		return persistence.NewStoreError("Save", "project", project.ID, err)
	}

	preferences, err := json.Marshal(project.ModelPreferences)
	if err != nil {
		return persistence.NewStoreError("Save", "project", project.ID, err)
	}

	payload, err := json.Marshal(project.Payload)
	if err != nil {
		return persistence.NewStoreError("Save", "project", project.ID, err)
	}

	_, err = pr.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, owner, pipeline_id, current_stage_index,
			stage_executions, model_preferences, payload, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			owner = EXCLUDED.owner,
			pipeline_id = EXCLUDED.pipeline_id,
			current_stage_index = EXCLUDED.current_stage_index,
			stage_executions = EXCLUDED.stage_executions,
			model_preferences = EXCLUDED.model_preferences,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at`,
		project.ID, project.Name, project.Owner, project.PipelineID, project.CurrentStageIndex,
		stages, preferences, payload, project.CreatedAt, project.UpdatedAt, project.DeletedAt)
	if err != nil {
		return persistence.NewStoreError("Save", "project", project.ID, err)
	}

	return nil
}

func (pr *ProjectRepository) Delete(ctx context.Context, id string) error {
	result, err := pr.db.ExecContext(ctx,
		`UPDATE projects SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return persistence.NewStoreError("Delete", "project", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Delete", "project", id, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", "project", id, persistence.ErrProjectNotFound)
	}

	return nil
}

// ApplyStageUpdate merges stage executions and the optional index in a single
// UPDATE, so the patch is atomic at the statement level.
func (pr *ProjectRepository) ApplyStageUpdate(ctx context.Context, projectID string, stages map[string]models.StageExecution, currentStageIndex *int) error {
	patch, err := json.Marshal(stages)
	if err != nil {
		return persistence.NewStoreError("ApplyStageUpdate", "project", projectID, err)
	}

	var index sql.NullInt64
	if currentStageIndex != nil {
		index = sql.NullInt64{Int64: int64(*currentStageIndex), Valid: true}
	}

	result, err := pr.db.ExecContext(ctx, `
		UPDATE projects SET
			stage_executions = stage_executions || $2::jsonb,
			current_stage_index = COALESCE($3, current_stage_index),
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		projectID, patch, index)
	if err != nil {
		return persistence.NewStoreError("ApplyStageUpdate", "project", projectID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("ApplyStageUpdate", "project", projectID, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("ApplyStageUpdate", "project", projectID, persistence.ErrProjectNotFound)
	}

	return nil
}

func (pr *ProjectRepository) MergePayload(ctx context.Context, projectID string, payload map[string]any) error {
	patch, err := json.Marshal(payload)
	if err != nil {
		return persistence.NewStoreError("MergePayload", "project", projectID, err)
	}

	result, err := pr.db.ExecContext(ctx, `
		UPDATE projects SET
			payload = COALESCE(payload, '{}'::jsonb) || $2::jsonb,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		projectID, patch)
	if err != nil {
		return persistence.NewStoreError("MergePayload", "project", projectID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("MergePayload", "project", projectID, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("MergePayload", "project", projectID, persistence.ErrProjectNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		project     models.Project
		stages      []byte
		preferences []byte
		payload     []byte
		deletedAt   sql.NullTime
	)

	err := row.Scan(&project.ID, &project.Name, &project.Owner, &project.PipelineID,
		&project.CurrentStageIndex, &stages, &preferences, &payload,
		&project.CreatedAt, &project.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stages, &project.StageExecutions); err != nil {
		return nil, fmt.Errorf("failed to decode stage executions: %w", err)
	}

	if len(preferences) > 0 {
		if err := json.Unmarshal(preferences, &project.ModelPreferences); err != nil {
			return nil, fmt.Errorf("failed to decode model preferences: %w", err)
		}
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &project.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
	}

	if deletedAt.Valid {
		project.DeletedAt = &deletedAt.Time
	}

	return &project, nil
}

func orEmptyStages(stages map[string]models.StageExecution) map[string]models.StageExecution {
	if stages == nil {
		return map[string]models.StageExecution{}
	}

	return stages
}
