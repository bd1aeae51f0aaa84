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

// PromptRepository stores prompt templates and project overrides.
type PromptRepository struct {
	db *sql.DB
}

func (pr *PromptRepository) TemplatesByStageType(ctx context.Context, stageType string) ([]*models.PromptTemplate, error) {
	query := `SELECT stage_type, id, name, prompts, variables, is_default, is_active, created_at, updated_at
		FROM prompt_templates`

	var (
		rows *sql.Rows
		err  error
	)

	if stageType != "" {
		rows, err = pr.db.QueryContext(ctx, query+` WHERE stage_type = $1 ORDER BY created_at`, stageType)
	} else {
		rows, err = pr.db.QueryContext(ctx, query+` ORDER BY stage_type, created_at`)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query prompt templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*models.PromptTemplate, 0)

	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}

		templates = append(templates, template)
	}

	return templates, rows.Err()
}

func (pr *PromptRepository) TemplateByID(ctx context.Context, stageType, id string) (*models.PromptTemplate, error) {
	row := pr.db.QueryRowContext(ctx,
		`SELECT stage_type, id, name, prompts, variables, is_default, is_active, created_at, updated_at
		 FROM prompt_templates WHERE stage_type = $1 AND id = $2`, stageType, id)

	template, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("TemplateByID", "template", id, persistence.ErrTemplateNotFound)
		}

		return nil, persistence.NewStoreError("TemplateByID", "template", id, err)
	}

	return template, nil
}

func (pr *PromptRepository) SaveTemplate(ctx context.Context, template *models.PromptTemplate) error {
	template.UpdatedAt = time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = template.UpdatedAt
	}

	prompts, err := json.Marshal(template.Prompts)
	if err != nil {
		return persistence.NewStoreError("SaveTemplate", "template", template.ID, err)
	}

	variables, err := json.Marshal(template.Variables)
	if err != nil {
		return persistence.NewStoreError("SaveTemplate", "template", template.ID, err)
	}

	_, err = pr.db.ExecContext(ctx, `
		INSERT INTO prompt_templates (stage_type, id, name, prompts, variables, is_default, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (stage_type, id) DO UPDATE SET
			name = EXCLUDED.name,
			prompts = EXCLUDED.prompts,
			variables = EXCLUDED.variables,
			is_default = EXCLUDED.is_default,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`,
		template.StageType, template.ID, template.Name, prompts, variables,
		template.IsDefault, template.IsActive, template.CreatedAt, template.UpdatedAt)
	if err != nil {
		return persistence.NewStoreError("SaveTemplate", "template", template.ID, err)
	}

	return nil
}

func (pr *PromptRepository) Override(ctx context.Context, projectID, stageType string) (*models.PromptOverride, error) {
	var (
		override models.PromptOverride
		template []byte
	)

	err := pr.db.QueryRowContext(ctx,
		`SELECT project_id, stage_type, template, updated_at
		 FROM prompt_overrides WHERE project_id = $1 AND stage_type = $2`,
		projectID, stageType).
		Scan(&override.ProjectID, &override.StageType, &template, &override.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("Override", "override", projectID+"/"+stageType, persistence.ErrOverrideNotFound)
		}

		return nil, persistence.NewStoreError("Override", "override", projectID+"/"+stageType, err)
	}

	if err := json.Unmarshal(template, &override.Template); err != nil {
		return nil, fmt.Errorf("failed to decode override template: %w", err)
	}

	return &override, nil
}

func (pr *PromptRepository) SaveOverride(ctx context.Context, override *models.PromptOverride) error {
	override.UpdatedAt = time.Now().UTC()

	template, err := json.Marshal(override.Template)
	if err != nil {
		return persistence.NewStoreError("SaveOverride", "override", override.ProjectID, err)
	}

	_, err = pr.db.ExecContext(ctx, `
		INSERT INTO prompt_overrides (project_id, stage_type, template, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, stage_type) DO UPDATE SET
			template = EXCLUDED.template,
			updated_at = EXCLUDED.updated_at`,
		override.ProjectID, override.StageType, template, override.UpdatedAt)
	if err != nil {
		return persistence.NewStoreError("SaveOverride", "override", override.ProjectID, err)
	}

	return nil
}

func (pr *PromptRepository) DeleteOverride(ctx context.Context, projectID, stageType string) error {
	result, err := pr.db.ExecContext(ctx,
		`DELETE FROM prompt_overrides WHERE project_id = $1 AND stage_type = $2`, projectID, stageType)
	if err != nil {
		return persistence.NewStoreError("DeleteOverride", "override", projectID+"/"+stageType, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("DeleteOverride", "override", projectID+"/"+stageType, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("DeleteOverride", "override", projectID+"/"+stageType, persistence.ErrOverrideNotFound)
	}

	return nil
}

func scanTemplate(row rowScanner) (*models.PromptTemplate, error) {
	var (
		template  models.PromptTemplate
		prompts   []byte
		variables []byte
	)

	err := row.Scan(&template.StageType, &template.ID, &template.Name, &prompts, &variables,
		&template.IsDefault, &template.IsActive, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(prompts, &template.Prompts); err != nil {
		return nil, fmt.Errorf("failed to decode template prompts: %w", err)
	}

	if len(variables) > 0 {
		if err := json.Unmarshal(variables, &template.Variables); err != nil {
			return nil, fmt.Errorf("failed to decode template variables: %w", err)
		}
	}

	return &template, nil
}
