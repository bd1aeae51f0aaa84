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

// RecipeRepository stores recipe documents in the recipes table.
type RecipeRepository struct {
	db *sql.DB
}

func (rr *RecipeRepository) GetAll(ctx context.Context) ([]*models.Recipe, error) {
	rows, err := rr.db.QueryContext(ctx,
		`SELECT id, name, description, nodes, edges, created_at, updated_at
		 FROM recipes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]*models.Recipe, 0)

	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}

		recipes = append(recipes, recipe)
	}

	return recipes, rows.Err()
}

func (rr *RecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	row := rr.db.QueryRowContext(ctx,
		`SELECT id, name, description, nodes, edges, created_at, updated_at
		 FROM recipes WHERE id = $1`, id)

	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "recipe", id, persistence.ErrRecipeNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", "recipe", id, err)
	}

	return recipe, nil
}

func (rr *RecipeRepository) Save(ctx context.Context, recipe *models.Recipe) error {
	recipe.UpdatedAt = time.Now().UTC()
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = recipe.UpdatedAt
	}

	nodes, err := json.Marshal(recipe.Nodes)
	if err != nil {
		return persistence.NewStoreError("Save", "recipe", recipe.ID, err)
	}

	edges, err := json.Marshal(recipe.Edges)
	if err != nil {
		return persistence.NewStoreError("Save", "recipe", recipe.ID, err)
	}

	_, err = rr.db.ExecContext(ctx, `
		INSERT INTO recipes (id, name, description, nodes, edges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at`,
		recipe.ID, recipe.Name, recipe.Description, nodes, edges, recipe.CreatedAt, recipe.UpdatedAt)
	if err != nil {
		return persistence.NewStoreError("Save", "recipe", recipe.ID, err)
	}

	return nil
}

func (rr *RecipeRepository) Delete(ctx context.Context, id string) error {
	result, err := rr.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return persistence.NewStoreError("Delete", "recipe", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Delete", "recipe", id, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", "recipe", id, persistence.ErrRecipeNotFound)
	}

	return nil
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var (
		recipe models.Recipe
		nodes  []byte
		edges  []byte
	)

	err := row.Scan(&recipe.ID, &recipe.Name, &recipe.Description, &nodes, &edges,
		&recipe.CreatedAt, &recipe.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodes, &recipe.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode recipe nodes: %w", err)
	}

	if len(edges) > 0 {
		if err := json.Unmarshal(edges, &recipe.Edges); err != nil {
			return nil, fmt.Errorf("failed to decode recipe edges: %w", err)
		}
	}

	return &recipe, nil
}
