package file

import (
	"context"
	"time"

	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
)

const recipesCollection = "recipes"

// RecipeRepository stores recipe definitions as JSON files.
type RecipeRepository struct {
	root string
}

func (rr *RecipeRepository) GetAll(ctx context.Context) ([]*models.Recipe, error) {
	ids, err := listDocumentIDs(rr.root, recipesCollection)
	if err != nil {
		return nil, err
	}

	recipes := make([]*models.Recipe, 0, len(ids))

	for _, id := range ids {
		recipe, err := rr.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		recipes = append(recipes, recipe)
	}

	return recipes, nil
}

func (rr *RecipeRepository) GetByID(_ context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe

	err := readDocument(documentPath(rr.root, recipesCollection, id), &recipe, persistence.ErrRecipeNotFound)
	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "recipe", id, err)
	}

	return &recipe, nil
}

func (rr *RecipeRepository) Save(_ context.Context, recipe *models.Recipe) error {
	recipe.UpdatedAt = time.Now().UTC()

	if err := writeDocument(documentPath(rr.root, recipesCollection, recipe.ID), recipe); err != nil {
		return persistence.NewStoreError("Save", "recipe", recipe.ID, err)
	}

	return nil
}

func (rr *RecipeRepository) Delete(_ context.Context, id string) error {
	return removeDocument(documentPath(rr.root, recipesCollection, id))
}
