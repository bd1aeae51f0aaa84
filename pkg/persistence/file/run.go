package file

import (
	"context"
	"time"

	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
)

const runsCollection = "recipe_runs"

// RunRepository stores recipe execution traces as JSON files.
type RunRepository struct {
	root string
}

func (rr *RunRepository) GetByID(_ context.Context, id string) (*models.RecipeRun, error) {
	var run models.RecipeRun

	err := readDocument(documentPath(rr.root, runsCollection, id), &run, persistence.ErrRunNotFound)
	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "run", id, err)
	}

	return &run, nil
}

func (rr *RunRepository) GetByRecipe(ctx context.Context, recipeID string) ([]*models.RecipeRun, error) {
	ids, err := listDocumentIDs(rr.root, runsCollection)
	if err != nil {
		return nil, err
	}

	runs := make([]*models.RecipeRun, 0)

	for _, id := range ids {
		run, err := rr.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if run.RecipeID == recipeID {
			runs = append(runs, run)
		}
	}

	return runs, nil
}

func (rr *RunRepository) Save(_ context.Context, run *models.RecipeRun) error {
	if err := writeDocument(documentPath(rr.root, runsCollection, run.ID), run); err != nil {
		return persistence.NewStoreError("Save", "run", run.ID, err)
	}

	return nil
}

func (rr *RunRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := listDocumentIDs(rr.root, runsCollection)
	if err != nil {
		return 0, err
	}

	pruned := 0

	for _, id := range ids {
		run, err := rr.GetByID(ctx, id)
		if err != nil {
			return pruned, err
		}

		if run.StartedAt.Before(cutoff) {
			if err := removeDocument(documentPath(rr.root, runsCollection, id)); err != nil {
				return pruned, err
			}

			pruned++
		}
	}

	return pruned, nil
}
