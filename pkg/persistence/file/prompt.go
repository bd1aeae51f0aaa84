package file

import (
	"context"
	"strings"
	"time"

	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
)

const (
	templatesCollection = "prompt_templates"
	overridesCollection = "prompt_overrides"
)

// PromptRepository stores prompt templates and project overrides as JSON files.
//
// Template files are named "<stageType>__<templateID>.json"; override files
// "<projectID>__<stageType>.json".
type PromptRepository struct {
	root string
}

func (pr *PromptRepository) TemplatesByStageType(ctx context.Context, stageType string) ([]*models.PromptTemplate, error) {
	ids, err := listDocumentIDs(pr.root, templatesCollection)
	if err != nil {
		return nil, err
	}

	templates := make([]*models.PromptTemplate, 0)

	for _, id := range ids {
		if stageType != "" && !strings.HasPrefix(id, stageType+"__") {
			continue
		}

		var template models.PromptTemplate

		err := readDocument(documentPath(pr.root, templatesCollection, id), &template, persistence.ErrTemplateNotFound)
		if err != nil {
			return nil, err
		}

		templates = append(templates, &template)
	}

	return templates, nil
}

func (pr *PromptRepository) TemplateByID(_ context.Context, stageType, id string) (*models.PromptTemplate, error) {
	var template models.PromptTemplate

	err := readDocument(documentPath(pr.root, templatesCollection, stageType+"__"+id), &template, persistence.ErrTemplateNotFound)
	if err != nil {
		return nil, persistence.NewStoreError("TemplateByID", "template", id, err)
	}

	return &template, nil
}

func (pr *PromptRepository) SaveTemplate(_ context.Context, template *models.PromptTemplate) error {
	template.UpdatedAt = time.Now().UTC()

	path := documentPath(pr.root, templatesCollection, template.StageType+"__"+template.ID)

	if err := writeDocument(path, template); err != nil {
		return persistence.NewStoreError("SaveTemplate", "template", template.ID, err)
	}

	return nil
}

func (pr *PromptRepository) Override(_ context.Context, projectID, stageType string) (*models.PromptOverride, error) {
	var override models.PromptOverride

	err := readDocument(documentPath(pr.root, overridesCollection, projectID+"__"+stageType), &override, persistence.ErrOverrideNotFound)
	if err != nil {
		return nil, persistence.NewStoreError("Override", "override", projectID+"/"+stageType, err)
	}

	return &override, nil
}

func (pr *PromptRepository) SaveOverride(_ context.Context, override *models.PromptOverride) error {
	override.UpdatedAt = time.Now().UTC()

	path := documentPath(pr.root, overridesCollection, override.ProjectID+"__"+override.StageType)

	if err := writeDocument(path, override); err != nil {
		return persistence.NewStoreError("SaveOverride", "override", override.ProjectID+"/"+override.StageType, err)
	}

	return nil
}

func (pr *PromptRepository) DeleteOverride(ctx context.Context, projectID, stageType string) error {
	if _, err := pr.Override(ctx, projectID, stageType); err != nil {
		return err
	}

	path := documentPath(pr.root, overridesCollection, projectID+"__"+stageType)

	return removeDocument(path)
}
