package file

import (
	"context"
	"sync"
	"time"

	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
)

const projectsCollection = "projects"

// ProjectRepository stores project documents as JSON files.
//
// Stage updates and payload merges are read-modify-write on the whole
// document; the mutex makes them atomic within one process, matching the
// single-writer-per-replica assumption of file persistence.
type ProjectRepository struct {
	root string
	mu   sync.Mutex
}

func (pr *ProjectRepository) GetAll(ctx context.Context) ([]*models.Project, error) {
	ids, err := listDocumentIDs(pr.root, projectsCollection)
	if err != nil {
		return nil, err
	}

	projects := make([]*models.Project, 0, len(ids))

	for _, id := range ids {
		project, err := pr.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if project.DeletedAt == nil {
			projects = append(projects, project)
		}
	}

	return projects, nil
}

func (pr *ProjectRepository) GetByID(_ context.Context, id string) (*models.Project, error) {
	var project models.Project

	err := readDocument(documentPath(pr.root, projectsCollection, id), &project, persistence.ErrProjectNotFound)
	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "project", id, err)
	}

	return &project, nil
}

func (pr *ProjectRepository) Save(_ context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()

	err := writeDocument(documentPath(pr.root, projectsCollection, project.ID), project)
	if err != nil {
		return persistence.NewStoreError("Save", "project", project.ID, err)
	}

	return nil
}

func (pr *ProjectRepository) Delete(ctx context.Context, id string) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	project, err := pr.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	project.DeletedAt = &now

	return pr.Save(ctx, project)
}

func (pr *ProjectRepository) ApplyStageUpdate(ctx context.Context, projectID string, stages map[string]models.StageExecution, currentStageIndex *int) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	project, err := pr.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if project.StageExecutions == nil {
		project.StageExecutions = make(map[string]models.StageExecution, len(stages))
	}

	for name, exec := range stages {
		project.StageExecutions[name] = exec
	}

	if currentStageIndex != nil {
		project.CurrentStageIndex = *currentStageIndex
	}

	return pr.Save(ctx, project)
}

func (pr *ProjectRepository) MergePayload(ctx context.Context, projectID string, payload map[string]any) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	project, err := pr.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if project.Payload == nil {
		project.Payload = make(map[string]any, len(payload))
	}

	for key, value := range payload {
		project.Payload[key] = value
	}

	return pr.Save(ctx, project)
}
