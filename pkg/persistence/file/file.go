// Package file provides file-based persistence for projects, prompts, recipes
// and runs. Each document is one JSON file under a per-collection directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/flarelab/storylab/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root        string
	projectRepo *ProjectRepository
	promptRepo  *PromptRepository
	recipeRepo  *RecipeRepository
	runRepo     *RunRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:        cleanRoot,
		projectRepo: &ProjectRepository{root: cleanRoot},
		promptRepo:  &PromptRepository{root: cleanRoot},
		recipeRepo:  &RecipeRepository{root: cleanRoot},
		runRepo:     &RunRepository{root: cleanRoot},
	}
}

func (fp *Persistence) Projects() persistence.ProjectRepository {
	return fp.projectRepo
}

func (fp *Persistence) Prompts() persistence.PromptRepository {
	return fp.promptRepo
}

func (fp *Persistence) Recipes() persistence.RecipeRepository {
	return fp.recipeRepo
}

func (fp *Persistence) Runs() persistence.RunRepository {
	return fp.runRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to release for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// readDocument loads one JSON document, mapping a missing file to notFound.
func readDocument(path string, out any, notFound error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound
		}

		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}

// writeDocument stores one JSON document, creating the collection directory.
// The write goes through a temp file and rename so concurrent readers never
// observe a partially written document.
func writeDocument(path string, doc any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

// listDocumentIDs returns the document IDs (file names minus .json) of a
// collection directory, tolerating a collection that does not exist yet.
func listDocumentIDs(root, collection string) ([]string, error) {
	dir := filepath.Join(root, collection)

	entries, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, strings.TrimSuffix(entry, ".json"))
	}

	return ids, nil
}

// removeDocument deletes one JSON document, tolerating a missing file.
func removeDocument(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

func documentPath(root, collection, id string) string {
	return filepath.Join(root, collection, id+".json")
}
