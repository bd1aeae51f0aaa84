// Package stages implements the project stage state machine. Transitions are
// computed as a StageUpdate and applied through a single atomic persistence
// write, so a crash can never leave a project half-transitioned.
package stages

import (
	"errors"
	"fmt"
	"time"

	"github.com/flarelab/storylab/pkg/models"
)

var (
	// ErrUnknownStage is returned when a stage name is not in the pipeline.
	ErrUnknownStage = errors.New("stage not in pipeline")

	// ErrStageNotReady is returned when a stage's upstream stage has not
	// completed yet.
	ErrStageNotReady = errors.New("previous stage not completed")

	// ErrStageNotFailed is returned when retrying a stage that has not failed.
	ErrStageNotFailed = errors.New("stage is not failed")
)

// StageUpdate is the atomic patch a transition produces. Stages contains only
// the entries that change; CurrentStageIndex is nil when the index is
// untouched.
type StageUpdate struct {
	Stages            map[string]models.StageExecution
	CurrentStageIndex *int
}

// CompleteStage marks a stage completed with its output data.
//
// Completing the current stage (or one ahead of it) advances the index to the
// next stage, capped at the last. Completing an earlier stage is a re-edit:
// every later stage flips back to pending so it is regenerated against the
// new output, but each stage's previous data is preserved. The index stays
// where it is in that case.
func CompleteStage(project *models.Project, pipeline models.Pipeline, stageName string, data map[string]any) (*StageUpdate, error) {
	stageIndex := pipeline.StageIndex(stageName)
	if stageIndex < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stageName)
	}

	now := time.Now().UTC()

	completed := project.StageExecution(stageName)
	completed.Status = models.StageStatusCompleted
	completed.CompletedAt = &now

	if completed.StartedAt == nil {
		completed.StartedAt = &now
	}

	if data != nil {
		completed.Data = data
	}

	update := &StageUpdate{
		Stages: map[string]models.StageExecution{stageName: completed},
	}

	if stageIndex >= project.CurrentStageIndex {
		next := stageIndex + 1
		if next > pipeline.LastStageIndex() {
			next = pipeline.LastStageIndex()
		}

		update.CurrentStageIndex = &next

		return update, nil
	}

	for _, later := range pipeline.Stages[stageIndex+1:] {
		execution := project.StageExecution(later)
		if execution.Status == models.StageStatusPending {
			continue
		}

		execution.Status = models.StageStatusPending
		execution.CompletedAt = nil
		update.Stages[later] = execution
	}

	return update, nil
}

// FailStage marks a stage failed without moving the index.
func FailStage(project *models.Project, pipeline models.Pipeline, stageName string) (*StageUpdate, error) {
	if pipeline.StageIndex(stageName) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stageName)
	}

	now := time.Now().UTC()

	execution := project.StageExecution(stageName)
	execution.Status = models.StageStatusFailed

	if execution.StartedAt == nil {
		execution.StartedAt = &now
	}

	return &StageUpdate{
		Stages: map[string]models.StageExecution{stageName: execution},
	}, nil
}

// RetryStage flips a failed stage back to pending so it can run again.
func RetryStage(project *models.Project, pipeline models.Pipeline, stageName string) (*StageUpdate, error) {
	if pipeline.StageIndex(stageName) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stageName)
	}

	execution := project.StageExecution(stageName)
	if execution.Status != models.StageStatusFailed {
		return nil, fmt.Errorf("%w: %s is %s", ErrStageNotFailed, stageName, execution.Status)
	}

	execution.Status = models.StageStatusPending
	execution.CompletedAt = nil

	return &StageUpdate{
		Stages: map[string]models.StageExecution{stageName: execution},
	}, nil
}

// EnsureStageReady gates generation: a stage may only run when the stage
// before it has completed. The first stage is always ready.
func EnsureStageReady(project *models.Project, pipeline models.Pipeline, stageName string) error {
	stageIndex := pipeline.StageIndex(stageName)
	if stageIndex < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownStage, stageName)
	}

	if stageIndex == 0 {
		return nil
	}

	previous := pipeline.Stages[stageIndex-1]
	if !project.StageCompleted(previous) {
		return fmt.Errorf("%w: %s requires %s", ErrStageNotReady, stageName, previous)
	}

	return nil
}
