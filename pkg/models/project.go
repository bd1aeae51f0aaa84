package models

import "time"

// StageStatus is the per-stage execution state of a project.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// StageExecution records the state and output of one named stage.
//
// Data survives a pending cascade: re-editing an earlier stage marks later
// stages pending but never deletes what they previously produced.
type StageExecution struct {
	Status      StageStatus    `json:"status"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Pipeline is an ordered list of stage names a project walks through.
type Pipeline struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Stages []string `json:"stages"`
}

// LastStageIndex returns the index of the final stage.
func (p Pipeline) LastStageIndex() int {
	return len(p.Stages) - 1
}

// StageIndex returns the position of a stage name, or -1.
func (p Pipeline) StageIndex(name string) int {
	for i, s := range p.Stages {
		if s == name {
			return i
		}
	}

	return -1
}

// Built-in pipelines. StoryLab walks the narrative film flow; FlareLab walks
// the themed player-compositing flow.
var (
	PipelineStoryLab = Pipeline{
		ID:     "storylab",
		Name:   "StoryLab",
		Stages: []string{"personas", "narratives", "storyboards", "screenplays", "videos"},
	}

	PipelineFlareLab = Pipeline{
		ID:     "flarelab",
		Name:   "FlareLab",
		Stages: []string{"themes", "casting", "composites", "animations"},
	}
)

// PipelineByID resolves a built-in pipeline.
func PipelineByID(id string) (Pipeline, bool) {
	switch id {
	case PipelineStoryLab.ID:
		return PipelineStoryLab, true
	case PipelineFlareLab.ID:
		return PipelineFlareLab, true
	}

	return Pipeline{}, false
}

// Project is the per-user document accumulating all stage outputs.
type Project struct {
	ID                string                    `json:"id"`
	Name              string                    `json:"name"        validate:"required,min=3"`
	Owner             string                    `json:"owner"       validate:"required"`
	PipelineID        string                    `json:"pipeline_id" validate:"required"`
	CurrentStageIndex int                       `json:"current_stage_index"`
	StageExecutions   map[string]StageExecution `json:"stage_executions"`
	ModelPreferences  map[string]ModelConfig    `json:"model_preferences,omitempty"` // keyed "<stageType>:<capability>"
	Payload           map[string]any            `json:"payload,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
	DeletedAt         *time.Time                `json:"deleted_at,omitempty"`
}

// ModelPreferenceKey builds the lookup key for project model preferences.
func ModelPreferenceKey(stageType string, capability Capability) string {
	return stageType + ":" + string(capability)
}

// StageExecution returns the recorded execution for a stage, defaulting to
// pending when the stage has never run.
func (p *Project) StageExecution(stageName string) StageExecution {
	if exec, ok := p.StageExecutions[stageName]; ok {
		return exec
	}

	return StageExecution{Status: StageStatusPending}
}

// StageCompleted reports whether a stage's output may feed later stages.
func (p *Project) StageCompleted(stageName string) bool {
	return p.StageExecution(stageName).Status == StageStatusCompleted
}
