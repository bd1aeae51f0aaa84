package events

import "time"

// RunStarted is published when a recipe run begins.
type RunStarted struct {
	BaseEvent

	RunID    string `json:"run_id"`
	RecipeID string `json:"recipe_id"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

// RunFinished is published when a recipe run completes successfully.
type RunFinished struct {
	BaseEvent

	RunID    string        `json:"run_id"`
	RecipeID string        `json:"recipe_id"`
	Duration time.Duration `json:"duration"`
}

func (e RunFinished) GetType() EventType {
	return RunFinishedEvent
}

// RunFailed is published when a recipe run stops on a failed node.
type RunFailed struct {
	BaseEvent

	RunID    string        `json:"run_id"`
	RecipeID string        `json:"recipe_id"`
	NodeID   string        `json:"node_id,omitempty"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

// StageCompleted is published when a project stage is marked completed.
type StageCompleted struct {
	BaseEvent

	StageName  string `json:"stage_name"`
	StageIndex int    `json:"stage_index"`
}

func (e StageCompleted) GetType() EventType {
	return StageCompletedEvent
}
