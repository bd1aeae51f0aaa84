package models

import "time"

// ExecutionResult is the immutable record of one node invocation.
type ExecutionResult struct {
	Success     bool           `json:"success"`
	NodeID      string         `json:"node_id"`
	NodeName    string         `json:"node_name"`
	NodeType    NodeType       `json:"node_type"`
	Input       map[string]any `json:"input"`
	Output      any            `json:"output,omitempty"`
	Duration    time.Duration  `json:"duration"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Error       string         `json:"error,omitempty"`
}

// RunStatus is the terminal state of a recipe run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RecipeRun is the persisted trace of one full or partial recipe execution.
type RecipeRun struct {
	ID          string            `json:"id"`
	RecipeID    string            `json:"recipe_id"`
	ProjectID   string            `json:"project_id,omitempty"`
	Status      RunStatus         `json:"status"`
	Results     []ExecutionResult `json:"results"`
	Outputs     map[string]any    `json:"outputs,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}
