package models

import (
	"strings"
	"time"
)

// NodeType selects which capability a recipe node invokes.
type NodeType string

const (
	NodeTypeTextGeneration  NodeType = "text_generation"
	NodeTypeImageGeneration NodeType = "image_generation"
	NodeTypeVideoGeneration NodeType = "video_generation"
	NodeTypeDataProcessing  NodeType = "data_processing"
)

// ErrorPolicy governs what the runner does when a node fails.
type ErrorPolicy string

const (
	ErrorPolicyFail  ErrorPolicy = "fail"
	ErrorPolicySkip  ErrorPolicy = "skip"
	ErrorPolicyRetry ErrorPolicy = "retry"
)

// DefaultMaxRetries bounds ErrorPolicyRetry when a node does not set its own.
const DefaultMaxRetries = 3

// Input source prefixes recognised by the node executor.
const (
	SourceExternalPrefix = "external_input."
	SourceNodePrefix     = "node_"
)

// InputField maps one named input of a node to where its value comes from.
//
// Source is either "external_input.<field>" (read from the caller-supplied
// input object) or "node_<id>.<outputKey>" (read from an upstream node's
// recorded output). Outputs are keyed by node ID internally; the outputKey
// suffix is a display alias validated against the referenced node.
type InputField struct {
	Source      string `json:"source"      validate:"required"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Description string `json:"description"`
	SampleData  any    `json:"sample_data,omitempty"`
}

// IsExternal reports whether the field reads from the external input object.
func (f InputField) IsExternal() bool {
	return strings.HasPrefix(f.Source, SourceExternalPrefix)
}

// IsNodeRef reports whether the field reads from an upstream node output.
func (f InputField) IsNodeRef() bool {
	return strings.HasPrefix(f.Source, SourceNodePrefix)
}

// ExternalField returns the external input field name, or "".
func (f InputField) ExternalField() string {
	if !f.IsExternal() {
		return ""
	}

	return strings.TrimPrefix(f.Source, SourceExternalPrefix)
}

// NodeRef returns the referenced node ID and output key alias, or ("", "").
func (f InputField) NodeRef() (nodeID, outputKey string) {
	if !f.IsNodeRef() {
		return "", ""
	}

	ref := strings.TrimPrefix(f.Source, SourceNodePrefix)

	if idx := strings.Index(ref, "."); idx >= 0 {
		return ref[:idx], ref[idx+1:]
	}

	return ref, ""
}

// ModelSettings carries the per-node model preference of a recipe author.
type ModelSettings struct {
	Provider    string  `json:"provider"`
	ModelName   string  `json:"model_name"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
}

// ErrorHandling configures the failure policy of one node.
type ErrorHandling struct {
	OnError    ErrorPolicy `json:"on_error"    validate:"omitempty,oneof=fail skip retry"`
	MaxRetries int         `json:"max_retries" validate:"gte=0,lte=10"`
}

// Policy returns the configured policy, defaulting to fail.
func (e ErrorHandling) Policy() ErrorPolicy {
	if e.OnError == "" {
		return ErrorPolicyFail
	}

	return e.OnError
}

// Retries returns the configured retry bound, defaulting to DefaultMaxRetries.
func (e ErrorHandling) Retries() int {
	if e.MaxRetries <= 0 {
		return DefaultMaxRetries
	}

	return e.MaxRetries
}

// RecipeNode is one unit of work in a recipe graph.
type RecipeNode struct {
	ID            string                `json:"id"             validate:"required"`
	Name          string                `json:"name"           validate:"required,min=1"`
	Type          NodeType              `json:"type"           validate:"required,oneof=text_generation image_generation video_generation data_processing"`
	InputMapping  map[string]InputField `json:"input_mapping"`
	OutputKey     string                `json:"output_key"     validate:"required"`
	AIModel       ModelSettings         `json:"ai_model"`
	Prompt        string                `json:"prompt"`
	ErrorHandling ErrorHandling         `json:"error_handling"`
	Dependencies  []string              `json:"dependencies"`
}

// Edge records an authored dependency between two nodes.
type Edge struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to"   validate:"required"`
}

// Recipe is a DAG of nodes executed in authored order.
//
// Node array order is the execution order; edges point forward in that order,
// so the graph is acyclic by construction rather than by dynamic sorting.
type Recipe struct {
	ID          string        `json:"id"`
	Name        string        `json:"name" validate:"required,min=3"`
	Description string        `json:"description"`
	Nodes       []*RecipeNode `json:"nodes" validate:"required,min=1"`
	Edges       []Edge        `json:"edges"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NodeByID returns the node with the given ID, or nil.
func (r *Recipe) NodeByID(id string) *RecipeNode {
	for _, node := range r.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// NodeIndex returns the authored position of a node, or -1.
func (r *Recipe) NodeIndex(id string) int {
	for i, node := range r.Nodes {
		if node.ID == id {
			return i
		}
	}

	return -1
}
