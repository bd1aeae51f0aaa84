package recipe

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flarelab/storylab/pkg/events"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/otelhelper"
	"github.com/flarelab/storylab/pkg/streaming"
)

// RunResult is the outcome of a full or partial recipe run.
//
// Outputs is keyed by OutputKey for callers; internally the runner keys
// accumulated outputs by node ID so duplicate output keys cannot collide.
type RunResult struct {
	Results      []models.ExecutionResult `json:"results"`
	Outputs      map[string]any           `json:"outputs"`
	Success      bool                     `json:"success"`
	FailedNodeID string                   `json:"failed_node_id,omitempty"`
}

// SingleNodeOptions configures RunSingleNode.
type SingleNodeOptions struct {
	// ExecuteDependencies runs the node's ancestors first. When false,
	// MockOutputs stands in for upstream outputs, keyed by node ID.
	ExecuteDependencies bool
	MockOutputs         map[string]any
}

// Runner executes recipes sequentially in authored order.
type Runner struct {
	executor *Executor
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewRunner creates a recipe runner.
func NewRunner(executor *Executor, logger *slog.Logger) *Runner {
	return &Runner{
		executor: executor,
		logger:   logger.With("module", "recipe"),
		tracer:   otel.Tracer("storylab/recipe"),
	}
}

// RunFull executes every node in authored order, stopping at the first
// fail-policy failure. Skip-policy failures record the failed result, leave
// the node's output unset and continue. sink may be nil.
func (r *Runner) RunFull(ctx context.Context, recipe *models.Recipe, project *models.Project, external map[string]any, sink streaming.Sink) (*RunResult, error) {
	if err := ValidateGraph(recipe); err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "recipe.run_full",
		attribute.String(otelhelper.RecipeIDKey, recipe.ID))
	defer span.End()

	r.send(sink, events.Start{Total: len(recipe.Nodes)})

	result := &RunResult{
		Results: make([]models.ExecutionResult, 0, len(recipe.Nodes)),
		Outputs: make(map[string]any),
		Success: true,
	}
	byNodeID := make(map[string]any, len(recipe.Nodes))

	for i, node := range recipe.Nodes {
		nodeResult := r.runNode(ctx, node, project, external, byNodeID)
		result.Results = append(result.Results, nodeResult)

		r.send(sink, events.Node{
			NodeID:   node.ID,
			NodeName: node.Name,
			Success:  nodeResult.Success,
			Output:   nodeResult.Output,
			Error:    nodeResult.Error,
		})
		r.send(sink, events.Progress{Current: i + 1, Total: len(recipe.Nodes)})

		if nodeResult.Success {
			byNodeID[node.ID] = nodeResult.Output
			result.Outputs[node.OutputKey] = nodeResult.Output

			continue
		}

		if node.ErrorHandling.Policy() == models.ErrorPolicySkip {
			r.logger.WarnContext(ctx, "Node failed, skipping",
				"recipe_id", recipe.ID, "node_id", node.ID, "error", nodeResult.Error)

			continue
		}

		result.Success = false
		result.FailedNodeID = node.ID

		span.SetStatus(codes.Error, nodeResult.Error)
		r.send(sink, events.Error{Message: nodeResult.Error, Fatal: true})

		return result, nil
	}

	r.send(sink, events.Complete{Count: len(result.Results), Result: result.Outputs})

	return result, nil
}

// RunSingleNode executes one node for recipe authoring and debugging.
func (r *Runner) RunSingleNode(ctx context.Context, recipe *models.Recipe, nodeID string, external map[string]any, options SingleNodeOptions) (*RunResult, error) {
	if err := ValidateGraph(recipe); err != nil {
		return nil, err
	}

	node := recipe.NodeByID(nodeID)
	if node == nil {
		return nil, &ValidationError{NodeID: nodeID, Message: "node does not exist"}
	}

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "recipe.run_single_node",
		attribute.String(otelhelper.RecipeIDKey, recipe.ID),
		attribute.String(otelhelper.NodeIDKey, nodeID))
	defer span.End()

	result := &RunResult{
		Outputs: make(map[string]any),
		Success: true,
	}

	byNodeID := make(map[string]any)

	if options.ExecuteDependencies {
		for _, ancestor := range Ancestors(recipe, nodeID) {
			ancestorResult := r.runNode(ctx, ancestor, nil, external, byNodeID)
			result.Results = append(result.Results, ancestorResult)

			if !ancestorResult.Success {
				if ancestor.ErrorHandling.Policy() == models.ErrorPolicySkip {
					continue
				}

				result.Success = false
				result.FailedNodeID = ancestor.ID
				span.SetStatus(codes.Error, ancestorResult.Error)

				return result, nil
			}

			byNodeID[ancestor.ID] = ancestorResult.Output
			result.Outputs[ancestor.OutputKey] = ancestorResult.Output
		}
	} else {
		for id, output := range options.MockOutputs {
			byNodeID[id] = output
		}
	}

	nodeResult := r.runNode(ctx, node, nil, external, byNodeID)
	result.Results = append(result.Results, nodeResult)

	if !nodeResult.Success {
		result.Success = false
		result.FailedNodeID = node.ID
		span.SetStatus(codes.Error, nodeResult.Error)

		return result, nil
	}

	result.Outputs[node.OutputKey] = nodeResult.Output

	return result, nil
}

func (r *Runner) runNode(ctx context.Context, node *models.RecipeNode, project *models.Project, external map[string]any, outputs map[string]any) models.ExecutionResult {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "recipe.node",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)))
	defer span.End()

	result := r.executor.ExecuteNode(ctx, node, project, external, outputs)
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}

	return result
}

func (r *Runner) send(sink streaming.Sink, event streaming.Event) {
	if sink == nil {
		return
	}

	if err := sink.Send(event); err != nil && !errors.Is(err, streaming.ErrStreamClosed) {
		r.logger.Warn("Failed to deliver progress event", "event_type", string(event.GetType()), "error", err)
	}
}
