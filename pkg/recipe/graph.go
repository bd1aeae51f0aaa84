// Package recipe implements the generation recipe graph: validation, node
// execution and the sequential runner.
package recipe

import (
	"fmt"

	"github.com/flarelab/storylab/pkg/models"
)

// ValidationError describes one structural problem in a recipe graph.
type ValidationError struct {
	NodeID  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.NodeID == "" {
		return "invalid recipe: " + e.Message
	}

	return fmt.Sprintf("invalid recipe: node %q: %s", e.NodeID, e.Message)
}

// ValidateGraph checks the structural invariants of a recipe.
//
// Node IDs are unique; every dependency names a node that appears strictly
// earlier in authored order, which rules out cycles without any sorting; and
// every node_* input reference points at an earlier node whose OutputKey
// matches the reference's alias.
func ValidateGraph(recipe *models.Recipe) error {
	if len(recipe.Nodes) == 0 {
		return &ValidationError{Message: "recipe has no nodes"}
	}

	position := make(map[string]int, len(recipe.Nodes))

	for i, node := range recipe.Nodes {
		if node.ID == "" {
			return &ValidationError{Message: fmt.Sprintf("node at position %d has no ID", i)}
		}

		if _, seen := position[node.ID]; seen {
			return &ValidationError{NodeID: node.ID, Message: "duplicate node ID"}
		}

		position[node.ID] = i
	}

	for i, node := range recipe.Nodes {
		for _, dep := range node.Dependencies {
			depPos, ok := position[dep]
			if !ok {
				return &ValidationError{NodeID: node.ID, Message: fmt.Sprintf("dependency %q does not exist", dep)}
			}

			if depPos >= i {
				return &ValidationError{NodeID: node.ID, Message: fmt.Sprintf("dependency %q does not appear earlier in the recipe", dep)}
			}
		}

		for name, field := range node.InputMapping {
			if !field.IsNodeRef() {
				continue
			}

			refID, outputKey := field.NodeRef()

			refPos, ok := position[refID]
			if !ok {
				return &ValidationError{NodeID: node.ID, Message: fmt.Sprintf("input %q references unknown node %q", name, refID)}
			}

			if refPos >= i {
				return &ValidationError{NodeID: node.ID, Message: fmt.Sprintf("input %q references node %q which does not appear earlier", name, refID)}
			}

			if outputKey != "" && recipe.Nodes[refPos].OutputKey != outputKey {
				return &ValidationError{NodeID: node.ID, Message: fmt.Sprintf("input %q expects output %q but node %q produces %q", name, outputKey, refID, recipe.Nodes[refPos].OutputKey)}
			}
		}
	}

	for _, edge := range recipe.Edges {
		fromPos, fromOK := position[edge.From]
		toPos, toOK := position[edge.To]

		if !fromOK || !toOK {
			return &ValidationError{Message: fmt.Sprintf("edge %s -> %s references unknown node", edge.From, edge.To)}
		}

		if fromPos >= toPos {
			return &ValidationError{NodeID: edge.To, Message: fmt.Sprintf("edge from %q does not point forward", edge.From)}
		}
	}

	return nil
}

// Ancestors returns the transitive dependencies of a node in authored order.
func Ancestors(recipe *models.Recipe, nodeID string) []*models.RecipeNode {
	needed := make(map[string]bool)

	var mark func(id string)

	mark = func(id string) {
		node := recipe.NodeByID(id)
		if node == nil {
			return
		}

		for _, dep := range node.Dependencies {
			if !needed[dep] {
				needed[dep] = true
				mark(dep)
			}
		}

		for _, field := range node.InputMapping {
			if refID, _ := field.NodeRef(); refID != "" && !needed[refID] {
				needed[refID] = true
				mark(refID)
			}
		}
	}

	mark(nodeID)

	ancestors := make([]*models.RecipeNode, 0, len(needed))

	for _, node := range recipe.Nodes {
		if needed[node.ID] {
			ancestors = append(ancestors, node)
		}
	}

	return ancestors
}
