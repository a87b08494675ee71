package scheduler

import "github.com/flowcraft-dev/flowcraft/internal/domain/models"

// PreviewResult is the outcome of a dry-run validation pass: the same
// static checks Run's Phase 1 performs, but without creating an execution or
// invoking a single handler. Grounded on the teacher's
// processor/processor.go Preview method.
type PreviewResult struct {
	Valid   bool   `json:"valid"`
	NodeID  string `json:"nodeId,omitempty"`
	Message string `json:"message,omitempty"`
}

// Preview runs spec.md §4.6 Phase 1's static validation against a workflow
// without scheduling anything. Used by the CRUD layer's dry-run endpoint so
// a caller can catch a malformed workflow before POSTing an execute.
func Preview(workflow *models.Workflow) PreviewResult {
	if verr := validateNodes(workflow.Nodes); verr != nil {
		return PreviewResult{Valid: false, NodeID: verr.nodeID, Message: verr.message}
	}
	g := buildGraph(workflow)
	if len(g.startNodes()) == 0 && len(workflow.Nodes) > 0 {
		return PreviewResult{Valid: false, Message: "workflow has no start node (a node with no incoming edges)"}
	}
	return PreviewResult{Valid: true}
}
