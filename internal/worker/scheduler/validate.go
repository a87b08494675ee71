package scheduler

import (
	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

type validationFailure struct {
	nodeID  string
	message string
}

// validateNodes checks the kind-specific required fields spec.md §4.6 Phase
// 1 names, stopping at the first violation (static validation never invokes
// a handler).
func validateNodes(nodeList []models.Node) *validationFailure {
	for _, n := range nodeList {
		switch n.Type {
		case models.NodeKindHTTPRequest:
			if core.GetString(n.Data, "url", "") == "" {
				return &validationFailure{n.ID, "missing required field: url"}
			}
		case models.NodeKindCode:
			if core.GetString(n.Data, "code", "") == "" {
				return &validationFailure{n.ID, "missing required field: code"}
			}
		case models.NodeKindAIChat:
			if core.GetString(n.Data, "prompt", "") == "" && core.GetString(n.Data, "systemPrompt", "") == "" {
				return &validationFailure{n.ID, "at least one of prompt, systemPrompt is required"}
			}
		case models.NodeKindDatabase:
			if core.GetString(n.Data, "connectionString", "") == "" {
				return &validationFailure{n.ID, "missing required field: connectionString"}
			}
			if core.GetString(n.Data, "query", "") == "" {
				return &validationFailure{n.ID, "missing required field: query"}
			}
		case models.NodeKindEmail:
			if core.GetString(n.Data, "to", "") == "" {
				return &validationFailure{n.ID, "missing required field: to"}
			}
			if core.GetString(n.Data, "subject", "") == "" {
				return &validationFailure{n.ID, "missing required field: subject"}
			}
			if core.GetString(n.Data, "body", "") == "" {
				return &validationFailure{n.ID, "missing required field: body"}
			}
		}
	}
	return nil
}
