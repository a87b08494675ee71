package nodes

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

// FallbackNode handles any node type not claimed by a registered handler.
// It echoes the node's data back with an executed marker rather than
// failing the execution, so a workflow authored against a newer node
// catalog than this worker understands still produces output for
// downstream nodes to read.
type FallbackNode struct {
	NodeType string
}

func (n *FallbackNode) Type() string { return n.NodeType }

func (n *FallbackNode) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	log.Warn().
		Str("nodeId", execCtx.NodeID).
		Str("nodeType", execCtx.NodeType).
		Msg("no handler registered for node type, falling back to echo")

	out := core.CopyMap(execCtx.Data)
	out["executed"] = true
	out["nodeType"] = execCtx.NodeType
	return out, nil
}
