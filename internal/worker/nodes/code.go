package nodes

import (
	"context"

	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

// CodeNode runs user-submitted JavaScript in a sandboxed goja VM
// (spec.md §4.3.3).
type CodeNode struct {
	sandbox *sandbox
}

func NewCodeNode() *CodeNode {
	return &CodeNode{sandbox: newSandbox()}
}

func (n *CodeNode) Type() string { return "code" }

func (n *CodeNode) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	code := core.GetString(execCtx.Data, "code", "")
	if code == "" {
		return nil, apperrors.Validation(execCtx.NodeID, "missing required field: code")
	}

	items := make([]map[string]interface{}, 0, len(execCtx.Context))
	for nodeID, output := range execCtx.Context {
		items = append(items, map[string]interface{}{
			"nodeId": nodeID,
			"json":   output,
		})
	}

	node := map[string]interface{}{
		"id":   execCtx.NodeID,
		"type": execCtx.NodeType,
		"data": execCtx.Data,
	}

	result, err := n.sandbox.run(ctx, code, items, node, execCtx.Env)
	if err != nil {
		if ce, ok := err.(*codeError); ok {
			if ce.timeout {
				return nil, apperrors.Handler(apperrors.CodeCodeTimeout, "code node timed out", ce)
			}
			return nil, apperrors.Handler(apperrors.CodeCodeRuntimeError, ce.Error(), ce)
		}
		return nil, apperrors.Handler(apperrors.CodeCodeRuntimeError, err.Error(), err)
	}

	if m, ok := result.(map[string]interface{}); ok {
		return m, nil
	}
	return map[string]interface{}{"result": result}, nil
}
