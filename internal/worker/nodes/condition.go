package nodes

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

// ConditionNode evaluates a single boolean expression against the node's
// upstream context and branches true/false (supplemented kind, grounded on
// the teacher's logic.condition but using expr-lang/expr instead of its ad
// hoc operator switch).
type ConditionNode struct{}

func (n *ConditionNode) Type() string { return models.NodeKindCondition }

func (n *ConditionNode) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	expression := core.GetString(execCtx.Data, "expression", "")
	if expression == "" {
		return nil, apperrors.Validation(execCtx.NodeID, "missing required field: expression")
	}

	env := exprEnv(execCtx)
	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeCodeRuntimeError, fmt.Sprintf("invalid condition expression: %v", err), err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeCodeRuntimeError, fmt.Sprintf("condition evaluation failed: %v", err), err)
	}

	matched, _ := result.(bool)
	branch := "false"
	if matched {
		branch = "true"
	}

	return map[string]interface{}{
		"result": matched,
		"branch": branch,
	}, nil
}

// exprEnv exposes upstream node outputs (keyed by node id) plus a flattened
// $json alias for the current node's own data, mirroring the teacher's
// execCtx.Input["$json"] convention.
func exprEnv(execCtx *core.ExecutionContext) map[string]interface{} {
	env := make(map[string]interface{}, len(execCtx.Context)+1)
	for k, v := range execCtx.Context {
		env[k] = v
	}
	env["$json"] = execCtx.Data
	return env
}
