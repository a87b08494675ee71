package nodes

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

// SwitchNode evaluates an ordered list of named expressions and reports the
// first one that is true, falling back to "default" (supplemented kind,
// grounded on the teacher's logic.switch rules mode, using expr-lang/expr
// per case instead of the teacher's operator table).
type SwitchNode struct{}

func (n *SwitchNode) Type() string { return models.NodeKindSwitch }

func (n *SwitchNode) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	cases := core.GetArray(execCtx.Data, "cases")
	if len(cases) == 0 {
		return nil, apperrors.Validation(execCtx.NodeID, "missing required field: cases")
	}

	env := exprEnv(execCtx)

	for i, c := range cases {
		caseMap, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		expression := core.GetString(caseMap, "expression", "")
		name := core.GetString(caseMap, "name", fmt.Sprintf("case_%d", i))
		if expression == "" {
			continue
		}

		program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, apperrors.Handler(apperrors.CodeCodeRuntimeError, fmt.Sprintf("invalid case expression %q: %v", name, err), err)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return nil, apperrors.Handler(apperrors.CodeCodeRuntimeError, fmt.Sprintf("case %q evaluation failed: %v", name, err), err)
		}
		if matched, _ := result.(bool); matched {
			return map[string]interface{}{
				"case":      name,
				"caseIndex": i,
				"matched":   true,
			}, nil
		}
	}

	return map[string]interface{}{
		"case":      "default",
		"caseIndex": -1,
		"matched":   false,
	}, nil
}
