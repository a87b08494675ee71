package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

func TestConditionNode_TrueBranch(t *testing.T) {
	n := &ConditionNode{}
	execCtx := &core.ExecutionContext{
		NodeID: "C",
		Data:   map[string]interface{}{"expression": "A.n > 2"},
		Context: map[string]interface{}{
			"A": map[string]interface{}{"n": float64(3)},
		},
	}
	res, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, out["result"])
	assert.Equal(t, "true", out["branch"])
}

func TestConditionNode_FalseBranch(t *testing.T) {
	n := &ConditionNode{}
	execCtx := &core.ExecutionContext{
		NodeID: "C",
		Data:   map[string]interface{}{"expression": "A.n > 10"},
		Context: map[string]interface{}{
			"A": map[string]interface{}{"n": float64(3)},
		},
	}
	res, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, out["result"])
	assert.Equal(t, "false", out["branch"])
}

func TestConditionNode_MissingExpression(t *testing.T) {
	n := &ConditionNode{}
	_, err := n.Handle(context.Background(), &core.ExecutionContext{NodeID: "C", Data: map[string]interface{}{}})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
}
