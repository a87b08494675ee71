package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

func TestCodeNode_ReturnsObject(t *testing.T) {
	n := NewCodeNode()
	execCtx := &core.ExecutionContext{
		NodeID: "B",
		Data:   map[string]interface{}{"code": "return {v: 1 + 2};"},
		Context: map[string]interface{}{
			"A": map[string]interface{}{"n": float64(3)},
		},
	}

	res, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(3), toInt64(out["v"]))
}

func TestCodeNode_AccessesItemsFromContext(t *testing.T) {
	n := NewCodeNode()
	execCtx := &core.ExecutionContext{
		NodeID: "B",
		Data: map[string]interface{}{
			"code": "var a = items.find(function(i){ return i.nodeId === 'A'; }); return {v: a.json.n * 2};",
		},
		Context: map[string]interface{}{
			"A": map[string]interface{}{"n": float64(3)},
		},
	}

	res, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(6), toInt64(out["v"]))
}

func TestCodeNode_MissingCodeIsValidationError(t *testing.T) {
	n := NewCodeNode()
	execCtx := &core.ExecutionContext{NodeID: "B", Data: map[string]interface{}{}}

	_, err := n.Handle(context.Background(), execCtx)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
}

func TestCodeNode_ThrowingScriptIsRuntimeError(t *testing.T) {
	n := NewCodeNode()
	execCtx := &core.ExecutionContext{
		NodeID: "B",
		Data:   map[string]interface{}{"code": "throw new Error('boom');"},
	}

	_, err := n.Handle(context.Background(), execCtx)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeCodeRuntimeError, appErr.Code)
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}
