package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

func TestSwitchNode_MatchesFirstTrueCase(t *testing.T) {
	n := &SwitchNode{}
	execCtx := &core.ExecutionContext{
		NodeID: "S",
		Data: map[string]interface{}{
			"cases": []interface{}{
				map[string]interface{}{"name": "low", "expression": "A.n < 5"},
				map[string]interface{}{"name": "high", "expression": "A.n >= 5"},
			},
		},
		Context: map[string]interface{}{
			"A": map[string]interface{}{"n": float64(10)},
		},
	}
	res, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "high", out["case"])
	assert.Equal(t, 1, out["caseIndex"])
	assert.Equal(t, true, out["matched"])
}

func TestSwitchNode_NoMatchReturnsDefault(t *testing.T) {
	n := &SwitchNode{}
	execCtx := &core.ExecutionContext{
		NodeID: "S",
		Data: map[string]interface{}{
			"cases": []interface{}{
				map[string]interface{}{"name": "low", "expression": "A.n < 0"},
			},
		},
		Context: map[string]interface{}{
			"A": map[string]interface{}{"n": float64(10)},
		},
	}
	res, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "default", out["case"])
	assert.Equal(t, -1, out["caseIndex"])
}
