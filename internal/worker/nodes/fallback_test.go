package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

func TestFallbackNode_EchoesDataWithExecutedMarker(t *testing.T) {
	n := &FallbackNode{NodeType: "future-node-kind"}
	res, err := n.Handle(context.Background(), &core.ExecutionContext{
		NodeID:   "F",
		NodeType: "future-node-kind",
		Data:     map[string]interface{}{"foo": "bar"},
	})
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "bar", out["foo"])
	assert.Equal(t, true, out["executed"])
	assert.Equal(t, "future-node-kind", out["nodeType"])
}
