package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

func TestWebhookNode_ReturnsSeededPayloadVerbatim(t *testing.T) {
	n := &WebhookNode{}

	// A non-object trigger payload (spec.md's `triggerData?: any`) must
	// survive unchanged, not get coerced or discarded in favor of a stub.
	execCtx := &core.ExecutionContext{
		NodeID:  "W",
		Context: map[string]interface{}{"W": []interface{}{"a", "b", "c"}},
	}
	out, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b", "c"}, out)
}

func TestWebhookNode_NoSeedSynthesizesStub(t *testing.T) {
	n := &WebhookNode{}
	execCtx := &core.ExecutionContext{NodeID: "W"}

	res, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, out["received"])
}
