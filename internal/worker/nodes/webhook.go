package nodes

import (
	"context"
	"time"

	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

// WebhookNode is the trigger kind for workflows started from an inbound
// webhook call. When the scheduler has pre-seeded execCtx.Context[nodeId]
// with the trigger payload it is returned verbatim; otherwise the node
// synthesizes a stub, which lets a workflow be test-run without a real
// caller.
type WebhookNode struct{}

func (n *WebhookNode) Type() string { return "webhook" }

func (n *WebhookNode) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	if seeded, ok := execCtx.Context[execCtx.NodeID]; ok {
		return seeded, nil
	}

	return map[string]interface{}{
		"received":  true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"body":      map[string]interface{}{},
		"headers":   map[string]interface{}{},
		"query":     map[string]interface{}{},
	}, nil
}
