// Package scheduler implements the Scheduler (C6), the heart of the engine:
// it builds the workflow graph, validates it, runs the BFS traversal with
// parent-completion gating, seeds trigger data, cascades skips on failure,
// and emits progress (spec.md §4.6). Grounded on the teacher's
// executor/dag.go for graph shape and processor/processor.go's
// executeNode/executeSequential for the per-node dispatch envelope, but
// restructured into the literal FIFO-queue BFS the spec requires instead of
// the teacher's precomputed topological order.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/metrics"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
	"github.com/flowcraft-dev/flowcraft/internal/worker/nodes"
	"github.com/flowcraft-dev/flowcraft/internal/worker/progress"
	"github.com/flowcraft-dev/flowcraft/internal/worker/template"
)

// Scheduler drives one execution to completion per call to Run.
type Scheduler struct {
	Store       Store
	Bus         *progress.Bus
	Registry    *core.Registry
	Env         map[string]string
	NodeTimeout time.Duration
}

func New(store Store, bus *progress.Bus, registry *core.Registry) *Scheduler {
	return &Scheduler{Store: store, Bus: bus, Registry: registry}
}

// Run executes workflow under executionID, optionally seeding triggerData
// into every webhook-kind start node. It never panics out and never returns
// an error — all outcomes are reported through the Execution row and
// progress snapshots (spec.md §7's "scheduler never throws out of its top-
// level entry point").
func (s *Scheduler) Run(ctx context.Context, workflow *models.Workflow, executionID uuid.UUID, triggerData interface{}) {
	runStart := time.Now()
	metrics.WorkflowExecutionsInProgress.Inc()
	defer metrics.WorkflowExecutionsInProgress.Dec()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("executionId", executionID.String()).Msg("scheduler recovered from panic")
			s.failRaw(ctx, executionID, workflow.ID, fmt.Sprintf("Unexpected error: %v", r), nil, workflow)
		}
	}()

	// Phase 1 — static validation.
	if verr := validateNodes(workflow.Nodes); verr != nil {
		nodeProgress := pendingSnapshot(workflow.Nodes)
		msg := fmt.Sprintf("Validation error: [%s] %s", verr.nodeID, verr.message)
		s.persistExecution(ctx, executionID, models.ExecutionStatusFailed, nil, msg)
		s.emit(executionID, workflow.ID, models.ExecutionStatusFailed, nodeProgress, msg)
		metrics.RecordWorkflowExecution(fmt.Sprintf("%d", workflow.ID), models.ExecutionStatusFailed, time.Since(runStart).Seconds())
		return
	}

	// Phase 2 — graph construction.
	g := buildGraph(workflow)
	nodeState := make(map[string]*models.NodeProgress, len(g.order))
	for _, id := range g.order {
		nodeState[id] = &models.NodeProgress{NodeID: id, Status: models.NodeStatusPending}
	}

	// Phase 3 — seeding.
	execContext := make(map[string]interface{})
	starts := g.startNodes()
	if triggerData != nil {
		for _, id := range starts {
			if g.nodeMap[id].Type == models.NodeKindWebhook {
				execContext[id] = triggerData
			}
		}
	}
	s.persistExecution(ctx, executionID, models.ExecutionStatusRunning, nil, "")
	s.emit(executionID, workflow.ID, models.ExecutionStatusRunning, snapshotOf(nodeState, g.order), "")

	// Phase 4 — traversal.
	queue := append([]string{}, starts...)
	visited := make(map[string]bool, len(g.order))

	for len(queue) > 0 {
		if ctx.Err() != nil {
			for _, id := range g.order {
				if nodeState[id].Status == models.NodeStatusPending || nodeState[id].Status == models.NodeStatusRunning {
					nodeState[id].Status = models.NodeStatusSkipped
				}
			}
			cancelMsg := "execution cancelled"
			data, _ := toJSON(execContext)
			s.persistExecution(context.Background(), executionID, models.ExecutionStatusFailed, data, cancelMsg)
			s.emit(executionID, workflow.ID, models.ExecutionStatusFailed, snapshotOf(nodeState, g.order), cancelMsg)
			s.Bus.Cleanup(executionID)
			metrics.RecordWorkflowExecution(fmt.Sprintf("%d", workflow.ID), models.ExecutionStatusFailed, time.Since(runStart).Seconds())
			return
		}

		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}

		node := g.nodeMap[current]
		startedAt := time.Now().UTC()
		nodeState[current].Status = models.NodeStatusRunning
		nodeState[current].StartedAt = &startedAt
		s.emit(executionID, workflow.ID, models.ExecutionStatusRunning, snapshotOf(nodeState, g.order), "")

		output, err := s.invoke(ctx, executionID, workflow.ID, node, execContext)
		finishedAt := time.Now().UTC()
		nodeDuration := finishedAt.Sub(startedAt).Seconds()

		if err != nil {
			msg := errorMessage(err)
			nodeState[current].Status = models.NodeStatusError
			nodeState[current].Error = msg
			nodeState[current].FinishedAt = &finishedAt
			metrics.RecordNodeExecution(node.Type, models.NodeStatusError, nodeDuration)

			for _, descendant := range g.descendants(current) {
				if nodeState[descendant].Status == models.NodeStatusPending {
					nodeState[descendant].Status = models.NodeStatusSkipped
				}
			}

			failMsg := fmt.Sprintf("node %s: %s", current, msg)
			data, _ := toJSON(execContext)
			s.persistExecution(ctx, executionID, models.ExecutionStatusFailed, data, failMsg)
			s.emit(executionID, workflow.ID, models.ExecutionStatusFailed, snapshotOf(nodeState, g.order), failMsg)
			s.Bus.Cleanup(executionID)
			metrics.RecordWorkflowExecution(fmt.Sprintf("%d", workflow.ID), models.ExecutionStatusFailed, time.Since(runStart).Seconds())
			return
		}

		metrics.RecordNodeExecution(node.Type, models.NodeStatusSuccess, nodeDuration)
		execContext[current] = output
		nodeState[current].Status = models.NodeStatusSuccess
		nodeState[current].Output = output
		nodeState[current].FinishedAt = &finishedAt
		s.emit(executionID, workflow.ID, models.ExecutionStatusRunning, snapshotOf(nodeState, g.order), "")

		visited[current] = true

		for _, child := range g.adj[current] {
			if visited[child] {
				continue
			}
			ready := true
			for _, parent := range g.parents[child] {
				if !visited[parent] {
					ready = false
					break
				}
			}
			if ready {
				queue = append(queue, child)
			}
		}
	}

	// Phase 5 — completion.
	data, _ := toJSON(execContext)
	s.persistExecution(ctx, executionID, models.ExecutionStatusCompleted, data, "")
	s.emit(executionID, workflow.ID, models.ExecutionStatusCompleted, snapshotOf(nodeState, g.order), "")
	s.Bus.Cleanup(executionID)
	metrics.RecordWorkflowExecution(fmt.Sprintf("%d", workflow.ID), models.ExecutionStatusCompleted, time.Since(runStart).Seconds())
}

func (s *Scheduler) invoke(ctx context.Context, executionID uuid.UUID, workflowID int64, node *models.Node, execContext map[string]interface{}) (interface{}, error) {
	resolved := template.Resolve(map[string]interface{}(node.Data), template.NodeOutputLookup(execContext))
	resolvedData, _ := resolved.(map[string]interface{})
	if resolvedData == nil {
		resolvedData = make(map[string]interface{})
	}

	var handler core.Handler
	if h, ok := s.Registry.Get(node.Type); ok {
		handler = h
	} else {
		handler = &nodes.FallbackNode{NodeType: node.Type}
	}

	execCtx := &core.ExecutionContext{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		NodeID:      node.ID,
		NodeType:    node.Type,
		Data:        resolvedData,
		Context:     execContext,
		Env:         s.Env,
		GetCredential: func(id uuid.UUID) (*models.Credential, error) {
			return s.Store.GetCredential(ctx, id)
		},
		UpdateCredential: func(cred *models.Credential) error {
			return s.Store.UpdateCredential(ctx, cred)
		},
	}

	nodeCtx := ctx
	if s.NodeTimeout > 0 {
		var cancel context.CancelFunc
		nodeCtx, cancel = context.WithTimeout(ctx, s.NodeTimeout)
		defer cancel()
	}

	return handler.Handle(nodeCtx, execCtx)
}

func (s *Scheduler) emit(executionID uuid.UUID, workflowID int64, status string, nodeProgress []models.NodeProgress, errMsg string) {
	s.Bus.Emit(models.ExecutionProgress{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		Status:      status,
		Nodes:       nodeProgress,
		Error:       errMsg,
	})
}

func (s *Scheduler) persistExecution(ctx context.Context, executionID uuid.UUID, status string, data models.JSON, errMsg string) {
	update := ExecutionUpdate{Status: &status}
	if data != nil {
		update.Data = data
	}
	if errMsg != "" {
		update.Error = &errMsg
	}
	if status == models.ExecutionStatusCompleted || status == models.ExecutionStatusFailed {
		now := time.Now().UTC()
		update.FinishedAt = &now
	}
	if err := s.Store.UpdateExecution(ctx, executionID, update); err != nil {
		// StoreError: logged but never re-raised while reporting another
		// failure (spec.md §7).
		log.Error().Err(err).Str("executionId", executionID.String()).Msg("failed to persist execution update")
	}
}

func (s *Scheduler) failRaw(ctx context.Context, executionID uuid.UUID, workflowID int64, msg string, nodeState []models.NodeProgress, workflow *models.Workflow) {
	if nodeState == nil {
		nodeState = pendingSnapshot(workflow.Nodes)
	}
	s.persistExecution(ctx, executionID, models.ExecutionStatusFailed, nil, msg)
	s.emit(executionID, workflowID, models.ExecutionStatusFailed, nodeState, msg)
	s.Bus.Cleanup(executionID)
}

func snapshotOf(state map[string]*models.NodeProgress, order []string) []models.NodeProgress {
	out := make([]models.NodeProgress, 0, len(order))
	for _, id := range order {
		out = append(out, *state[id])
	}
	return out
}

func pendingSnapshot(nodeList []models.Node) []models.NodeProgress {
	out := make([]models.NodeProgress, 0, len(nodeList))
	for _, n := range nodeList {
		out = append(out, models.NodeProgress{NodeID: n.ID, Status: models.NodeStatusPending})
	}
	return out
}

func errorMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

func toJSON(ctx map[string]interface{}) (models.JSON, error) {
	return models.JSON(ctx), nil
}
