// Package worker wires the asynq consumer that turns a queued
// WorkflowExecutionPayload into a Scheduler.Run call — the CRUD→engine
// hand-off spec.md §2 describes as "spawns the Scheduler asynchronously".
package worker

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/flowcraft-dev/flowcraft/internal/pkg/config"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/queue"
	"github.com/flowcraft-dev/flowcraft/internal/worker/scheduler"
)

type Worker struct {
	cfg       *config.Config
	server    *queue.Server
	scheduler *scheduler.Scheduler
	store     scheduler.Store
}

func New(cfg *config.Config, sched *scheduler.Scheduler, store scheduler.Store) *Worker {
	server := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency)

	w := &Worker{
		cfg:       cfg,
		server:    server,
		scheduler: sched,
		store:     store,
	}

	server.HandleFunc(queue.TypeWorkflowExecution, w.handleWorkflowExecution)

	return w
}

func (w *Worker) Start() error {
	log.Info().Msg("Starting worker...")
	return w.server.Start()
}

func (w *Worker) Shutdown() {
	log.Info().Msg("Shutting down worker...")
	w.server.Shutdown()
}

func (w *Worker) handleWorkflowExecution(ctx context.Context, task *asynq.Task) error {
	var payload queue.WorkflowExecutionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	log.Info().
		Int64("workflowId", payload.WorkflowID).
		Str("executionId", payload.ExecutionID.String()).
		Msg("processing workflow execution")

	workflow, err := w.store.GetWorkflow(ctx, payload.WorkflowID)
	if err != nil {
		log.Error().Err(err).Int64("workflowId", payload.WorkflowID).Msg("workflow not found for queued execution")
		return err
	}

	var triggerData interface{}
	if len(payload.TriggerData) > 0 {
		if err := json.Unmarshal(payload.TriggerData, &triggerData); err != nil {
			log.Error().Err(err).Str("executionId", payload.ExecutionID.String()).Msg("malformed triggerData in queued execution")
			return err
		}
	}

	// Run synchronously: asynq's own worker pool is the concurrency
	// mechanism, so handleWorkflowExecution need not spawn its own
	// goroutine (spec.md §7's "the scheduler never throws out of its
	// top-level entry point" already makes Run panic-safe).
	w.scheduler.Run(ctx, workflow, payload.ExecutionID, triggerData)
	return nil
}
