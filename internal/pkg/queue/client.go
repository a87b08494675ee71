package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/flowcraft-dev/flowcraft/internal/pkg/config"
)

const (
	TypeWorkflowExecution = "workflow:execution"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg *config.RedisConfig) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Client{client: client}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// WorkflowExecutionPayload is the CRUD layer's hand-off to the worker: it
// names the workflow/execution row already created and any webhook trigger
// payload to seed (spec.md §2's "spawns the Scheduler asynchronously").
type WorkflowExecutionPayload struct {
	WorkflowID  int64           `json:"workflowId"`
	ExecutionID uuid.UUID       `json:"executionId"`
	TriggerData json.RawMessage `json:"triggerData,omitempty"`
}

func (c *Client) EnqueueWorkflowExecution(ctx context.Context, payload WorkflowExecutionPayload) (*asynq.TaskInfo, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeWorkflowExecution, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	return c.client.EnqueueContext(ctx, task)
}

func (c *Client) EnqueuePriorityWorkflowExecution(ctx context.Context, payload WorkflowExecutionPayload) (*asynq.TaskInfo, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeWorkflowExecution, data,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	return c.client.EnqueueContext(ctx, task)
}
