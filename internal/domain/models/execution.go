package models

import (
	"time"

	"github.com/google/uuid"
)

// Execution is one run of a Workflow's graph (spec.md §3). Data holds the
// merged node-output context once the run finishes; the scheduler writes it
// when traversal ends (completed, failed or cancelled), not per node. Until
// then, and after a validation or panic failure (which write no Data), it
// holds the trigger payload when that payload is a JSON object.
type Execution struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	WorkflowID int64      `gorm:"index;not null" json:"workflowId"`
	Status     string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	StartedAt  time.Time  `gorm:"not null" json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Data       JSON       `gorm:"type:jsonb" json:"data,omitempty"`
	Error      *string    `gorm:"type:text" json:"error,omitempty"`
	// TaskID is the asynq task identifier this execution was enqueued under,
	// used to route a cancel request to the worker process actually running
	// it (asynq.Inspector.CancelProcessing broadcasts by this ID).
	TaskID string `gorm:"size:64" json:"-"`

	Workflow Workflow `gorm:"foreignKey:WorkflowID" json:"-"`
}

func (Execution) TableName() string {
	return "executions"
}

// NodeProgress is the ephemeral per-node status reported over the Progress
// Bus (spec.md §3, §4.5), carried inside an ExecutionProgress snapshot. It
// is never persisted as its own row.
type NodeProgress struct {
	NodeID     string      `json:"nodeId"`
	Status     string      `json:"status"`
	Output     interface{} `json:"output,omitempty"`
	Error      string      `json:"error,omitempty"`
	StartedAt  *time.Time  `json:"startedAt,omitempty"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
}

// ExecutionProgress is the full in-flight snapshot the scheduler pushes
// onto the Progress Bus on every state change (spec.md §3). It is never
// persisted; it is broadcast during execution and discarded at terminal
// status.
type ExecutionProgress struct {
	ExecutionID uuid.UUID      `json:"executionId"`
	WorkflowID  int64          `json:"workflowId"`
	Status      string         `json:"status"`
	Nodes       []NodeProgress `json:"nodes"`
	Error       string         `json:"error,omitempty"`
}
