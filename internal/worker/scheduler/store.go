package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
)

// ExecutionUpdate is the partial-update payload for Store.UpdateExecution;
// nil fields are left unchanged. spec.md §4.7 requires updateExecution to be
// idempotent under identical payloads, which a partial-field struct (rather
// than a full row replace) makes natural.
type ExecutionUpdate struct {
	Status     *string
	FinishedAt *time.Time
	Data       models.JSON
	Error      *string
}

// Store is the narrow persistence boundary the Scheduler depends on
// (spec.md §4.7). The scheduler never issues raw queries against it.
type Store interface {
	GetWorkflow(ctx context.Context, id int64) (*models.Workflow, error)
	CreateExecution(ctx context.Context, exec *models.Execution) error
	UpdateExecution(ctx context.Context, id uuid.UUID, update ExecutionUpdate) error
	GetCredential(ctx context.Context, id uuid.UUID) (*models.Credential, error)
	UpdateCredential(ctx context.Context, cred *models.Credential) error
	GetCredentials(ctx context.Context) ([]models.Credential, error)
}
