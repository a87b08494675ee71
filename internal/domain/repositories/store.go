package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/scheduler"
)

// GormStore implements scheduler.Store (C7) on top of the GORM repositories,
// giving the scheduler the narrow persistence boundary it depends on
// without exposing the rest of the repository surface.
type GormStore struct {
	Workflows   *WorkflowRepository
	Executions  *ExecutionRepository
	Credentials *CredentialRepository
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		Workflows:   NewWorkflowRepository(db),
		Executions:  NewExecutionRepository(db),
		Credentials: NewCredentialRepository(db),
	}
}

func (s *GormStore) GetWorkflow(ctx context.Context, id int64) (*models.Workflow, error) {
	wf, err := s.Workflows.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrWorkflowNotFound
		}
		return nil, err
	}
	return wf, nil
}

func (s *GormStore) CreateExecution(ctx context.Context, exec *models.Execution) error {
	return s.Executions.Create(ctx, exec)
}

func (s *GormStore) UpdateExecution(ctx context.Context, id uuid.UUID, update scheduler.ExecutionUpdate) error {
	return s.Executions.Update(ctx, id, update.Status, update.FinishedAt, update.Data, update.Error)
}

func (s *GormStore) GetCredential(ctx context.Context, id uuid.UUID) (*models.Credential, error) {
	cred, err := s.Credentials.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrCredentialNotFound
		}
		return nil, err
	}
	return cred, nil
}

func (s *GormStore) UpdateCredential(ctx context.Context, cred *models.Credential) error {
	return s.Credentials.Update(ctx, cred)
}

func (s *GormStore) GetCredentials(ctx context.Context) ([]models.Credential, error) {
	credentials, _, err := s.Credentials.FindAll(ctx, nil)
	return credentials, err
}
