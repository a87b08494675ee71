package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
)

// ExecutionRepository persists Execution rows. Embeds BaseRepository for
// the plain CRUD shape (Execution.ID is a uuid) and adds the workflow-scoped
// and status-scoped lookups the scheduler and API need.
type ExecutionRepository struct {
	*BaseRepository[models.Execution]
}

func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{
		BaseRepository: NewBaseRepository[models.Execution](db),
	}
}

func (r *ExecutionRepository) FindByWorkflowID(ctx context.Context, workflowID int64, opts *ListOptions) ([]models.Execution, int64, error) {
	var executions []models.Execution
	var total int64

	query := r.DB().WithContext(ctx).Where("workflow_id = ?", workflowID)
	query.Model(&models.Execution{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order("started_at DESC")
	}

	err := query.Find(&executions).Error
	return executions, total, err
}

func (r *ExecutionRepository) FindByStatus(ctx context.Context, status string, opts *ListOptions) ([]models.Execution, int64, error) {
	var executions []models.Execution
	var total int64

	query := r.DB().WithContext(ctx).Where("status = ?", status)
	query.Model(&models.Execution{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order("started_at DESC")
	}

	err := query.Find(&executions).Error
	return executions, total, err
}

func (r *ExecutionRepository) FindRunning(ctx context.Context) ([]models.Execution, error) {
	var executions []models.Execution
	err := r.DB().WithContext(ctx).
		Where("status = ?", models.ExecutionStatusRunning).
		Find(&executions).Error
	return executions, err
}

func (r *ExecutionRepository) FindStale(ctx context.Context, threshold time.Duration) ([]models.Execution, error) {
	var executions []models.Execution
	cutoff := time.Now().Add(-threshold)
	err := r.DB().WithContext(ctx).
		Where("status = ? AND started_at < ?", models.ExecutionStatusRunning, cutoff).
		Find(&executions).Error
	return executions, err
}

// Update applies a partial ExecutionUpdate payload in a single statement,
// matching the scheduler.Store.UpdateExecution contract this repository
// backs (spec.md §4.7's idempotent-partial-update requirement).
func (r *ExecutionRepository) Update(ctx context.Context, id uuid.UUID, status *string, finishedAt *time.Time, data models.JSON, errMsg *string) error {
	updates := map[string]interface{}{}
	if status != nil {
		updates["status"] = *status
	}
	if finishedAt != nil {
		updates["finished_at"] = *finishedAt
	}
	if data != nil {
		updates["data"] = data
	}
	if errMsg != nil {
		updates["error"] = *errMsg
	}
	if len(updates) == 0 {
		return nil
	}
	return r.DB().WithContext(ctx).Model(&models.Execution{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetTaskID records the asynq task ID an execution was enqueued under, so a
// later cancel request can be routed to the worker actually running it.
func (r *ExecutionRepository) SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error {
	return r.DB().WithContext(ctx).Model(&models.Execution{}).
		Where("id = ?", id).
		Update("task_id", taskID).Error
}

func (r *ExecutionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB().WithContext(ctx).
		Where("started_at < ?", cutoff).
		Delete(&models.Execution{})
	return result.RowsAffected, result.Error
}
