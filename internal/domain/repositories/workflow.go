package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
)

// WorkflowRepository persists Workflow rows. Workflow.ID is int64, not a
// uuid, so this does not embed BaseRepository[T] (which is keyed on
// uuid.UUID) — the CRUD shape is carried over by hand instead.
type WorkflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

func (r *WorkflowRepository) Create(ctx context.Context, wf *models.Workflow) error {
	return r.db.WithContext(ctx).Create(wf).Error
}

func (r *WorkflowRepository) Update(ctx context.Context, wf *models.Workflow) error {
	return r.db.WithContext(ctx).Save(wf).Error
}

func (r *WorkflowRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Workflow{}, "id = ?", id).Error
}

func (r *WorkflowRepository) FindByID(ctx context.Context, id int64) (*models.Workflow, error) {
	var wf models.Workflow
	if err := r.db.WithContext(ctx).First(&wf, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *WorkflowRepository) FindAll(ctx context.Context, opts *ListOptions) ([]models.Workflow, int64, error) {
	var workflows []models.Workflow
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Workflow{})
	query.Count(&total)

	if opts != nil {
		if opts.OrderBy != "" {
			query = query.Order(opts.OrderBy + " " + opts.Order)
		}
		query = query.Offset(opts.Offset).Limit(opts.Limit)
	}

	err := query.Find(&workflows).Error
	return workflows, total, err
}

func (r *WorkflowRepository) FindActive(ctx context.Context) ([]models.Workflow, error) {
	var workflows []models.Workflow
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&workflows).Error
	return workflows, err
}

func (r *WorkflowRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.db.WithContext(ctx).Model(&models.Workflow{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}
