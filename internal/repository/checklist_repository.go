package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"everytask/internal/model"
)

// ChecklistRepository stores task checklist items.
type ChecklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

func (r *ChecklistRepository) Count(ctx context.Context, taskID uint) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.ChecklistItem{}).Where("task_id = ?", taskID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count checklist items: %w", err)
	}
	return int(n), nil
}

func (r *ChecklistRepository) Create(ctx context.Context, item *model.ChecklistItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create checklist item: %w", err)
	}
	return nil
}

func (r *ChecklistRepository) FindByID(ctx context.Context, taskID, id uint) (*model.ChecklistItem, error) {
	var item model.ChecklistItem
	if err := r.db.WithContext(ctx).Where("task_id = ? AND id = ?", taskID, id).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *ChecklistRepository) Save(ctx context.Context, item *model.ChecklistItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return fmt.Errorf("save checklist item: %w", err)
	}
	return nil
}

func (r *ChecklistRepository) Delete(ctx context.Context, item *model.ChecklistItem) error {
	if err := r.db.WithContext(ctx).Delete(item).Error; err != nil {
		return fmt.Errorf("delete checklist item: %w", err)
	}
	return nil
}
