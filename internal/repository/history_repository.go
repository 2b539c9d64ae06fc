package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"everytask/internal/model"
)

// HistoryRepository appends and reads task status history. Entries are never updated.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, taskID uint, status model.TaskStatus, at time.Time) error {
	entry := model.StatusUpdate{TaskID: taskID, Status: status, UpdatedAt: at}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByTask(ctx context.Context, taskID uint) ([]model.StatusUpdate, error) {
	var entries []model.StatusUpdate
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("updated_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	return entries, nil
}
