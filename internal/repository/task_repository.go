package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"everytask/internal/model"
)

// TaskRepository handles CRUD and column ordering for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Save writes the task's own columns. Checklist items and history are left alone.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// ListByUser returns tasks in board order. A nil status lists every column.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint, status *model.TaskStatus) ([]model.Task, error) {
	var tasks []model.Task
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Preload("ChecklistItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("status ASC, relative_order ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("ChecklistItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// FindForUpdate loads a task and locks its row for the rest of the transaction.
func (r *TaskRepository) FindForUpdate(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := forUpdate(r.db.WithContext(ctx)).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// CountInColumn returns how many tasks the user has in a status column.
func (r *TaskRepository) CountInColumn(ctx context.Context, userID uint, status model.TaskStatus) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND status = ?", userID, status).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return int(n), nil
}

// CountOpen returns how many tasks of the user are not done yet.
func (r *TaskRepository) CountOpen(ctx context.Context, userID uint) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND status <> ?", userID, model.StatusDone).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count open tasks: %w", err)
	}
	return int(n), nil
}

// Move places task at position order of column status, shifting its neighbours so
// both columns stay numbered 0..N-1. The target is clamped to the column size.
// The task's Status and RelativeOrder are updated in memory; callers save it.
func (r *TaskRepository) Move(ctx context.Context, task *model.Task, status model.TaskStatus, order int) error {
	size, err := r.CountInColumn(ctx, task.UserID, status)
	if err != nil {
		return err
	}

	if status == task.Status {
		order = clamp(order, 0, size-1)
		old := task.RelativeOrder
		switch {
		case order > old:
			err = r.shift(ctx, task, status, -1, "relative_order > ? AND relative_order <= ?", old, order)
		case order < old:
			err = r.shift(ctx, task, status, 1, "relative_order >= ? AND relative_order < ?", order, old)
		}
		if err != nil {
			return err
		}
		task.RelativeOrder = order
		return nil
	}

	order = clamp(order, 0, size)
	if err := r.shift(ctx, task, task.Status, -1, "relative_order > ?", task.RelativeOrder); err != nil {
		return err
	}
	if err := r.shift(ctx, task, status, 1, "relative_order >= ?", order); err != nil {
		return err
	}
	task.Status = status
	task.RelativeOrder = order
	return nil
}

// Delete removes a task and closes the gap it leaves in its column.
func (r *TaskRepository) Delete(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Select(clause.Associations).Delete(task).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return r.shift(ctx, task, task.Status, -1, "relative_order > ?", task.RelativeOrder)
}

// ClearCategory detaches every task of the user from a category.
func (r *TaskRepository) ClearCategory(ctx context.Context, userID, categoryID uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Update("category_id", nil).Error; err != nil {
		return fmt.Errorf("clear category: %w", err)
	}
	return nil
}

func (r *TaskRepository) shift(ctx context.Context, task *model.Task, status model.TaskStatus, delta int, cond string, args ...interface{}) error {
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND status = ? AND id <> ?", task.UserID, status, task.ID).
		Where(cond, args...).
		UpdateColumn("relative_order", gorm.Expr("relative_order + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("reorder tasks: %w", err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
