package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"everytask/internal/model"
)

// GroupCount is one bucket of a grouped count query.
type GroupCount struct {
	Label string
	Count int
}

// StatsRepository runs the read-only aggregate queries behind the statistics views.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) tasks(ctx context.Context, userID uint, since *time.Time) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Task{}).Where("tasks.user_id = ?", userID)
	if since != nil {
		q = q.Where("tasks.created_at >= ?", *since)
	}
	return q
}

// CountByStatus groups the user's tasks by status. since limits to tasks created after it.
func (r *StatsRepository) CountByStatus(ctx context.Context, userID uint, since *time.Time) ([]GroupCount, error) {
	var rows []GroupCount
	if err := r.tasks(ctx, userID, since).
		Select("status AS label, COUNT(*) AS count").
		Group("status").Order("label ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}
	return rows, nil
}

func (r *StatsRepository) CountByImpact(ctx context.Context, userID uint, since *time.Time) ([]GroupCount, error) {
	var rows []GroupCount
	if err := r.tasks(ctx, userID, since).
		Select("impact AS label, COUNT(*) AS count").
		Group("impact").Order("label ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count tasks by impact: %w", err)
	}
	return rows, nil
}

// CountByCategory groups by category name. Tasks without a category get an empty label.
func (r *StatsRepository) CountByCategory(ctx context.Context, userID uint, since *time.Time) ([]GroupCount, error) {
	var rows []GroupCount
	if err := r.tasks(ctx, userID, since).
		Joins("LEFT JOIN categories ON categories.id = tasks.category_id").
		Select("COALESCE(categories.name, '') AS label, COUNT(*) AS count").
		Group("categories.name").Order("label ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count tasks by category: %w", err)
	}
	return rows, nil
}

// CompletedTasks returns the tasks that were ever completed.
func (r *StatsRepository) CompletedTasks(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.tasks(ctx, userID, nil).
		Where("first_completed_at IS NOT NULL").
		Order("first_completed_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	return tasks, nil
}

// OpenTasks returns tasks that are not done.
func (r *StatsRepository) OpenTasks(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.tasks(ctx, userID, nil).
		Where("status <> ?", model.StatusDone).
		Order("due_date ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list open tasks: %w", err)
	}
	return tasks, nil
}

// AllTasks returns every task of the user created after since, if set.
func (r *StatsRepository) AllTasks(ctx context.Context, userID uint, since *time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.tasks(ctx, userID, since).Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CompletionTimes returns the time of every transition into DONE, oldest first.
func (r *StatsRepository) CompletionTimes(ctx context.Context, userID uint, since *time.Time) ([]time.Time, error) {
	var times []time.Time
	q := r.db.WithContext(ctx).Model(&model.StatusUpdate{}).
		Joins("JOIN tasks ON tasks.id = status_updates.task_id").
		Where("tasks.user_id = ? AND status_updates.status = ?", userID, model.StatusDone)
	if since != nil {
		q = q.Where("status_updates.updated_at >= ?", *since)
	}
	if err := q.Order("status_updates.updated_at ASC").
		Pluck("status_updates.updated_at", &times).Error; err != nil {
		return nil, fmt.Errorf("list completion times: %w", err)
	}
	return times, nil
}
