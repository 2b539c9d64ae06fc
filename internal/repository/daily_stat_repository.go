package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"everytask/internal/model"
)

// DailyStatRepository stores TaskDailyStat rows, one per user and date.
type DailyStatRepository struct {
	db *gorm.DB
}

func NewDailyStatRepository(db *gorm.DB) *DailyStatRepository {
	return &DailyStatRepository{db: db}
}

// Find returns the stat for a date, or a zero row for that date when none exists yet.
func (r *DailyStatRepository) Find(ctx context.Context, userID uint, date string) (*model.TaskDailyStat, error) {
	stat := model.TaskDailyStat{UserID: userID, Date: date}
	err := forUpdate(r.db.WithContext(ctx)).Where("user_id = ? AND date = ?", userID, date).First(&stat).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find daily stat: %w", err)
	}
	return &stat, nil
}

// Upsert writes the stat keyed by (user, date), replacing the counts of an existing row.
func (r *DailyStatRepository) Upsert(ctx context.Context, stat *model.TaskDailyStat) error {
	if stat.ID != 0 {
		if err := r.db.WithContext(ctx).Save(stat).Error; err != nil {
			return fmt.Errorf("save daily stat: %w", err)
		}
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"created", "in_progress", "completed"}),
	}).Create(stat).Error
	if err != nil {
		return fmt.Errorf("upsert daily stat: %w", err)
	}
	return nil
}

// ListRange returns the stats between two dates inclusive, oldest first.
func (r *DailyStatRepository) ListRange(ctx context.Context, userID uint, from, to string) ([]model.TaskDailyStat, error) {
	var stats []model.TaskDailyStat
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	return stats, nil
}
