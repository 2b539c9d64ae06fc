package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"everytask/internal/model"
)

// StreakRepository stores the per-user completion streak.
type StreakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Find returns the user's streak, or an unsaved zero streak when the user has none.
func (r *StreakRepository) Find(ctx context.Context, userID uint) (*model.Streak, error) {
	streak := model.Streak{UserID: userID}
	err := forUpdate(r.db.WithContext(ctx)).Where("user_id = ?", userID).First(&streak).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find streak: %w", err)
	}
	return &streak, nil
}

// Save creates or updates the streak.
func (r *StreakRepository) Save(ctx context.Context, streak *model.Streak) error {
	if err := r.db.WithContext(ctx).Save(streak).Error; err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}
