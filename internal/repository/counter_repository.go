package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"everytask/internal/model"
)

// CounterRepository stores the per-user TaskCounter row.
type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// GetOrCreate returns the user's counter, locking it on dialects that support row locks.
// A missing row is created on the spot.
func (r *CounterRepository) GetOrCreate(ctx context.Context, userID uint) (*model.TaskCounter, error) {
	var counter model.TaskCounter
	db := r.db.WithContext(ctx)
	err := forUpdate(db).Where("user_id = ?", userID).First(&counter).Error
	switch {
	case err == nil:
		return &counter, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		counter = model.TaskCounter{UserID: userID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
			return nil, fmt.Errorf("create task counter: %w", err)
		}
		if counter.ID == 0 {
			// Lost a race with another creator; read theirs.
			if err := forUpdate(db).Where("user_id = ?", userID).First(&counter).Error; err != nil {
				return nil, fmt.Errorf("find task counter: %w", err)
			}
		}
		return &counter, nil
	default:
		return nil, fmt.Errorf("find task counter: %w", err)
	}
}

func (r *CounterRepository) Save(ctx context.Context, counter *model.TaskCounter) error {
	if err := r.db.WithContext(ctx).Save(counter).Error; err != nil {
		return fmt.Errorf("save task counter: %w", err)
	}
	return nil
}
