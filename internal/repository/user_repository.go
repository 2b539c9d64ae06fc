package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"everytask/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromTelegram finds or creates a user based on TelegramID and refreshes the display name.
// The second return value is true when the user was created.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, name string) (*model.User, bool, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&user).Error
	switch {
	case err == nil:
		if user.Name != name {
			if err := db.Model(&user).Update("name", name).Error; err != nil {
				return nil, false, fmt.Errorf("update user: %w", err)
			}
		}
		return &user, false, nil
	case err == gorm.ErrRecordNotFound:
		user = model.User{
			TelegramID: &telegramID,
			Name:       name,
			Level:      1,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, false, fmt.Errorf("create user: %w", err)
		}
		return &user, true, nil
	default:
		return nil, false, fmt.Errorf("find user: %w", err)
	}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindForUpdate loads a user and locks the row for the rest of the transaction.
func (r *UserRepository) FindForUpdate(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := forUpdate(r.db.WithContext(ctx)).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Updates applies a partial update of user columns.
func (r *UserRepository) Updates(ctx context.Context, user *model.User, fields map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(user).Updates(fields).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// SaveProgress writes points and level.
func (r *UserRepository) SaveProgress(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"points": user.Points,
		"level":  user.Level,
	}).Error
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Delete removes the user together with everything the user owns.
func (r *UserRepository) Delete(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	taskIDs := db.Model(&model.Task{}).Select("id").Where("user_id = ?", userID)
	if err := db.Where("task_id IN (?)", taskIDs).Delete(&model.ChecklistItem{}).Error; err != nil {
		return fmt.Errorf("delete checklist items: %w", err)
	}
	if err := db.Where("task_id IN (?)", taskIDs).Delete(&model.StatusUpdate{}).Error; err != nil {
		return fmt.Errorf("delete status history: %w", err)
	}
	for _, m := range []interface{}{
		&model.Task{}, &model.Category{}, &model.TaskCounter{}, &model.TaskDailyStat{},
		&model.Streak{}, &model.UserBadge{},
	} {
		if err := db.Where("user_id = ?", userID).Delete(m).Error; err != nil {
			return fmt.Errorf("delete user data: %w", err)
		}
	}
	if err := db.Delete(&model.User{}, userID).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ListWithTelegram returns users reachable through the bot.
func (r *UserRepository) ListWithTelegram(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_id IS NOT NULL").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
