package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"everytask/internal/model"
)

// BadgeRepository reads the catalog and records earned badges.
type BadgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

func (r *BadgeRepository) Catalog(ctx context.Context) ([]model.Badge, error) {
	var badges []model.Badge
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// HeldCodes returns the set of badge codes the user already holds.
func (r *BadgeRepository) HeldCodes(ctx context.Context, userID uint) (map[string]bool, error) {
	var codes []string
	if err := r.db.WithContext(ctx).Model(&model.UserBadge{}).
		Where("user_id = ?", userID).Pluck("badge_code", &codes).Error; err != nil {
		return nil, fmt.Errorf("list held badges: %w", err)
	}
	held := make(map[string]bool, len(codes))
	for _, c := range codes {
		held[c] = true
	}
	return held, nil
}

// Award inserts the given badges with insert-or-ignore semantics and returns only
// the rows this call created, with their catalog entry. Pairs the user already
// holds, including ones written concurrently elsewhere, are left out.
func (r *BadgeRepository) Award(ctx context.Context, userID uint, codes []string, earnedAt time.Time) ([]model.UserBadge, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	db := r.db.WithContext(ctx)
	ids := make([]uint, 0, len(codes))
	for _, code := range codes {
		row := model.UserBadge{UserID: userID, BadgeCode: code, EarnedAt: earnedAt}
		res := db.Omit("Badge").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_code"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return nil, fmt.Errorf("award badge %s: %w", code, res.Error)
		}
		if res.RowsAffected == 1 && row.ID != 0 {
			ids = append(ids, row.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var awarded []model.UserBadge
	if err := db.Preload("Badge").Where("id IN ?", ids).
		Order("id ASC").Find(&awarded).Error; err != nil {
		return nil, fmt.Errorf("load awarded badges: %w", err)
	}
	return awarded, nil
}

func (r *BadgeRepository) ListByUser(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	var badges []model.UserBadge
	if err := r.db.WithContext(ctx).Preload("Badge").
		Where("user_id = ?", userID).Order("earned_at ASC, id ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("list user badges: %w", err)
	}
	return badges, nil
}
