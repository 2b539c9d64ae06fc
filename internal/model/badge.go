package model

import "time"

// Badge is a catalog entry. Rows are seeded from the gamification catalog.
type Badge struct {
	Code        string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"not null"`
	Description string
	Icon        string
}

// UserBadge records that a user earned a badge. At most one row per pair.
type UserBadge struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_badge"`
	BadgeCode string    `gorm:"size:64;uniqueIndex:idx_user_badge"`
	Badge     Badge     `gorm:"foreignKey:BadgeCode;references:Code"`
	EarnedAt  time.Time `gorm:"not null"`
}
