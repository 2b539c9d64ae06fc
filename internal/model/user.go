package model

import "time"

// User is an account holder. Telegram users and email users share the table.
type User struct {
	ID           uint    `gorm:"primaryKey"`
	TelegramID   *int64  `gorm:"uniqueIndex"`
	Email        *string `gorm:"uniqueIndex"`
	Name         string
	PasswordHash string `gorm:"column:password_hash"`
	DateFormat   string `gorm:"default:YYYY-MM-DD"`
	Points       int    `gorm:"not null;default:0"`
	Level        int    `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
