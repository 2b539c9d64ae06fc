package model

// TaskCounter holds the per-user aggregates the badge rules read.
type TaskCounter struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"uniqueIndex"`

	Total         int `gorm:"not null;default:0"`
	Completed     int `gorm:"not null;default:0"`
	Categorized   int `gorm:"not null;default:0"`
	TinyCompleted int `gorm:"not null;default:0"`

	// Reset on the first event of a new calendar day.
	CompletedToday      int `gorm:"not null;default:0"`
	CompletedBeforeNoon int `gorm:"not null;default:0"`
	CompletedAfterTenPm int `gorm:"not null;default:0"`
	CompletedOnWeekend  int `gorm:"not null;default:0"`
	CompletedTiny       int `gorm:"not null;default:0"`

	UpdatedOn string `gorm:"size:10"`
}

// TaskDailyStat counts task activity for one user on one calendar date.
type TaskDailyStat struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     uint   `gorm:"uniqueIndex:idx_daily_stat_user_date"`
	Date       string `gorm:"size:10;uniqueIndex:idx_daily_stat_user_date"`
	Created    int    `gorm:"not null;default:0"`
	InProgress int    `gorm:"not null;default:0"`
	Completed  int    `gorm:"not null;default:0"`
}

// Streak tracks consecutive days with at least one completion.
type Streak struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        uint   `gorm:"uniqueIndex"`
	Current       int    `gorm:"not null;default:0"`
	Longest       int    `gorm:"not null;default:0"`
	StartedOn     string `gorm:"size:10"`
	LastUpdatedOn string `gorm:"size:10"`
}
