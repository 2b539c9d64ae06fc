package model

import "time"

// TaskStatus is the Kanban column a task sits in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// Statuses lists the columns in board order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// TaskImpact classifies a task by impact and effort.
type TaskImpact string

const (
	ImpactHighHigh TaskImpact = "HIGH_IMPACT_HIGH_EFFORT"
	ImpactHighLow  TaskImpact = "HIGH_IMPACT_LOW_EFFORT"
	ImpactLowHigh  TaskImpact = "LOW_IMPACT_HIGH_EFFORT"
	ImpactLowLow   TaskImpact = "LOW_IMPACT_LOW_EFFORT"
)

// Impacts lists every impact class.
var Impacts = []TaskImpact{ImpactHighHigh, ImpactHighLow, ImpactLowHigh, ImpactLowLow}

func (i TaskImpact) Valid() bool {
	switch i {
	case ImpactHighHigh, ImpactHighLow, ImpactLowHigh, ImpactLowLow:
		return true
	}
	return false
}

// HighImpact reports whether the task is one of the two high impact classes.
func (i TaskImpact) HighImpact() bool {
	return i == ImpactHighHigh || i == ImpactHighLow
}

// Task represents a single card on the user's board.
type Task struct {
	ID                 uint  `gorm:"primaryKey"`
	UserID             uint  `gorm:"index:idx_task_column"`
	CategoryID         *uint `gorm:"index"`
	Title              string
	Description        string
	Emoji              string
	Status             TaskStatus `gorm:"index:idx_task_column;not null;default:TODO"`
	Impact             TaskImpact `gorm:"not null"`
	DueDate            time.Time
	RelativeOrder      int `gorm:"not null;default:0"`
	FirstCompletedAt   *time.Time
	FirstCategorizedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ChecklistItems     []ChecklistItem `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	StatusHistory      []StatusUpdate  `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// ChecklistItem is a sub-step of a task.
type ChecklistItem struct {
	ID        uint `gorm:"primaryKey"`
	TaskID    uint `gorm:"index"`
	Title     string
	Order     int  `gorm:"column:position;not null;default:0"`
	Done      bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusUpdate is an append-only record of a task entering a status.
type StatusUpdate struct {
	ID        uint       `gorm:"primaryKey"`
	TaskID    uint       `gorm:"index"`
	Status    TaskStatus `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime:false"`
}
