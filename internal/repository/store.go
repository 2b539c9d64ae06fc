package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist or is not owned by the caller.
var ErrNotFound = errors.New("not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Tx bundles repositories bound to a single database transaction.
type Tx struct {
	db         *gorm.DB
	Users      *UserRepository
	Categories *CategoryRepository
	Tasks      *TaskRepository
	Checklist  *ChecklistRepository
	History    *HistoryRepository
	Counters   *CounterRepository
	DailyStats *DailyStatRepository
	Streaks    *StreakRepository
	Badges     *BadgeRepository
}

func newTx(db *gorm.DB) *Tx {
	return &Tx{
		db:         db,
		Users:      NewUserRepository(db),
		Categories: NewCategoryRepository(db),
		Tasks:      NewTaskRepository(db),
		Checklist:  NewChecklistRepository(db),
		History:    NewHistoryRepository(db),
		Counters:   NewCounterRepository(db),
		DailyStats: NewDailyStatRepository(db),
		Streaks:    NewStreakRepository(db),
		Badges:     NewBadgeRepository(db),
	}
}

// Store is the entry point to the repositories. Reads may use the embedded Tx
// directly; writes that must commit together go through Transaction.
type Store struct {
	*Tx
	Stats *StatsRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{Tx: newTx(db), Stats: NewStatsRepository(db)}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn inside one database transaction. Returning an error from fn
// rolls back every write made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(newTx(gtx))
	})
}
