package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"everytask/internal/gamification"
	"everytask/internal/model"
	"everytask/internal/repository"
)

// Outcome is the gamification result of a single task event.
type Outcome struct {
	Badges        []model.UserBadge   `json:"badges"`
	PointsAwarded int                 `json:"pointsAwarded"`
	LevelUp       *gamification.Level `json:"levelUp"`
	Streak        *model.Streak       `json:"streak"`
}

func (o *Outcome) merge(other Outcome) {
	o.Badges = append(o.Badges, other.Badges...)
	o.PointsAwarded += other.PointsAwarded
	if other.LevelUp != nil {
		o.LevelUp = other.LevelUp
	}
	if other.Streak != nil {
		o.Streak = other.Streak
	}
}

// GamificationService runs task writes together with every derived update
// (history, counters, daily stats, streak, points, level, badges) in one
// transaction. Events for the same user are serialised.
type GamificationService struct {
	store *repository.Store
	locks *userLocks
}

func NewGamificationService(store *repository.Store) *GamificationService {
	return &GamificationService{store: store, locks: newUserLocks()}
}

// CreateTask appends a new task to the end of the user's TODO column.
func (s *GamificationService) CreateTask(ctx context.Context, userID uint, input TaskInput, at time.Time) (*model.Task, Outcome, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var (
		created *model.Task
		outcome Outcome
	)
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Users.FindByID(ctx, userID); err != nil {
			return err
		}
		categoryID, err := resolveCategory(ctx, tx, userID, input.CategoryID, input.Category)
		if err != nil {
			return err
		}
		size, err := tx.Tasks.CountInColumn(ctx, userID, model.StatusTodo)
		if err != nil {
			return err
		}

		task := &model.Task{
			UserID:        userID,
			CategoryID:    categoryID,
			Title:         input.Title,
			Description:   input.Description,
			Emoji:         input.Emoji,
			Status:        model.StatusTodo,
			Impact:        input.Impact,
			DueDate:       input.DueDate,
			RelativeOrder: size,
			CreatedAt:     at,
		}
		if categoryID != nil {
			categorizedAt := at
			task.FirstCategorizedAt = &categorizedAt
		}
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return err
		}

		badges, err := s.OnTaskCreated(ctx, tx, task, at)
		if err != nil {
			return err
		}
		outcome.Badges = badges

		created, err = tx.Tasks.FindByID(ctx, userID, task.ID)
		return err
	})
	if err != nil {
		return nil, Outcome{}, err
	}
	return created, outcome, nil
}

// UpdateTask applies a patch to a task. Moving it between columns runs the
// status pipeline; gaining a category runs the categorisation pipeline.
func (s *GamificationService) UpdateTask(ctx context.Context, userID, taskID uint, patch TaskPatch, at time.Time) (*model.Task, Outcome, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var (
		updated *model.Task
		outcome Outcome
	)
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		task, err := tx.Tasks.FindForUpdate(ctx, userID, taskID)
		if err != nil {
			return err
		}
		original := *task

		if patch.Status != nil || patch.RelativeOrder != nil {
			status := task.Status
			if patch.Status != nil {
				status = *patch.Status
			}
			var order int
			switch {
			case patch.RelativeOrder != nil:
				order = *patch.RelativeOrder
			case status == task.Status:
				order = task.RelativeOrder
			default:
				if order, err = tx.Tasks.CountInColumn(ctx, userID, status); err != nil {
					return err
				}
			}
			if err := tx.Tasks.Move(ctx, task, status, order); err != nil {
				return err
			}
		}

		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Emoji != nil {
			task.Emoji = *patch.Emoji
		}
		if patch.Impact != nil {
			task.Impact = *patch.Impact
		}
		if patch.DueDate != nil {
			task.DueDate = *patch.DueDate
		}
		switch {
		case patch.ClearCategory:
			task.CategoryID = nil
		case patch.CategoryID != nil || patch.Category != nil:
			name := ""
			if patch.Category != nil {
				name = *patch.Category
			}
			if task.CategoryID, err = resolveCategory(ctx, tx, userID, patch.CategoryID, name); err != nil {
				return err
			}
		}

		statusOutcome, err := s.OnTaskStatusChanged(ctx, tx, original, task, at)
		if err != nil {
			return err
		}
		outcome.merge(statusOutcome)

		if categoryChanged(original.CategoryID, task.CategoryID) {
			badges, err := s.OnTaskCategorized(ctx, tx, task, at)
			if err != nil {
				return err
			}
			outcome.Badges = append(outcome.Badges, badges...)
		}

		if err := tx.Tasks.Save(ctx, task); err != nil {
			return err
		}
		updated, err = tx.Tasks.FindByID(ctx, userID, task.ID)
		return err
	})
	if err != nil {
		return nil, Outcome{}, err
	}
	if len(outcome.Badges) > 0 || outcome.LevelUp != nil {
		log.Printf("[info] task=%d user=%d points=+%d badges=%s", taskID, userID, outcome.PointsAwarded, badgeCodes(outcome.Badges))
	}
	return updated, outcome, nil
}

// OnTaskCreated records a newly inserted task: its first history entry, the
// counter and daily stat, then creation and categorisation badges.
func (s *GamificationService) OnTaskCreated(ctx context.Context, tx *repository.Tx, task *model.Task, at time.Time) ([]model.UserBadge, error) {
	if err := tx.History.Append(ctx, task.ID, task.Status, at); err != nil {
		return nil, err
	}

	ev := gamification.Event{Kind: gamification.EventCreate, Task: *task, To: task.Status, OccurredAt: at}
	counter, err := s.applyCounter(ctx, tx, task.UserID, ev)
	if err != nil {
		return nil, err
	}
	if err := s.applyDailyStat(ctx, tx, task.UserID, ev); err != nil {
		return nil, err
	}

	triggers := []gamification.Trigger{gamification.TriggerCreation}
	if task.CategoryID != nil {
		triggers = append(triggers, gamification.TriggerCategorization)
	}
	return s.award(ctx, tx, gamification.BadgeContext{
		Counter:    *counter,
		Task:       *task,
		OccurredAt: at,
	}, triggers...)
}

// OnTaskStatusChanged runs the status pipeline for task, whose in-memory status
// is already the new one. It stamps FirstCompletedAt on task but does not save it.
// An unchanged status is a no-op.
func (s *GamificationService) OnTaskStatusChanged(ctx context.Context, tx *repository.Tx, original model.Task, task *model.Task, at time.Time) (Outcome, error) {
	var outcome Outcome
	if original.Status == task.Status {
		return outcome, nil
	}

	if err := tx.History.Append(ctx, task.ID, task.Status, at); err != nil {
		return outcome, err
	}

	ev := gamification.Event{
		Kind:       gamification.EventStatusChange,
		Task:       *task,
		From:       original.Status,
		To:         task.Status,
		OccurredAt: at,
	}
	counter, err := s.applyCounter(ctx, tx, task.UserID, ev)
	if err != nil {
		return outcome, err
	}
	if err := s.applyDailyStat(ctx, tx, task.UserID, ev); err != nil {
		return outcome, err
	}

	if task.Status != model.StatusDone {
		return outcome, nil
	}

	if task.FirstCompletedAt == nil {
		completedAt := at
		task.FirstCompletedAt = &completedAt
	}

	streak, err := tx.Streaks.Find(ctx, task.UserID)
	if err != nil {
		return outcome, err
	}
	next, streakChanged := gamification.AdvanceStreak(*streak, at)
	if streakChanged {
		if err := tx.Streaks.Save(ctx, &next); err != nil {
			return outcome, err
		}
	}
	outcome.Streak = &next

	user, err := tx.Users.FindForUpdate(ctx, task.UserID)
	if err != nil {
		return outcome, err
	}
	outcome.PointsAwarded = gamification.PointsFor(task.Impact)
	user.Points += outcome.PointsAwarded
	if level, ok := gamification.LevelUp(user.Level, user.Points); ok {
		user.Level = level.ID
		outcome.LevelUp = &level
	}
	if err := tx.Users.SaveProgress(ctx, user); err != nil {
		return outcome, err
	}

	triggers := []gamification.Trigger{gamification.TriggerCompletion}
	if streakChanged {
		triggers = append(triggers, gamification.TriggerStreak)
	}
	if outcome.LevelUp != nil {
		triggers = append(triggers, gamification.TriggerLevelUp)
	}
	outcome.Badges, err = s.award(ctx, tx, gamification.BadgeContext{
		Counter:    *counter,
		Task:       *task,
		Streak:     next,
		User:       *user,
		OccurredAt: at,
	}, triggers...)
	return outcome, err
}

// OnTaskCategorized runs when a task gains or changes its category. The
// categorised count moves only the first time a task gets a category; it stamps
// FirstCategorizedAt on task but does not save it.
func (s *GamificationService) OnTaskCategorized(ctx context.Context, tx *repository.Tx, task *model.Task, at time.Time) ([]model.UserBadge, error) {
	if task.CategoryID == nil {
		return nil, nil
	}

	var (
		counter *model.TaskCounter
		err     error
	)
	if task.FirstCategorizedAt == nil {
		categorizedAt := at
		task.FirstCategorizedAt = &categorizedAt
		counter, err = s.applyCounter(ctx, tx, task.UserID, gamification.Event{
			Kind:       gamification.EventCategorize,
			Task:       *task,
			OccurredAt: at,
		})
	} else {
		counter, err = tx.Counters.GetOrCreate(ctx, task.UserID)
	}
	if err != nil {
		return nil, err
	}

	return s.award(ctx, tx, gamification.BadgeContext{
		Counter:    *counter,
		Task:       *task,
		OccurredAt: at,
	}, gamification.TriggerCategorization)
}

func (s *GamificationService) applyCounter(ctx context.Context, tx *repository.Tx, userID uint, ev gamification.Event) (*model.TaskCounter, error) {
	counter, err := tx.Counters.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := gamification.ApplyEvent(*counter, ev)
	if next == *counter {
		return counter, nil
	}
	if err := tx.Counters.Save(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *GamificationService) applyDailyStat(ctx context.Context, tx *repository.Tx, userID uint, ev gamification.Event) error {
	delta := gamification.DailyStatDelta(ev)
	if delta.Empty() {
		return nil
	}
	stat, err := tx.DailyStats.Find(ctx, userID, gamification.DateKey(ev.OccurredAt))
	if err != nil {
		return err
	}
	next := gamification.ApplyStatDelta(*stat, delta)
	return tx.DailyStats.Upsert(ctx, &next)
}

func (s *GamificationService) award(ctx context.Context, tx *repository.Tx, bctx gamification.BadgeContext, triggers ...gamification.Trigger) ([]model.UserBadge, error) {
	userID := bctx.Counter.UserID
	if userID == 0 {
		userID = bctx.Task.UserID
	}
	held, err := tx.Badges.HeldCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	bctx.Held = make(map[gamification.BadgeCode]bool, len(held))
	for code := range held {
		bctx.Held[gamification.BadgeCode(code)] = true
	}

	codes := gamification.EvaluateBadges(bctx, triggers...)
	if len(codes) == 0 {
		return nil, nil
	}
	raw := make([]string, 0, len(codes))
	for _, c := range codes {
		raw = append(raw, string(c))
	}
	awarded, err := tx.Badges.Award(ctx, userID, raw, bctx.OccurredAt)
	if err != nil {
		return nil, err
	}
	return awarded, nil
}

func resolveCategory(ctx context.Context, tx *repository.Tx, userID uint, id *uint, name string) (*uint, error) {
	if id != nil {
		category, err := tx.Categories.GetByID(ctx, userID, *id)
		if err != nil {
			return nil, err
		}
		return &category.ID, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	category, err := tx.Categories.GetOrCreate(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

func categoryChanged(before, after *uint) bool {
	if after == nil {
		return false
	}
	return before == nil || *before != *after
}

func badgeCodes(badges []model.UserBadge) string {
	if len(badges) == 0 {
		return "-"
	}
	codes := make([]string, 0, len(badges))
	for _, b := range badges {
		codes = append(codes, b.BadgeCode)
	}
	return fmt.Sprintf("[%s]", strings.Join(codes, ","))
}
