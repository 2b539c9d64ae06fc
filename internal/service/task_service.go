package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"everytask/internal/model"
	"everytask/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Emoji       string
	Impact      model.TaskImpact
	DueDate     time.Time
	CategoryID  *uint
	Category    string
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title         *string
	Description   *string
	Emoji         *string
	Impact        *model.TaskImpact
	DueDate       *time.Time
	CategoryID    *uint
	Category      *string
	ClearCategory bool
	Status        *model.TaskStatus
	RelativeOrder *int
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store  *repository.Store
	gamify *GamificationService
	now    func() time.Time
}

func NewTaskService(store *repository.Store, gamify *GamificationService, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{
		store:  store,
		gamify: gamify,
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, Outcome, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, Outcome{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.Impact == "" {
		input.Impact = model.ImpactLowLow
	}
	if !input.Impact.Valid() {
		return nil, Outcome{}, fmt.Errorf("%w: unknown impact %q", ErrInvalidInput, input.Impact)
	}
	now := s.now()
	if input.DueDate.IsZero() {
		input.DueDate = endOfDay(now)
	}

	task, outcome, err := s.gamify.CreateTask(ctx, user.ID, input, now)
	if err != nil {
		return nil, Outcome{}, err
	}
	return task, outcome, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, user *model.User, taskID uint, patch TaskPatch) (*model.Task, Outcome, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, Outcome{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		patch.Title = &title
	}
	if patch.Impact != nil && !patch.Impact.Valid() {
		return nil, Outcome{}, fmt.Errorf("%w: unknown impact %q", ErrInvalidInput, *patch.Impact)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, Outcome{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *patch.Status)
	}
	if patch.RelativeOrder != nil && *patch.RelativeOrder < 0 {
		return nil, Outcome{}, fmt.Errorf("%w: relative order must not be negative", ErrInvalidInput)
	}
	if patch.DueDate != nil && patch.DueDate.IsZero() {
		return nil, Outcome{}, fmt.Errorf("%w: due date is required", ErrInvalidInput)
	}
	return s.gamify.UpdateTask(ctx, user.ID, taskID, patch, s.now())
}

// MoveTask is a shortcut for a status change that appends the task to the target column.
func (s *TaskService) MoveTask(ctx context.Context, user *model.User, taskID uint, status model.TaskStatus) (*model.Task, Outcome, error) {
	return s.UpdateTask(ctx, user, taskID, TaskPatch{Status: &status})
}

// CompleteTask moves a task to DONE.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, Outcome, error) {
	return s.MoveTask(ctx, user, taskID, model.StatusDone)
}

// ListTasks returns the user's tasks in board order; a nil status lists all columns.
func (s *TaskService) ListTasks(ctx context.Context, user *model.User, status *model.TaskStatus) ([]model.Task, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *status)
	}
	return s.store.Tasks.ListByUser(ctx, user.ID, status)
}

// Board groups the user's tasks by column.
func (s *TaskService) Board(ctx context.Context, user *model.User) (map[model.TaskStatus][]model.Task, error) {
	tasks, err := s.store.Tasks.ListByUser(ctx, user.ID, nil)
	if err != nil {
		return nil, err
	}
	board := make(map[model.TaskStatus][]model.Task, len(model.Statuses))
	for _, status := range model.Statuses {
		board[status] = []model.Task{}
	}
	for _, task := range tasks {
		board[task.Status] = append(board[task.Status], task)
	}
	return board, nil
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.store.Tasks.FindByID(ctx, user.ID, taskID)
}

// History returns the status history of a task.
func (s *TaskService) History(ctx context.Context, user *model.User, taskID uint) ([]model.StatusUpdate, error) {
	if _, err := s.store.Tasks.FindByID(ctx, user.ID, taskID); err != nil {
		return nil, err
	}
	return s.store.History.ListByTask(ctx, taskID)
}

// DeleteTask removes a task and closes the gap in its column.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	unlock := s.gamify.locks.Lock(user.ID)
	defer unlock()

	return s.store.Transaction(ctx, func(tx *repository.Tx) error {
		task, err := tx.Tasks.FindForUpdate(ctx, user.ID, taskID)
		if err != nil {
			return err
		}
		return tx.Tasks.Delete(ctx, task)
	})
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
