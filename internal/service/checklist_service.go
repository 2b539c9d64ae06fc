package service

import (
	"context"
	"fmt"
	"strings"

	"everytask/internal/model"
	"everytask/internal/repository"
)

// ChecklistPatch is a partial checklist item update.
type ChecklistPatch struct {
	Title *string
	Order *int
	Done  *bool
}

// ChecklistService manages the sub-steps of a task.
type ChecklistService struct {
	store *repository.Store
}

func NewChecklistService(store *repository.Store) *ChecklistService {
	return &ChecklistService{store: store}
}

// Add appends an item after the task's existing items.
func (s *ChecklistService) Add(ctx context.Context, user *model.User, taskID uint, title string) (*model.ChecklistItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: item title is required", ErrInvalidInput)
	}
	var item *model.ChecklistItem
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Tasks.FindForUpdate(ctx, user.ID, taskID); err != nil {
			return err
		}
		n, err := tx.Checklist.Count(ctx, taskID)
		if err != nil {
			return err
		}
		item = &model.ChecklistItem{TaskID: taskID, Title: title, Order: n}
		return tx.Checklist.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ChecklistService) Update(ctx context.Context, user *model.User, taskID, itemID uint, patch ChecklistPatch) (*model.ChecklistItem, error) {
	if _, err := s.store.Tasks.FindByID(ctx, user.ID, taskID); err != nil {
		return nil, err
	}
	item, err := s.store.Checklist.FindByID(ctx, taskID, itemID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: item title is required", ErrInvalidInput)
		}
		item.Title = title
	}
	if patch.Order != nil {
		if *patch.Order < 0 {
			return nil, fmt.Errorf("%w: order must not be negative", ErrInvalidInput)
		}
		item.Order = *patch.Order
	}
	if patch.Done != nil {
		item.Done = *patch.Done
	}
	if err := s.store.Checklist.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ChecklistService) Delete(ctx context.Context, user *model.User, taskID, itemID uint) error {
	if _, err := s.store.Tasks.FindByID(ctx, user.ID, taskID); err != nil {
		return err
	}
	item, err := s.store.Checklist.FindByID(ctx, taskID, itemID)
	if err != nil {
		return err
	}
	return s.store.Checklist.Delete(ctx, item)
}
