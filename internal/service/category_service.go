package service

import (
	"context"
	"fmt"
	"strings"

	"everytask/internal/model"
	"everytask/internal/repository"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	store *repository.Store
}

func NewCategoryService(store *repository.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context, user *model.User) ([]model.Category, error) {
	return s.store.Categories.ListByUser(ctx, user.ID)
}

// Create returns the existing category when the name is already taken.
func (s *CategoryService) Create(ctx context.Context, user *model.User, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	return s.store.Categories.GetOrCreate(ctx, user.ID, name)
}

func (s *CategoryService) Rename(ctx context.Context, user *model.User, id uint, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	category, err := s.store.Categories.GetByID(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Categories.Rename(ctx, category, name); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category. Its tasks stay and lose the category.
func (s *CategoryService) Delete(ctx context.Context, user *model.User, id uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Tx) error {
		category, err := tx.Categories.GetByID(ctx, user.ID, id)
		if err != nil {
			return err
		}
		if err := tx.Tasks.ClearCategory(ctx, user.ID, category.ID); err != nil {
			return err
		}
		return tx.Categories.Delete(ctx, category)
	})
}
