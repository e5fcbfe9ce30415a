package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// CategoryService manages custom categories. Default categories are shared
// by every owner and cannot be changed.
type CategoryService struct {
	store storage.Store
}

func NewCategoryService(store storage.Store) *CategoryService {
	return &CategoryService{store: store}
}

// List returns the defaults followed by the owner's own categories.
func (s *CategoryService) List(ctx context.Context, ownerID string) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Get returns a default category or one of the owner's.
func (s *CategoryService) Get(ctx context.Context, ownerID, id string) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Category{}, core.NotFoundf("category not found")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	if !c.IsDefault && c.OwnerID != ownerID {
		return core.Category{}, core.Forbiddenf("you don't have access to this category")
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, ownerID string, c core.Category) (core.Category, error) {
	c.ID = ""
	c.OwnerID = ownerID
	c.IsDefault = false
	if c.Kind == "" {
		c.Kind = core.KindExpense
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.checkNameFree(ctx, ownerID, c.Name, ""); err != nil {
		return core.Category{}, err
	}

	id, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	saved, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, writeFailed("create category", err)
	}
	return saved, nil
}

func (s *CategoryService) checkNameFree(ctx context.Context, ownerID, name, selfID string) error {
	existing, err := s.store.FindCategoryByName(ctx, ownerID, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find category: %w", err)
	}
	if existing.ID == selfID {
		return nil
	}
	return core.BadRequestf("category with this name already exists")
}

func (s *CategoryService) Update(ctx context.Context, ownerID, id string, p storage.CategoryPatch) (core.Category, error) {
	existing, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return core.Category{}, err
	}
	if existing.IsDefault {
		return core.Category{}, core.Forbiddenf("cannot modify default categories")
	}
	if p.Name != nil {
		if err := core.ValidateCategoryName(*p.Name); err != nil {
			return core.Category{}, err
		}
		if err := s.checkNameFree(ctx, ownerID, *p.Name, id); err != nil {
			return core.Category{}, err
		}
	}

	if err := s.store.UpdateCategory(ctx, ownerID, id, p); err != nil {
		return core.Category{}, writeFailed("update category", err)
	}

	saved, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, writeFailed("update category", err)
	}
	return saved, nil
}

// Delete removes a custom category that no transaction references.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id string) error {
	existing, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if existing.IsDefault {
		return core.Forbiddenf("cannot delete default categories")
	}

	n, err := s.store.CountExpensesByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if n > 0 {
		return core.BadRequestf("cannot delete category that is used by expenses, reassign or delete those expenses first")
	}

	if err := s.store.DeleteCategory(ctx, ownerID, id); err != nil {
		return writeFailed("delete category", err)
	}
	return nil
}
