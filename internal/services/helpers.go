package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// writeFailed maps a write that touched no row to a bad request and wraps
// anything else.
func writeFailed(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return core.BadRequestf("failed to %s", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// checkCategoryVisible verifies a referenced category exists and is either
// shared or owned by ownerID. An empty id means uncategorized.
func checkCategoryVisible(ctx context.Context, store storage.CategoryStore, ownerID, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	c, err := store.GetCategory(ctx, categoryID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.BadRequestf("category %s does not exist", categoryID)
	}
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if !c.IsDefault && c.OwnerID != ownerID {
		return core.Forbiddenf("you don't have access to this category")
	}
	return nil
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
