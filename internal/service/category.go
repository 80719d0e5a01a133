package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
)

const MaxCategoryNameLength = 50

// CategoryService handles ownership-scoped category and label operations.
// Every method takes the caller's userID first; it is the middleware-
// resolved identity, and every repository call filters by it.
type CategoryService struct {
	categories repository.CategoryRepository
	logger     *slog.Logger
}

func NewCategoryService(categories repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{categories: categories, logger: logger}
}

// CreateCategory inserts a category owned by userID, seeded with the six
// default labels in the same transaction.
func (s *CategoryService) CreateCategory(ctx context.Context, userID, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "category name is required")
	}
	if len(name) > MaxCategoryNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("category name must be %d characters or less", MaxCategoryNameLength))
	}

	category := &model.Category{OwnerID: userID, Name: name}
	if err := s.categories.CreateCategory(ctx, category, model.DefaultLabels()); err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		slog.String("userID", userID),
		slog.String("categoryID", category.ID),
	)
	return category, nil
}

// GetCategories returns only the caller's categories, labels included.
func (s *CategoryService) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	return s.categories.GetCategories(ctx, userID)
}

func (s *CategoryService) EditCategory(ctx context.Context, userID, categoryID, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "category name is required")
	}

	category, err := s.categories.UpdateCategory(ctx, userID, categoryID, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("category updated",
		slog.String("userID", userID),
		slog.String("categoryID", categoryID),
	)
	return category, nil
}

// DeleteCategory removes the caller's category and everything in it.
// Idempotent: deleting an absent or non-owned category succeeds silently.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	if err := s.categories.DeleteCategory(ctx, userID, categoryID); err != nil {
		return err
	}

	s.logger.Info("category deleted",
		slog.String("userID", userID),
		slog.String("categoryID", categoryID),
	)
	return nil
}

// GetLabels returns the labels of one owned category.
//
// A category that is missing OR owned by someone else is a NotFound, the
// same answer every other scoped path gives. (The read paths and write
// paths agree on purpose: an empty list is reserved for "your category
// has no labels".)
func (s *CategoryService) GetLabels(ctx context.Context, userID, categoryID string) ([]model.Label, error) {
	if _, err := s.categories.GetCategory(ctx, userID, categoryID); err != nil {
		return nil, err
	}
	return s.categories.GetLabels(ctx, userID, categoryID)
}

// AddLabel creates a label in an owned category. The ownership check is
// the GetCategory call: posting labels into another user's category hits
// NotFound before anything is written.
func (s *CategoryService) AddLabel(ctx context.Context, userID, categoryID, name, color string) (*model.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "label name is required")
	}

	if _, err := s.categories.GetCategory(ctx, userID, categoryID); err != nil {
		return nil, err
	}

	label := &model.Label{
		OwnerID:    userID,
		CategoryID: categoryID,
		Name:       name,
		Color:      color,
	}
	if err := s.categories.CreateLabel(ctx, label); err != nil {
		return nil, err
	}

	s.logger.Info("label added",
		slog.String("userID", userID),
		slog.String("categoryID", categoryID),
		slog.String("labelID", label.ID),
	)
	return label, nil
}

func (s *CategoryService) EditLabel(ctx context.Context, userID, labelID string, upd repository.LabelUpdate) (*model.Label, error) {
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return nil, apperror.ValidationFailed("name", "label name is required")
		}
		upd.Name = &trimmed
	}

	label, err := s.categories.UpdateLabel(ctx, userID, labelID, upd)
	if err != nil {
		return nil, err
	}

	s.logger.Info("label updated",
		slog.String("userID", userID),
		slog.String("labelID", labelID),
	)
	return label, nil
}

// DeleteLabel is idempotent, like every delete on this surface.
func (s *CategoryService) DeleteLabel(ctx context.Context, userID, labelID string) error {
	if err := s.categories.DeleteLabel(ctx, userID, labelID); err != nil {
		return err
	}

	s.logger.Info("label deleted",
		slog.String("userID", userID),
		slog.String("labelID", labelID),
	)
	return nil
}
