package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
)

// fakeCategoryRepo keeps categories and labels in slices and mirrors the
// scoped-NotFound and duplicate behavior of the real stores.
type fakeCategoryRepo struct {
	categories []model.Category
	labels     []model.Label
	nextID     int
}

func (r *fakeCategoryRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *fakeCategoryRepo) CreateCategory(_ context.Context, category *model.Category, seed []model.Label) error {
	for _, c := range r.categories {
		if c.OwnerID == category.OwnerID && c.Name == category.Name {
			return apperror.Duplicate("category", "name")
		}
	}
	category.ID = r.id("cat")
	for i := range seed {
		seed[i].ID = r.id("lbl")
		seed[i].OwnerID = category.OwnerID
		seed[i].CategoryID = category.ID
		r.labels = append(r.labels, seed[i])
	}
	category.Labels = seed
	r.categories = append(r.categories, *category)
	return nil
}

func (r *fakeCategoryRepo) GetCategories(_ context.Context, ownerID string) ([]model.Category, error) {
	var out []model.Category
	for _, c := range r.categories {
		if c.OwnerID != ownerID {
			continue
		}
		c.Labels = nil
		for _, l := range r.labels {
			if l.CategoryID == c.ID {
				c.Labels = append(c.Labels, l)
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCategoryRepo) GetCategory(_ context.Context, ownerID, categoryID string) (*model.Category, error) {
	for _, c := range r.categories {
		if c.ID == categoryID && c.OwnerID == ownerID {
			cp := c
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("category")
}

func (r *fakeCategoryRepo) UpdateCategory(_ context.Context, ownerID, categoryID, name string) (*model.Category, error) {
	for i, c := range r.categories {
		if c.ID == categoryID && c.OwnerID == ownerID {
			r.categories[i].Name = name
			cp := r.categories[i]
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("category")
}

func (r *fakeCategoryRepo) DeleteCategory(_ context.Context, ownerID, categoryID string) error {
	for i, c := range r.categories {
		if c.ID == categoryID && c.OwnerID == ownerID {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeCategoryRepo) GetLabels(_ context.Context, ownerID, categoryID string) ([]model.Label, error) {
	var out []model.Label
	for _, l := range r.labels {
		if l.OwnerID == ownerID && l.CategoryID == categoryID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) CreateLabel(_ context.Context, label *model.Label) error {
	for _, l := range r.labels {
		if l.OwnerID == label.OwnerID && l.CategoryID == label.CategoryID && l.Name == label.Name {
			return apperror.Duplicate("label", "name")
		}
	}
	label.ID = r.id("lbl")
	r.labels = append(r.labels, *label)
	return nil
}

func (r *fakeCategoryRepo) UpdateLabel(_ context.Context, ownerID, labelID string, upd repository.LabelUpdate) (*model.Label, error) {
	for i, l := range r.labels {
		if l.ID == labelID && l.OwnerID == ownerID {
			if upd.Name != nil {
				r.labels[i].Name = *upd.Name
			}
			if upd.Color != nil {
				r.labels[i].Color = *upd.Color
			}
			if upd.Checked != nil {
				r.labels[i].Checked = *upd.Checked
			}
			cp := r.labels[i]
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("label")
}

func (r *fakeCategoryRepo) DeleteLabel(_ context.Context, ownerID, labelID string) error {
	for i, l := range r.labels {
		if l.ID == labelID && l.OwnerID == ownerID {
			r.labels = append(r.labels[:i], r.labels[i+1:]...)
			break
		}
	}
	return nil
}

func newTestCategoryService() (*CategoryService, *fakeCategoryRepo) {
	repo := &fakeCategoryRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCategoryService(repo, logger), repo
}

func TestCreateCategory_SeedsDefaultLabels(t *testing.T) {
	svc, _ := newTestCategoryService()
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, "alice", "News")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if len(category.Labels) != 6 {
		t.Fatalf("seeded %d labels, want 6", len(category.Labels))
	}
	for _, l := range category.Labels {
		if l.OwnerID != "alice" || l.CategoryID != category.ID {
			t.Errorf("label %q scoped to (%s, %s), want (alice, %s)", l.Name, l.OwnerID, l.CategoryID, category.ID)
		}
		if l.Checked {
			t.Errorf("label %q created checked", l.Name)
		}
	}
}

func TestCreateCategory_Validation(t *testing.T) {
	svc, _ := newTestCategoryService()
	ctx := context.Background()

	tests := []struct {
		name     string
		category string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", strings.Repeat("x", MaxCategoryNameLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCategory(ctx, "alice", tt.category)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("CreateCategory(%q) error = %v, want ErrValidation", tt.category, err)
			}
		})
	}
}

func TestCreateCategory_TrimsName(t *testing.T) {
	svc, _ := newTestCategoryService()

	category, err := svc.CreateCategory(context.Background(), "alice", "  News  ")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if category.Name != "News" {
		t.Errorf("Name = %q, want %q", category.Name, "News")
	}
}

func TestGetLabels_UnownedCategory(t *testing.T) {
	svc, _ := newTestCategoryService()
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, "alice", "News")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	// Bob asking for Alice's labels gets NotFound, not an empty list.
	if _, err := svc.GetLabels(ctx, "bob", category.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetLabels() cross-owner error = %v, want ErrNotFound", err)
	}

	labels, err := svc.GetLabels(ctx, "alice", category.ID)
	if err != nil {
		t.Fatalf("GetLabels() error = %v", err)
	}
	if len(labels) != 6 {
		t.Errorf("got %d labels, want 6", len(labels))
	}
}

func TestAddLabel_UnownedCategory(t *testing.T) {
	svc, repo := newTestCategoryService()
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, "alice", "News")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	if _, err := svc.AddLabel(ctx, "bob", category.ID, "Sneaky", "#000000"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AddLabel() cross-owner error = %v, want ErrNotFound", err)
	}
	if len(repo.labels) != 6 {
		t.Errorf("cross-owner AddLabel wrote a label: %d labels, want 6", len(repo.labels))
	}
}

func TestEditLabel_TrimsName(t *testing.T) {
	svc, _ := newTestCategoryService()
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, "alice", "News")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	target := category.Labels[0]

	name := "  Urgent  "
	label, err := svc.EditLabel(ctx, "alice", target.ID, repository.LabelUpdate{Name: &name})
	if err != nil {
		t.Fatalf("EditLabel() error = %v", err)
	}
	if label.Name != "Urgent" {
		t.Errorf("Name = %q, want %q", label.Name, "Urgent")
	}
	if label.Color != target.Color {
		t.Errorf("Color changed to %q without being asked", label.Color)
	}
}

func TestDeleteCategory_Idempotent(t *testing.T) {
	svc, _ := newTestCategoryService()
	ctx := context.Background()

	if err := svc.DeleteCategory(ctx, "alice", "never-existed"); err != nil {
		t.Errorf("DeleteCategory() of absent category error = %v, want nil", err)
	}
}
