// Package repotest is a backend-agnostic conformance suite for the
// category/post repository contracts. Both persistence backends, sqlite
// (server mode) and local/badger (guest mode), run the same suite, so the
// ownership, uniqueness, seeding, cascade, and idempotent-delete invariants
// are specified exactly once.
package repotest

import (
	"context"
	"errors"
	"testing"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
)

// Backend is what a repository implementation provides to the suite.
// NewOwner provisions a user (a real row where the backend has foreign
// keys) and returns its ID.
type Backend interface {
	Categories() repository.CategoryRepository
	Posts() repository.PostRepository
	NewOwner(t *testing.T) string
}

// RunSuite runs every conformance test. open must return a fresh, empty
// backend per call.
func RunSuite(t *testing.T, open func(t *testing.T) Backend) {
	t.Run("CreateCategorySeedsSixLabels", func(t *testing.T) { testSeedLabels(t, open(t)) })
	t.Run("DuplicateCategoryNameSameOwner", func(t *testing.T) { testDuplicateCategory(t, open(t)) })
	t.Run("SameCategoryNameDifferentOwners", func(t *testing.T) { testSameNameDifferentOwners(t, open(t)) })
	t.Run("CategoriesInvisibleAcrossOwners", func(t *testing.T) { testCategoryScoping(t, open(t)) })
	t.Run("UpdateCategoryWrongOwner", func(t *testing.T) { testUpdateCategoryWrongOwner(t, open(t)) })
	t.Run("DeleteCategoryIdempotent", func(t *testing.T) { testDeleteCategoryIdempotent(t, open(t)) })
	t.Run("DeleteCategoryCascades", func(t *testing.T) { testDeleteCategoryCascades(t, open(t)) })
	t.Run("DuplicateLabelInCategory", func(t *testing.T) { testDuplicateLabel(t, open(t)) })
	t.Run("UpdateLabelWrongOwner", func(t *testing.T) { testUpdateLabelWrongOwner(t, open(t)) })
	t.Run("DeleteLabelIdempotentAndDetaches", func(t *testing.T) { testDeleteLabel(t, open(t)) })
	t.Run("PostsScopedAndFiltered", func(t *testing.T) { testPostFilters(t, open(t)) })
	t.Run("BookmarkFlow", func(t *testing.T) { testBookmarkFlow(t, open(t)) })
	t.Run("UpdatePostWrongOwner", func(t *testing.T) { testUpdatePostWrongOwner(t, open(t)) })
	t.Run("DeletePostIdempotent", func(t *testing.T) { testDeletePostIdempotent(t, open(t)) })
}

func mkCategory(t *testing.T, b Backend, owner, name string) *model.Category {
	t.Helper()
	c := &model.Category{OwnerID: owner, Name: name}
	if err := b.Categories().CreateCategory(context.Background(), c, model.DefaultLabels()); err != nil {
		t.Fatalf("CreateCategory(%q) error = %v", name, err)
	}
	return c
}

func mkPost(t *testing.T, b Backend, owner, categoryID, title string, labelIDs ...string) *model.Post {
	t.Helper()
	p := &model.Post{
		OwnerID:    owner,
		CategoryID: categoryID,
		Title:      title,
		URL:        "https://example.com/" + title,
		Source:     "example.com",
		LabelIDs:   labelIDs,
	}
	if err := b.Posts().CreatePost(context.Background(), p); err != nil {
		t.Fatalf("CreatePost(%q) error = %v", title, err)
	}
	return p
}

func testSeedLabels(t *testing.T, b Backend) {
	owner := b.NewOwner(t)
	c := mkCategory(t, b, owner, "News")

	labels, err := b.Categories().GetLabels(context.Background(), owner, c.ID)
	if err != nil {
		t.Fatalf("GetLabels() error = %v", err)
	}
	if len(labels) != 6 {
		t.Fatalf("seeded %d labels, want 6", len(labels))
	}
	for _, l := range labels {
		if l.OwnerID != owner {
			t.Errorf("label %q owner = %q, want %q", l.Name, l.OwnerID, owner)
		}
		if l.CategoryID != c.ID {
			t.Errorf("label %q category = %q, want %q", l.Name, l.CategoryID, c.ID)
		}
		if l.Checked {
			t.Errorf("label %q should start unchecked", l.Name)
		}
	}
}

func testDuplicateCategory(t *testing.T, b Backend) {
	owner := b.NewOwner(t)
	mkCategory(t, b, owner, "News")

	err := b.Categories().CreateCategory(context.Background(),
		&model.Category{OwnerID: owner, Name: "News"}, model.DefaultLabels())
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second create error = %v, want ErrConflict", err)
	}
}

func testSameNameDifferentOwners(t *testing.T, b Backend) {
	alice := b.NewOwner(t)
	bob := b.NewOwner(t)

	mkCategory(t, b, alice, "News")
	mkCategory(t, b, bob, "News") // must not conflict
}

func testCategoryScoping(t *testing.T, b Backend) {
	alice := b.NewOwner(t)
	bob := b.NewOwner(t)
	c := mkCategory(t, b, alice, "News")

	got, err := b.Categories().GetCategories(context.Background(), bob)
	if err != nil {
		t.Fatalf("GetCategories() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("bob sees %d of alice's categories, want 0", len(got))
	}

	if _, err := b.Categories().GetCategory(context.Background(), bob, c.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-owner GetCategory error = %v, want ErrNotFound", err)
	}
}

func testUpdateCategoryWrongOwner(t *testing.T, b Backend) {
	alice := b.NewOwner(t)
	bob := b.NewOwner(t)
	c := mkCategory(t, b, alice, "News")

	_, err := b.Categories().UpdateCategory(context.Background(), bob, c.ID, "hijacked")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("cross-owner update error = %v, want ErrNotFound", err)
	}

	// Name must be unchanged.
	fresh, err := b.Categories().GetCategory(context.Background(), alice, c.ID)
	if err != nil {
		t.Fatalf("GetCategory() error = %v", err)
	}
	if fresh.Name != "News" {
		t.Errorf("category name = %q after failed cross-owner update, want %q", fresh.Name, "News")
	}
}

func testDeleteCategoryIdempotent(t *testing.T, b Backend) {
	alice := b.NewOwner(t)
	bob := b.NewOwner(t)
	c := mkCategory(t, b, alice, "News")

	// Cross-owner delete: success, no effect.
	if err := b.Categories().DeleteCategory(context.Background(), bob, c.ID); err != nil {
		t.Fatalf("cross-owner delete should be a silent no-op, got %v", err)
	}
	if _, err := b.Categories().GetCategory(context.Background(), alice, c.ID); err != nil {
		t.Fatalf("category should survive a cross-owner delete: %v", err)
	}

	// Owner delete twice: both succeed.
	if err := b.Categories().DeleteCategory(context.Background(), alice, c.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if err := b.Categories().DeleteCategory(context.Background(), alice, c.ID); err != nil {
		t.Errorf("repeated delete should succeed, got %v", err)
	}
}

func testDeleteCategoryCascades(t *testing.T, b Backend) {
	owner := b.NewOwner(t)
	c := mkCategory(t, b, owner, "News")
	keep := mkCategory(t, b, owner, "Reading")

	mkPost(t, b, owner, c.ID, "doomed-1")
	mkPost(t, b, owner, c.ID, "doomed-2")
	survivor := mkPost(t, b, owner, keep.ID, "survivor")

	if err := b.Categories().DeleteCategory(context.Background(), owner, c.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	labels, err := b.Categories().GetLabels(context.Background(), owner, c.ID)
	if err != nil {
		t.Fatalf("GetLabels() error = %v", err)
	}
	if len(labels) != 0 {
		t.Errorf("%d labels survived the cascade, want 0", len(labels))
	}

	posts, err := b.Posts().GetPosts(context.Background(), owner, repository.PostFilter{CategoryID: c.ID})
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("%d posts survived the cascade, want 0", len(posts))
	}

	all, err := b.Posts().GetPosts(context.Background(), owner, repository.PostFilter{})
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(all) != 1 || all[0].ID != survivor.ID {
		t.Errorf("other categories' posts must survive the cascade")
	}
}

func testDuplicateLabel(t *testing.T, b Backend) {
	owner := b.NewOwner(t)
	c := mkCategory(t, b, owner, "News")

	err := b.Categories().CreateLabel(context.Background(),
		&model.Label{OwnerID: owner, CategoryID: c.ID, Name: "Red", Color: "#ff0000"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate label error = %v, want ErrConflict", err)
	}

	// Same name in a different category is fine.
	other := mkCategory(t, b, owner, "Reading")
	err = b.Categories().CreateLabel(context.Background(),
		&model.Label{OwnerID: owner, CategoryID: other.ID, Name: "Urgent", Color: "#ff0000"})
	if err != nil {
		t.Errorf("label name reuse across categories should succeed, got %v", err)
	}
}

func testUpdateLabelWrongOwner(t *testing.T, b Backend) {
	alice := b.NewOwner(t)
	bob := b.NewOwner(t)
	c := mkCategory(t, b, alice, "News")

	labels, err := b.Categories().GetLabels(context.Background(), alice, c.ID)
	if err != nil || len(labels) == 0 {
		t.Fatalf("GetLabels() = %v, %v", labels, err)
	}

	name := "stolen"
	_, err = b.Categories().UpdateLabel(context.Background(), bob, labels[0].ID, repository.LabelUpdate{Name: &name})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-owner label update error = %v, want ErrNotFound", err)
	}
}

func testDeleteLabel(t *testing.T, b Backend) {
	owner := b.NewOwner(t)
	c := mkCategory(t, b, owner, "News")

	labels, err := b.Categories().GetLabels(context.Background(), owner, c.ID)
	if err != nil {
		t.Fatalf("GetLabels() error = %v", err)
	}
	target := labels[0]

	post := mkPost(t, b, owner, c.ID, "tagged", target.ID)

	if err := b.Categories().DeleteLabel(context.Background(), owner, target.ID); err != nil {
		t.Fatalf("DeleteLabel() error = %v", err)
	}
	// Idempotent.
	if err := b.Categories().DeleteLabel(context.Background(), owner, target.ID); err != nil {
		t.Errorf("repeated DeleteLabel() should succeed, got %v", err)
	}

	remaining, err := b.Categories().GetLabels(context.Background(), owner, c.ID)
	if err != nil {
		t.Fatalf("GetLabels() error = %v", err)
	}
	if len(remaining) != 5 {
		t.Errorf("%d labels remain, want 5", len(remaining))
	}

	// The deleted label must be detached from posts.
	posts, err := b.Posts().GetPosts(context.Background(), owner, repository.PostFilter{CategoryID: c.ID})
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	for _, id := range posts[0].LabelIDs {
		if id == target.ID {
			t.Errorf("post %s still references deleted label %s", post.ID, target.ID)
		}
	}
}

func testPostFilters(t *testing.T, b Backend) {
	alice := b.NewOwner(t)
	bob := b.NewOwner(t)
	c := mkCategory(t, b, alice, "News")
	other := mkCategory(t, b, alice, "Reading")

	labels, err := b.Categories().GetLabels(context.Background(), alice, c.ID)
	if err != nil {
		t.Fatalf("GetLabels() error = %v", err)
	}
	red, blue := labels[0], labels[4]

	redPost := mkPost(t, b, alice, c.ID, "red-only", red.ID)
	bluePost := mkPost(t, b, alice, c.ID, "blue-only", blue.ID)
	mkPost(t, b, alice, c.ID, "plain")
	mkPost(t, b, alice, other.ID, "elsewhere")

	// Owner scoping: bob sees nothing.
	got, err := b.Posts().GetPosts(context.Background(), bob, repository.PostFilter{})
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("bob sees %d of alice's posts, want 0", len(got))
	}

	// Category filter.
	got, err = b.Posts().GetPosts(context.Background(), alice, repository.PostFilter{CategoryID: c.ID})
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("category filter returned %d posts, want 3", len(got))
	}
	for _, p := range got {
		if p.Category == nil || p.Category.ID != c.ID {
			t.Errorf("post %q should have its category populated", p.Title)
		}
	}

	// Label filter: at-least-one-match. Asking for red OR blue returns
	// both single-label posts but not the plain one.
	got, err = b.Posts().GetPosts(context.Background(), alice, repository.PostFilter{
		CategoryID: c.ID,
		LabelIDs:   []string{red.ID, blue.ID},
	})
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("label filter returned %d posts, want 2", len(got))
	}
	seen := map[string]bool{}
	for _, p := range got {
		seen[p.ID] = true
	}
	if !seen[redPost.ID] || !seen[bluePost.ID] {
		t.Errorf("label filter should match posts carrying any requested label")
	}
}

func testBookmarkFlow(t *testing.T, b Backend) {
	owner := b.NewOwner(t)
	c := mkCategory(t, b, owner, "News")
	p := mkPost(t, b, owner, c.ID, "article")

	if _, err := b.Posts().SetBookmark(context.Background(), owner, p.ID, true); err != nil {
		t.Fatalf("SetBookmark(true) error = %v", err)
	}

	marked, err := b.Posts().GetPosts(context.Background(), owner, repository.PostFilter{BookmarkedOnly: true})
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(marked) != 1 || marked[0].ID != p.ID {
		t.Fatalf("bookmarked list should contain exactly the bookmarked post")
	}

	if _, err := b.Posts().SetBookmark(context.Background(), owner, p.ID, false); err != nil {
		t.Fatalf("SetBookmark(false) error = %v", err)
	}
	marked, err = b.Posts().GetPosts(context.Background(), owner, repository.PostFilter{BookmarkedOnly: true})
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(marked) != 0 {
		t.Errorf("unbookmarked post still listed")
	}
}

func testUpdatePostWrongOwner(t *testing.T, b Backend) {
	alice := b.NewOwner(t)
	bob := b.NewOwner(t)
	c := mkCategory(t, b, alice, "News")
	p := mkPost(t, b, alice, c.ID, "mine")

	_, err := b.Posts().UpdatePost(context.Background(), bob, p.ID, repository.PostUpdate{
		Title: "stolen", URL: p.URL, Source: p.Source,
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("cross-owner update error = %v, want ErrNotFound", err)
	}

	// Round-trip: the owner's edit sticks.
	updated, err := b.Posts().UpdatePost(context.Background(), alice, p.ID, repository.PostUpdate{
		Title: "renamed", URL: p.URL, Source: p.Source,
	})
	if err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("Title = %q, want %q", updated.Title, "renamed")
	}
}

func testDeletePostIdempotent(t *testing.T, b Backend) {
	alice := b.NewOwner(t)
	bob := b.NewOwner(t)
	c := mkCategory(t, b, alice, "News")
	p := mkPost(t, b, alice, c.ID, "mine")

	if err := b.Posts().DeletePost(context.Background(), bob, p.ID); err != nil {
		t.Fatalf("cross-owner delete should be a silent no-op, got %v", err)
	}
	if err := b.Posts().DeletePost(context.Background(), alice, p.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	if err := b.Posts().DeletePost(context.Background(), alice, p.ID); err != nil {
		t.Errorf("repeated delete should succeed, got %v", err)
	}
}
