package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
)

type fakePostRepo struct {
	posts  []model.Post
	nextID int
}

func (r *fakePostRepo) CreatePost(_ context.Context, post *model.Post) error {
	r.nextID++
	post.ID = fmt.Sprintf("post-%d", r.nextID)
	if post.OriginalDate.IsZero() {
		post.OriginalDate = time.Now()
	}
	r.posts = append(r.posts, *post)
	return nil
}

func (r *fakePostRepo) GetPosts(_ context.Context, ownerID string, filter repository.PostFilter) ([]model.Post, error) {
	var out []model.Post
	for _, p := range r.posts {
		if p.OwnerID != ownerID {
			continue
		}
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.BookmarkedOnly && !p.IsBookmarked {
			continue
		}
		if len(filter.LabelIDs) > 0 {
			match := false
			for _, want := range filter.LabelIDs {
				for _, have := range p.LabelIDs {
					if want == have {
						match = true
					}
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePostRepo) UpdatePost(_ context.Context, ownerID, postID string, upd repository.PostUpdate) (*model.Post, error) {
	for i, p := range r.posts {
		if p.ID == postID && p.OwnerID == ownerID {
			r.posts[i].Title = upd.Title
			r.posts[i].URL = upd.URL
			r.posts[i].Source = upd.Source
			if upd.ImgSrc != nil {
				r.posts[i].ImgSrc = *upd.ImgSrc
			}
			if upd.OriginalDate != nil {
				r.posts[i].OriginalDate = *upd.OriginalDate
			}
			if upd.LabelIDs != nil {
				r.posts[i].LabelIDs = *upd.LabelIDs
			}
			cp := r.posts[i]
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("post")
}

func (r *fakePostRepo) SetBookmark(_ context.Context, ownerID, postID string, bookmarked bool) (*model.Post, error) {
	for i, p := range r.posts {
		if p.ID == postID && p.OwnerID == ownerID {
			r.posts[i].IsBookmarked = bookmarked
			cp := r.posts[i]
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("post")
}

func (r *fakePostRepo) DeletePost(_ context.Context, ownerID, postID string) error {
	for i, p := range r.posts {
		if p.ID == postID && p.OwnerID == ownerID {
			r.posts = append(r.posts[:i], r.posts[i+1:]...)
			break
		}
	}
	return nil
}

func newTestPostService(t *testing.T) (*PostService, *fakeCategoryRepo, context.Context) {
	t.Helper()
	categories := &fakeCategoryRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostService(&fakePostRepo{}, categories, logger), categories, context.Background()
}

func mustCreateCategory(t *testing.T, repo *fakeCategoryRepo, ownerID, name string) *model.Category {
	t.Helper()
	category := &model.Category{OwnerID: ownerID, Name: name}
	if err := repo.CreateCategory(context.Background(), category, model.DefaultLabels()); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return category
}

func TestCreatePost_DerivesSource(t *testing.T) {
	svc, categories, ctx := newTestPostService(t)
	category := mustCreateCategory(t, categories, "alice", "News")

	post, err := svc.CreatePost(ctx, "alice", category.ID, "Go 1.25", "https://go.dev/blog/go1.25?utm=x", PostAttributes{})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if post.Source != "go.dev" {
		t.Errorf("Source = %q, want %q", post.Source, "go.dev")
	}
	if post.OwnerID != "alice" {
		t.Errorf("OwnerID = %q, want %q", post.OwnerID, "alice")
	}
	if post.IsBookmarked {
		t.Error("new post created bookmarked")
	}
}

func TestCreatePost_UnownedCategory(t *testing.T) {
	svc, categories, ctx := newTestPostService(t)
	category := mustCreateCategory(t, categories, "alice", "News")

	_, err := svc.CreatePost(ctx, "bob", category.ID, "Sneaky", "https://example.com", PostAttributes{})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-owner CreatePost() error = %v, want ErrNotFound", err)
	}
}

func TestCreatePost_Validation(t *testing.T) {
	svc, categories, ctx := newTestPostService(t)
	category := mustCreateCategory(t, categories, "alice", "News")

	tests := []struct {
		name  string
		title string
		url   string
	}{
		{"empty title", "", "https://example.com"},
		{"whitespace title", "   ", "https://example.com"},
		{"empty url", "A post", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, "alice", category.ID, tt.title, tt.url, PostAttributes{})
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("CreatePost() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestEditPost_RederivesSource(t *testing.T) {
	svc, categories, ctx := newTestPostService(t)
	category := mustCreateCategory(t, categories, "alice", "News")

	post, err := svc.CreatePost(ctx, "alice", category.ID, "Original", "https://old.example.com/a", PostAttributes{})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	edited, err := svc.EditPost(ctx, "alice", post.ID, "Updated", "new.example.org/b", PostAttributes{})
	if err != nil {
		t.Fatalf("EditPost() error = %v", err)
	}
	if edited.Source != "new.example.org" {
		t.Errorf("Source = %q, want %q", edited.Source, "new.example.org")
	}
	if edited.Title != "Updated" {
		t.Errorf("Title = %q, want %q", edited.Title, "Updated")
	}
}

func TestEditPost_WrongOwner(t *testing.T) {
	svc, categories, ctx := newTestPostService(t)
	category := mustCreateCategory(t, categories, "alice", "News")

	post, err := svc.CreatePost(ctx, "alice", category.ID, "Mine", "https://example.com", PostAttributes{})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	_, err = svc.EditPost(ctx, "bob", post.ID, "Stolen", "https://example.com", PostAttributes{})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-owner EditPost() error = %v, want ErrNotFound", err)
	}
}

func TestBookmarkFlow(t *testing.T) {
	svc, categories, ctx := newTestPostService(t)
	category := mustCreateCategory(t, categories, "alice", "News")

	post, err := svc.CreatePost(ctx, "alice", category.ID, "Keep this", "https://example.com", PostAttributes{})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if _, err := svc.CreatePost(ctx, "alice", category.ID, "Not this", "https://example.org", PostAttributes{}); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	if _, err := svc.BookmarkPost(ctx, "alice", post.ID, true); err != nil {
		t.Fatalf("BookmarkPost() error = %v", err)
	}

	bookmarked, err := svc.GetBookmarkedPosts(ctx, "alice")
	if err != nil {
		t.Fatalf("GetBookmarkedPosts() error = %v", err)
	}
	if len(bookmarked) != 1 || bookmarked[0].ID != post.ID {
		t.Fatalf("GetBookmarkedPosts() = %v, want just %s", bookmarked, post.ID)
	}

	if _, err := svc.BookmarkPost(ctx, "alice", post.ID, false); err != nil {
		t.Fatalf("BookmarkPost(false) error = %v", err)
	}
	bookmarked, _ = svc.GetBookmarkedPosts(ctx, "alice")
	if len(bookmarked) != 0 {
		t.Errorf("after unbookmark got %d posts, want 0", len(bookmarked))
	}
}

func TestDeletePost_Idempotent(t *testing.T) {
	svc, _, ctx := newTestPostService(t)

	if err := svc.DeletePost(ctx, "alice", "never-existed"); err != nil {
		t.Errorf("DeletePost() of absent post error = %v, want nil", err)
	}
}
