package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
	"github.com/wtjandra96/modern-webapp-sub000/internal/urlx"
)

const MaxPostTitleLength = 200

// PostAttributes are the optional fields of a post create/edit.
type PostAttributes struct {
	ImgSrc       *string
	OriginalDate *time.Time
	LabelIDs     *[]string
}

// PostService handles ownership-scoped operations on saved links.
type PostService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

func NewPostService(posts repository.PostRepository, categories repository.CategoryRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, categories: categories, logger: logger}
}

// CreatePost saves a link into one of the caller's categories.
//
// The GetCategory call is the ownership gate: a category that exists under
// another user is indistinguishable from one that doesn't exist, so
// cross-owner posting fails with NotFound. Source is derived from the URL
// here; the client never supplies it.
func (s *PostService) CreatePost(ctx context.Context, userID, categoryID, title, url string, attrs PostAttributes) (*model.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	if len(title) > MaxPostTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("post title must be %d characters or less", MaxPostTitleLength))
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperror.ValidationFailed("url", "post url is required")
	}

	if _, err := s.categories.GetCategory(ctx, userID, categoryID); err != nil {
		return nil, err
	}

	post := &model.Post{
		OwnerID:    userID,
		CategoryID: categoryID,
		Title:      title,
		URL:        url,
		Source:     urlx.ExtractHostname(url),
	}
	if attrs.ImgSrc != nil {
		post.ImgSrc = *attrs.ImgSrc
	}
	if attrs.OriginalDate != nil {
		post.OriginalDate = *attrs.OriginalDate
	}
	if attrs.LabelIDs != nil {
		post.LabelIDs = *attrs.LabelIDs
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		slog.String("userID", userID),
		slog.String("postID", post.ID),
		slog.String("source", post.Source),
	)
	return post, nil
}

// GetPosts lists the caller's posts, optionally narrowed to a category
// and/or to posts carrying at least one of the given labels.
func (s *PostService) GetPosts(ctx context.Context, userID, categoryID string, labelIDs []string) ([]model.Post, error) {
	return s.posts.GetPosts(ctx, userID, repository.PostFilter{
		CategoryID: categoryID,
		LabelIDs:   labelIDs,
	})
}

func (s *PostService) GetBookmarkedPosts(ctx context.Context, userID string) ([]model.Post, error) {
	return s.posts.GetPosts(ctx, userID, repository.PostFilter{BookmarkedOnly: true})
}

// EditPost rewrites the mutable fields of an owned post, re-deriving
// Source from the (possibly new) URL.
func (s *PostService) EditPost(ctx context.Context, userID, postID, title, url string, attrs PostAttributes) (*model.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperror.ValidationFailed("url", "post url is required")
	}

	post, err := s.posts.UpdatePost(ctx, userID, postID, repository.PostUpdate{
		Title:        title,
		URL:          url,
		Source:       urlx.ExtractHostname(url),
		ImgSrc:       attrs.ImgSrc,
		OriginalDate: attrs.OriginalDate,
		LabelIDs:     attrs.LabelIDs,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("post updated",
		slog.String("userID", userID),
		slog.String("postID", postID),
	)
	return post, nil
}

// BookmarkPost flips the bookmark flag on an owned post.
func (s *PostService) BookmarkPost(ctx context.Context, userID, postID string, isBookmarked bool) (*model.Post, error) {
	post, err := s.posts.SetBookmark(ctx, userID, postID, isBookmarked)
	if err != nil {
		return nil, err
	}

	s.logger.Info("post bookmark set",
		slog.String("userID", userID),
		slog.String("postID", postID),
		slog.Bool("isBookmarked", isBookmarked),
	)
	return post, nil
}

// DeletePost is idempotent.
func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	if err := s.posts.DeletePost(ctx, userID, postID); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.String("userID", userID),
		slog.String("postID", postID),
	)
	return nil
}
