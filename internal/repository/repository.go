// Package repository declares the persistence contracts the service layer
// programs against.
//
// Two backends implement the category/post contracts: the sqlite store
// (normal server mode) and the badger-backed local store (guest mode).
// Keeping one interface means the ownership, uniqueness, and cascade
// invariants are defined once and verified against both backends by the
// shared suite in repotest.
//
// Ownership rules every implementation must honor:
//   - reads filter by owner; a row owned by someone else is invisible
//   - scoped updates return apperror.ErrNotFound when nothing matched,
//     whether the row is absent or owned by another user
//   - deletes are idempotent: zero rows matched is still success
package repository

import (
	"context"
	"time"

	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
)

// PostFilter narrows GetPosts. Zero value means "all posts of the owner".
type PostFilter struct {
	CategoryID     string   // only posts in this category
	LabelIDs       []string // only posts carrying at least one of these labels
	BookmarkedOnly bool     // only posts with isBookmarked set
}

// LabelUpdate carries the mutable label fields. Nil means "leave unchanged".
type LabelUpdate struct {
	Name    *string
	Color   *string
	Checked *bool
}

// PostUpdate carries the mutable post fields. Title, URL, and Source are
// always written (Source is re-derived from URL by the service); the
// pointers are optional attributes.
type PostUpdate struct {
	Title        string
	URL          string
	Source       string
	ImgSrc       *string
	OriginalDate *time.Time
	LabelIDs     *[]string
}

type UserRepository interface {
	// CreateUser inserts a new user. A username collision surfaces as
	// apperror.ErrConflict, translated from the store's unique index.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type CategoryRepository interface {
	// CreateCategory inserts the category and its seed labels atomically.
	// A (owner, name) collision surfaces as apperror.ErrConflict.
	CreateCategory(ctx context.Context, category *model.Category, seed []model.Label) error
	// GetCategories returns the owner's categories with labels populated.
	GetCategories(ctx context.Context, ownerID string) ([]model.Category, error)
	// GetCategory returns one owned category, without labels.
	GetCategory(ctx context.Context, ownerID, categoryID string) (*model.Category, error)
	UpdateCategory(ctx context.Context, ownerID, categoryID, name string) (*model.Category, error)
	// DeleteCategory removes the category and cascades to its labels and
	// posts in one transaction. Idempotent.
	DeleteCategory(ctx context.Context, ownerID, categoryID string) error

	GetLabels(ctx context.Context, ownerID, categoryID string) ([]model.Label, error)
	// CreateLabel inserts a label. A (owner, category, name) collision
	// surfaces as apperror.ErrConflict. Category ownership is checked by
	// the service before calling this.
	CreateLabel(ctx context.Context, label *model.Label) error
	UpdateLabel(ctx context.Context, ownerID, labelID string, upd LabelUpdate) (*model.Label, error)
	DeleteLabel(ctx context.Context, ownerID, labelID string) error
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	// GetPosts returns the owner's posts matching the filter, newest
	// first, with the owning category populated on each post.
	GetPosts(ctx context.Context, ownerID string, filter PostFilter) ([]model.Post, error)
	UpdatePost(ctx context.Context, ownerID, postID string, upd PostUpdate) (*model.Post, error)
	SetBookmark(ctx context.Context, ownerID, postID string, bookmarked bool) (*model.Post, error)
	DeletePost(ctx context.Context, ownerID, postID string) error
}
