package local

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/xid"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
)

// compile-time check that *Store implements repository.PostRepository
var _ repository.PostRepository = (*Store)(nil)

func (s *Store) CreatePost(_ context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.OriginalDate.IsZero() {
		post.OriginalDate = now
	}
	if post.LabelIDs == nil {
		post.LabelIDs = []string{}
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		// The stored copy carries no denormalized category.
		stored := *post
		stored.Category = nil
		if err := setJSON(txn, postKey+post.ID, stored); err != nil {
			return err
		}
		if err := txn.Set([]byte(idxPostsByOwner+post.OwnerID+":"+post.ID), nil); err != nil {
			return err
		}
		return txn.Set([]byte(idxPostsByCategory+post.CategoryID+":"+post.ID), nil)
	})
	if err != nil {
		return fmt.Errorf("local: creating post: %w", err)
	}
	return nil
}

// GetPosts filters in memory after an owner-index scan; the guest store
// holds one user's data, so there is nothing to push down.
func (s *Store) GetPosts(_ context.Context, ownerID string, filter repository.PostFilter) ([]model.Post, error) {
	posts := []model.Post{}

	err := s.db.View(func(txn *badger.Txn) error {
		wanted := map[string]bool{}
		for _, id := range filter.LabelIDs {
			wanted[id] = true
		}

		for _, id := range keysWithPrefix(txn, idxPostsByOwner+ownerID+":") {
			var p model.Post
			if err := getJSON(txn, postKey+id, &p); err != nil {
				return err
			}
			if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
				continue
			}
			if filter.BookmarkedOnly && !p.IsBookmarked {
				continue
			}
			if len(wanted) > 0 && !carriesAny(p.LabelIDs, wanted) {
				continue
			}
			if p.LabelIDs == nil {
				p.LabelIDs = []string{}
			}

			var c model.Category
			if err := getJSON(txn, categoryKey+p.CategoryID, &c); err == nil {
				p.Category = &c
			} else if !isMissing(err) {
				return err
			}

			posts = append(posts, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local: listing posts: %w", err)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// carriesAny reports whether any of ids is in wanted. This is the
// at-least-one-match label filter.
func carriesAny(ids []string, wanted map[string]bool) bool {
	for _, id := range ids {
		if wanted[id] {
			return true
		}
	}
	return false
}

func getOwnedPost(txn *badger.Txn, ownerID, postID string) (*model.Post, error) {
	var p model.Post
	if err := getJSON(txn, postKey+postID, &p); err != nil {
		if isMissing(err) {
			return nil, apperror.NotFound("post")
		}
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, apperror.NotFound("post")
	}
	if p.LabelIDs == nil {
		p.LabelIDs = []string{}
	}
	return &p, nil
}

func (s *Store) UpdatePost(_ context.Context, ownerID, postID string, upd repository.PostUpdate) (*model.Post, error) {
	var updated *model.Post

	err := s.db.Update(func(txn *badger.Txn) error {
		p, err := getOwnedPost(txn, ownerID, postID)
		if err != nil {
			return err
		}

		p.Title = upd.Title
		p.URL = upd.URL
		p.Source = upd.Source
		if upd.ImgSrc != nil {
			p.ImgSrc = *upd.ImgSrc
		}
		if upd.OriginalDate != nil {
			p.OriginalDate = *upd.OriginalDate
		}
		if upd.LabelIDs != nil {
			p.LabelIDs = append([]string{}, *upd.LabelIDs...)
		}
		p.UpdatedAt = time.Now()

		if err := setJSON(txn, postKey+p.ID, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		if apperrOnly(err) {
			return nil, err
		}
		return nil, fmt.Errorf("local: updating post: %w", err)
	}
	return updated, nil
}

func (s *Store) SetBookmark(_ context.Context, ownerID, postID string, bookmarked bool) (*model.Post, error) {
	var updated *model.Post

	err := s.db.Update(func(txn *badger.Txn) error {
		p, err := getOwnedPost(txn, ownerID, postID)
		if err != nil {
			return err
		}

		p.IsBookmarked = bookmarked
		p.UpdatedAt = time.Now()

		if err := setJSON(txn, postKey+p.ID, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		if apperrOnly(err) {
			return nil, err
		}
		return nil, fmt.Errorf("local: bookmarking post: %w", err)
	}
	return updated, nil
}

// DeletePost removes an owned post and its index entries. Idempotent.
func (s *Store) DeletePost(_ context.Context, ownerID, postID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		p, err := getOwnedPost(txn, ownerID, postID)
		if err != nil {
			if apperrOnly(err) {
				return nil
			}
			return err
		}

		if err := txn.Delete([]byte(idxPostsByOwner + ownerID + ":" + postID)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(idxPostsByCategory + p.CategoryID + ":" + postID)); err != nil {
			return err
		}
		return txn.Delete([]byte(postKey + postID))
	})
	if err != nil {
		return fmt.Errorf("local: deleting post: %w", err)
	}
	return nil
}
