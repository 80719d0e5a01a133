package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
)

// compile-time check that *DB implements repository.PostRepository
var _ repository.PostRepository = (*DB)(nil)

// CreatePost inserts the post and its label associations in one
// transaction. Category ownership was already checked by the service.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.OriginalDate.IsZero() {
		post.OriginalDate = now
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO posts (id, owner_id, category_id, title, url, source,
		                    original_date, img_src, is_bookmarked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.OwnerID, post.CategoryID, post.Title, post.URL, post.Source,
		post.OriginalDate, post.ImgSrc, post.IsBookmarked, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	for _, labelID := range post.LabelIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_labels (post_id, label_id) VALUES (?, ?)`,
			post.ID, labelID,
		); err != nil {
			return fmt.Errorf("sqlite: attaching label %s: %w", labelID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing post: %w", err)
	}
	return nil
}

// GetPosts returns the owner's posts matching the filter, newest first.
// The label filter uses at-least-one-match semantics: a post qualifies if
// it carries ANY of the requested labels, not all of them.
func (db *DB) GetPosts(ctx context.Context, ownerID string, filter repository.PostFilter) ([]model.Post, error) {
	query := `SELECT id, owner_id, category_id, title, url, source,
	                 original_date, img_src, is_bookmarked, created_at, updated_at
	          FROM posts WHERE owner_id = ?`
	args := []any{ownerID}

	if filter.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.BookmarkedOnly {
		query += ` AND is_bookmarked = 1`
	}
	if len(filter.LabelIDs) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM post_labels
			WHERE post_labels.post_id = posts.id
			  AND post_labels.label_id IN (` + placeholders(len(filter.LabelIDs)) + `))`
		for _, id := range filter.LabelIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.CategoryID, &p.Title, &p.URL, &p.Source,
			&p.OriginalDate, &p.ImgSrc, &p.IsBookmarked, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		p.LabelIDs = []string{}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	if err := db.populateLabels(ctx, posts); err != nil {
		return nil, err
	}
	if err := db.populateCategories(ctx, ownerID, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// populateLabels fills LabelIDs for each post in one query.
func (db *DB) populateLabels(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	index := map[string]int{}
	args := make([]any, 0, len(posts))
	for i, p := range posts {
		index[p.ID] = i
		args = append(args, p.ID)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT post_id, label_id FROM post_labels
		 WHERE post_id IN (`+placeholders(len(args))+`)`, args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: listing post labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, labelID string
		if err := rows.Scan(&postID, &labelID); err != nil {
			return fmt.Errorf("sqlite: scanning post label row: %w", err)
		}
		if i, ok := index[postID]; ok {
			posts[i].LabelIDs = append(posts[i].LabelIDs, labelID)
		}
	}
	return rows.Err()
}

// populateCategories denormalizes the owning category onto each post.
func (db *DB) populateCategories(ctx context.Context, ownerID string, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	seen := map[string]bool{}
	args := []any{ownerID}
	for _, p := range posts {
		if !seen[p.CategoryID] {
			seen[p.CategoryID] = true
			args = append(args, p.CategoryID)
		}
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at
		 FROM categories WHERE owner_id = ? AND id IN (`+placeholders(len(args)-1)+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: listing post categories: %w", err)
	}
	defer rows.Close()

	byID := map[string]*model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		byID[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range posts {
		posts[i].Category = byID[posts[i].CategoryID]
	}
	return nil
}

// getPost loads a single owned post with labels and category populated.
func (db *DB) getPost(ctx context.Context, ownerID, postID string) (*model.Post, error) {
	var p model.Post
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, category_id, title, url, source,
		        original_date, img_src, is_bookmarked, created_at, updated_at
		 FROM posts WHERE id = ? AND owner_id = ?`,
		postID, ownerID,
	).Scan(
		&p.ID, &p.OwnerID, &p.CategoryID, &p.Title, &p.URL, &p.Source,
		&p.OriginalDate, &p.ImgSrc, &p.IsBookmarked, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post")
		}
		return nil, fmt.Errorf("sqlite: getting post: %w", err)
	}

	posts := []model.Post{p}
	posts[0].LabelIDs = []string{}
	if err := db.populateLabels(ctx, posts); err != nil {
		return nil, err
	}
	if err := db.populateCategories(ctx, ownerID, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// UpdatePost applies upd to an owned post. Same error for "doesn't exist"
// and "someone else's post", no existence leakage.
func (db *DB) UpdatePost(ctx context.Context, ownerID, postID string, upd repository.PostUpdate) (*model.Post, error) {
	existing, err := db.getPost(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}

	existing.Title = upd.Title
	existing.URL = upd.URL
	existing.Source = upd.Source
	if upd.ImgSrc != nil {
		existing.ImgSrc = *upd.ImgSrc
	}
	if upd.OriginalDate != nil {
		existing.OriginalDate = *upd.OriginalDate
	}
	existing.UpdatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE posts SET title = ?, url = ?, source = ?, original_date = ?,
		                  img_src = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		existing.Title, existing.URL, existing.Source, existing.OriginalDate,
		existing.ImgSrc, existing.UpdatedAt, postID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating post: %w", err)
	}

	if upd.LabelIDs != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM post_labels WHERE post_id = ?`, postID,
		); err != nil {
			return nil, fmt.Errorf("sqlite: clearing post labels: %w", err)
		}
		for _, labelID := range *upd.LabelIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO post_labels (post_id, label_id) VALUES (?, ?)`,
				postID, labelID,
			); err != nil {
				return nil, fmt.Errorf("sqlite: attaching label %s: %w", labelID, err)
			}
		}
		existing.LabelIDs = append([]string{}, *upd.LabelIDs...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing post update: %w", err)
	}
	return existing, nil
}

func (db *DB) SetBookmark(ctx context.Context, ownerID, postID string, bookmarked bool) (*model.Post, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET is_bookmarked = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		bookmarked, time.Now(), postID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bookmarking post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("post")
	}

	return db.getPost(ctx, ownerID, postID)
}

// DeletePost removes an owned post. Idempotent: deleting an absent or
// non-owned post succeeds without effect.
func (db *DB) DeletePost(ctx context.Context, ownerID, postID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ? AND owner_id = ?`,
		postID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM post_labels WHERE post_id = ?`, postID,
	); err != nil {
		return fmt.Errorf("sqlite: clearing post labels: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete: %w", err)
	}
	return nil
}
