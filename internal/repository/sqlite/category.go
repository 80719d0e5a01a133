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

// compile-time check that *DB implements repository.CategoryRepository
var _ repository.CategoryRepository = (*DB)(nil)

// CreateCategory inserts the category and its seed labels in one
// transaction: either the category appears fully seeded or not at all.
func (db *DB) CreateCategory(ctx context.Context, category *model.Category, seed []model.Label) error {
	category.ID = xid.New().String()
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO categories (id, owner_id, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		category.ID, category.OwnerID, category.Name, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("category", "name")
		}
		return fmt.Errorf("sqlite: creating category: %w", err)
	}

	category.Labels = category.Labels[:0]
	for _, label := range seed {
		label.ID = xid.New().String()
		label.OwnerID = category.OwnerID
		label.CategoryID = category.ID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO labels (id, owner_id, category_id, name, color, checked)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			label.ID, label.OwnerID, label.CategoryID, label.Name, label.Color, label.Checked,
		)
		if err != nil {
			return fmt.Errorf("sqlite: seeding label %q: %w", label.Name, err)
		}
		category.Labels = append(category.Labels, label)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing category: %w", err)
	}
	return nil
}

// GetCategories returns the owner's categories, oldest first, with their
// labels populated in a single follow-up query.
func (db *DB) GetCategories(ctx context.Context, ownerID string) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at
		 FROM categories WHERE owner_id = ? ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	index := map[string]int{} // category ID → position in categories
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		c.Labels = []model.Label{}
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}

	labelRows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, category_id, name, color, checked
		 FROM labels WHERE owner_id = ? ORDER BY rowid`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing labels: %w", err)
	}
	defer labelRows.Close()

	for labelRows.Next() {
		var l model.Label
		if err := labelRows.Scan(&l.ID, &l.OwnerID, &l.CategoryID, &l.Name, &l.Color, &l.Checked); err != nil {
			return nil, fmt.Errorf("sqlite: scanning label row: %w", err)
		}
		if i, ok := index[l.CategoryID]; ok {
			categories[i].Labels = append(categories[i].Labels, l)
		}
	}
	if err := labelRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating labels: %w", err)
	}

	return categories, nil
}

// GetCategory returns one owned category. The owner filter in the WHERE
// clause is what makes another user's category indistinguishable from a
// missing one.
func (db *DB) GetCategory(ctx context.Context, ownerID, categoryID string) (*model.Category, error) {
	var c model.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at
		 FROM categories WHERE id = ? AND owner_id = ?`,
		categoryID, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("category")
		}
		return nil, fmt.Errorf("sqlite: getting category: %w", err)
	}
	return &c, nil
}

func (db *DB) UpdateCategory(ctx context.Context, ownerID, categoryID, name string) (*model.Category, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE categories SET name = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		name, time.Now(), categoryID, ownerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Duplicate("category", "name")
		}
		return nil, fmt.Errorf("sqlite: updating category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("category")
	}

	return db.GetCategory(ctx, ownerID, categoryID)
}

// DeleteCategory removes an owned category and cascades to its labels and
// posts in the same transaction. The cascade runs unconditionally once the
// owner's delete matched; if nothing matched the call is a successful no-op.
func (db *DB) DeleteCategory(ctx context.Context, ownerID, categoryID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND owner_id = ?`,
		categoryID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting category: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Absent or not owned: idempotent success, nothing to cascade.
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM labels WHERE category_id = ?`, categoryID,
	); err != nil {
		return fmt.Errorf("sqlite: cascading labels: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM post_labels
		 WHERE post_id IN (SELECT id FROM posts WHERE category_id = ?)`, categoryID,
	); err != nil {
		return fmt.Errorf("sqlite: cascading post labels: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM posts WHERE category_id = ?`, categoryID,
	); err != nil {
		return fmt.Errorf("sqlite: cascading posts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete: %w", err)
	}
	return nil
}

func (db *DB) GetLabels(ctx context.Context, ownerID, categoryID string) ([]model.Label, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, category_id, name, color, checked
		 FROM labels WHERE owner_id = ? AND category_id = ? ORDER BY rowid`,
		ownerID, categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing labels: %w", err)
	}
	defer rows.Close()

	labels := []model.Label{}
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.CategoryID, &l.Name, &l.Color, &l.Checked); err != nil {
			return nil, fmt.Errorf("sqlite: scanning label row: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating labels: %w", err)
	}

	return labels, nil
}

func (db *DB) CreateLabel(ctx context.Context, label *model.Label) error {
	label.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO labels (id, owner_id, category_id, name, color, checked)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		label.ID, label.OwnerID, label.CategoryID, label.Name, label.Color, label.Checked,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("label", "name")
		}
		return fmt.Errorf("sqlite: creating label: %w", err)
	}

	return nil
}

// UpdateLabel applies the non-nil fields of upd to an owned label.
func (db *DB) UpdateLabel(ctx context.Context, ownerID, labelID string, upd repository.LabelUpdate) (*model.Label, error) {
	var l model.Label
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, category_id, name, color, checked
		 FROM labels WHERE id = ? AND owner_id = ?`,
		labelID, ownerID,
	).Scan(&l.ID, &l.OwnerID, &l.CategoryID, &l.Name, &l.Color, &l.Checked)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("label")
		}
		return nil, fmt.Errorf("sqlite: getting label: %w", err)
	}

	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Color != nil {
		l.Color = *upd.Color
	}
	if upd.Checked != nil {
		l.Checked = *upd.Checked
	}

	_, err = db.conn.ExecContext(ctx,
		`UPDATE labels SET name = ?, color = ?, checked = ? WHERE id = ? AND owner_id = ?`,
		l.Name, l.Color, l.Checked, labelID, ownerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Duplicate("label", "name")
		}
		return nil, fmt.Errorf("sqlite: updating label: %w", err)
	}

	return &l, nil
}

// DeleteLabel removes an owned label and its post associations. Deleting a
// missing or non-owned label is a successful no-op.
func (db *DB) DeleteLabel(ctx context.Context, ownerID, labelID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM labels WHERE id = ? AND owner_id = ?`,
		labelID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting label: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM post_labels WHERE label_id = ?`, labelID,
	); err != nil {
		return fmt.Errorf("sqlite: detaching label from posts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete: %w", err)
	}
	return nil
}
