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

// compile-time check that *Store implements repository.CategoryRepository
var _ repository.CategoryRepository = (*Store)(nil)

// CreateCategory inserts the category and its seed labels in one Badger
// transaction. The uniq: key stands in for sqlite's (owner, name) unique
// index: if it already exists, another category claimed the name.
func (s *Store) CreateCategory(_ context.Context, category *model.Category, seed []model.Label) error {
	category.ID = xid.New().String()
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	err := s.db.Update(func(txn *badger.Txn) error {
		nameKey := uniqCategoryKey + category.OwnerID + ":" + category.Name
		if _, err := txn.Get([]byte(nameKey)); err == nil {
			return apperror.Duplicate("category", "name")
		} else if !isMissing(err) {
			return err
		}

		category.Labels = category.Labels[:0]
		for _, label := range seed {
			label.ID = xid.New().String()
			label.OwnerID = category.OwnerID
			label.CategoryID = category.ID

			if err := setJSON(txn, labelKey+label.ID, label); err != nil {
				return err
			}
			if err := txn.Set([]byte(idxLabelsByCategory+category.ID+":"+label.ID), nil); err != nil {
				return err
			}
			uniq := uniqLabelKey + label.OwnerID + ":" + label.CategoryID + ":" + label.Name
			if err := txn.Set([]byte(uniq), []byte(label.ID)); err != nil {
				return err
			}
			category.Labels = append(category.Labels, label)
		}

		// The stored copy carries no labels; they are joined on read.
		stored := *category
		stored.Labels = nil
		if err := setJSON(txn, categoryKey+category.ID, stored); err != nil {
			return err
		}
		if err := txn.Set([]byte(nameKey), []byte(category.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(idxCategoriesByOwner+category.OwnerID+":"+category.ID), nil)
	})
	if err != nil {
		if apperrOnly(err) {
			return err
		}
		return fmt.Errorf("local: creating category: %w", err)
	}
	return nil
}

func (s *Store) GetCategories(_ context.Context, ownerID string) ([]model.Category, error) {
	categories := []model.Category{}

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range keysWithPrefix(txn, idxCategoriesByOwner+ownerID+":") {
			var c model.Category
			if err := getJSON(txn, categoryKey+id, &c); err != nil {
				return err
			}
			c.Labels = []model.Label{}
			for _, labelID := range keysWithPrefix(txn, idxLabelsByCategory+c.ID+":") {
				var l model.Label
				if err := getJSON(txn, labelKey+labelID, &l); err != nil {
					return err
				}
				c.Labels = append(c.Labels, l)
			}
			categories = append(categories, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local: listing categories: %w", err)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].CreatedAt.Before(categories[j].CreatedAt)
	})
	return categories, nil
}

// getOwnedCategory loads a category and applies the ownership filter.
// A missing category and someone else's category produce the same NotFound.
func getOwnedCategory(txn *badger.Txn, ownerID, categoryID string) (*model.Category, error) {
	var c model.Category
	if err := getJSON(txn, categoryKey+categoryID, &c); err != nil {
		if isMissing(err) {
			return nil, apperror.NotFound("category")
		}
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, apperror.NotFound("category")
	}
	return &c, nil
}

func (s *Store) GetCategory(_ context.Context, ownerID, categoryID string) (*model.Category, error) {
	var category *model.Category
	err := s.db.View(func(txn *badger.Txn) error {
		c, err := getOwnedCategory(txn, ownerID, categoryID)
		if err != nil {
			return err
		}
		category = c
		return nil
	})
	if err != nil {
		if apperrOnly(err) {
			return nil, err
		}
		return nil, fmt.Errorf("local: getting category: %w", err)
	}
	return category, nil
}

func (s *Store) UpdateCategory(_ context.Context, ownerID, categoryID, name string) (*model.Category, error) {
	var updated *model.Category

	err := s.db.Update(func(txn *badger.Txn) error {
		c, err := getOwnedCategory(txn, ownerID, categoryID)
		if err != nil {
			return err
		}

		if name != c.Name {
			newKey := uniqCategoryKey + ownerID + ":" + name
			if _, err := txn.Get([]byte(newKey)); err == nil {
				return apperror.Duplicate("category", "name")
			} else if !isMissing(err) {
				return err
			}
			if err := txn.Delete([]byte(uniqCategoryKey + ownerID + ":" + c.Name)); err != nil {
				return err
			}
			if err := txn.Set([]byte(newKey), []byte(c.ID)); err != nil {
				return err
			}
		}

		c.Name = name
		c.UpdatedAt = time.Now()
		if err := setJSON(txn, categoryKey+c.ID, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		if apperrOnly(err) {
			return nil, err
		}
		return nil, fmt.Errorf("local: updating category: %w", err)
	}
	return updated, nil
}

// DeleteCategory removes an owned category and cascades to its labels and
// posts, all inside one transaction. Idempotent.
func (s *Store) DeleteCategory(_ context.Context, ownerID, categoryID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		c, err := getOwnedCategory(txn, ownerID, categoryID)
		if err != nil {
			if apperrOnly(err) {
				return nil // absent or not owned: successful no-op
			}
			return err
		}

		for _, labelID := range keysWithPrefix(txn, idxLabelsByCategory+c.ID+":") {
			var l model.Label
			if err := getJSON(txn, labelKey+labelID, &l); err != nil {
				return err
			}
			if err := txn.Delete([]byte(uniqLabelKey + l.OwnerID + ":" + l.CategoryID + ":" + l.Name)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(labelKey + labelID)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(idxLabelsByCategory + c.ID + ":" + labelID)); err != nil {
				return err
			}
		}

		for _, postID := range keysWithPrefix(txn, idxPostsByCategory+c.ID+":") {
			var p model.Post
			if err := getJSON(txn, postKey+postID, &p); err != nil {
				return err
			}
			if err := txn.Delete([]byte(postKey + postID)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(idxPostsByOwner + p.OwnerID + ":" + postID)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(idxPostsByCategory + c.ID + ":" + postID)); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(uniqCategoryKey + ownerID + ":" + c.Name)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(idxCategoriesByOwner + ownerID + ":" + c.ID)); err != nil {
			return err
		}
		return txn.Delete([]byte(categoryKey + c.ID))
	})
	if err != nil {
		return fmt.Errorf("local: deleting category: %w", err)
	}
	return nil
}

func (s *Store) GetLabels(_ context.Context, ownerID, categoryID string) ([]model.Label, error) {
	labels := []model.Label{}

	err := s.db.View(func(txn *badger.Txn) error {
		for _, labelID := range keysWithPrefix(txn, idxLabelsByCategory+categoryID+":") {
			var l model.Label
			if err := getJSON(txn, labelKey+labelID, &l); err != nil {
				return err
			}
			if l.OwnerID == ownerID {
				labels = append(labels, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local: listing labels: %w", err)
	}
	return labels, nil
}

func (s *Store) CreateLabel(_ context.Context, label *model.Label) error {
	label.ID = xid.New().String()

	err := s.db.Update(func(txn *badger.Txn) error {
		uniq := uniqLabelKey + label.OwnerID + ":" + label.CategoryID + ":" + label.Name
		if _, err := txn.Get([]byte(uniq)); err == nil {
			return apperror.Duplicate("label", "name")
		} else if !isMissing(err) {
			return err
		}

		if err := setJSON(txn, labelKey+label.ID, label); err != nil {
			return err
		}
		if err := txn.Set([]byte(uniq), []byte(label.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(idxLabelsByCategory+label.CategoryID+":"+label.ID), nil)
	})
	if err != nil {
		if apperrOnly(err) {
			return err
		}
		return fmt.Errorf("local: creating label: %w", err)
	}
	return nil
}

func (s *Store) UpdateLabel(_ context.Context, ownerID, labelID string, upd repository.LabelUpdate) (*model.Label, error) {
	var updated *model.Label

	err := s.db.Update(func(txn *badger.Txn) error {
		var l model.Label
		if err := getJSON(txn, labelKey+labelID, &l); err != nil {
			if isMissing(err) {
				return apperror.NotFound("label")
			}
			return err
		}
		if l.OwnerID != ownerID {
			return apperror.NotFound("label")
		}

		if upd.Name != nil && *upd.Name != l.Name {
			newUniq := uniqLabelKey + ownerID + ":" + l.CategoryID + ":" + *upd.Name
			if _, err := txn.Get([]byte(newUniq)); err == nil {
				return apperror.Duplicate("label", "name")
			} else if !isMissing(err) {
				return err
			}
			if err := txn.Delete([]byte(uniqLabelKey + ownerID + ":" + l.CategoryID + ":" + l.Name)); err != nil {
				return err
			}
			if err := txn.Set([]byte(newUniq), []byte(l.ID)); err != nil {
				return err
			}
			l.Name = *upd.Name
		}
		if upd.Color != nil {
			l.Color = *upd.Color
		}
		if upd.Checked != nil {
			l.Checked = *upd.Checked
		}

		if err := setJSON(txn, labelKey+l.ID, l); err != nil {
			return err
		}
		updated = &l
		return nil
	})
	if err != nil {
		if apperrOnly(err) {
			return nil, err
		}
		return nil, fmt.Errorf("local: updating label: %w", err)
	}
	return updated, nil
}

// DeleteLabel removes an owned label and detaches it from every post in its
// category. Idempotent.
func (s *Store) DeleteLabel(_ context.Context, ownerID, labelID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var l model.Label
		if err := getJSON(txn, labelKey+labelID, &l); err != nil {
			if isMissing(err) {
				return nil
			}
			return err
		}
		if l.OwnerID != ownerID {
			return nil
		}

		for _, postID := range keysWithPrefix(txn, idxPostsByCategory+l.CategoryID+":") {
			var p model.Post
			if err := getJSON(txn, postKey+postID, &p); err != nil {
				return err
			}
			kept := p.LabelIDs[:0]
			removed := false
			for _, id := range p.LabelIDs {
				if id == labelID {
					removed = true
					continue
				}
				kept = append(kept, id)
			}
			if removed {
				p.LabelIDs = kept
				if err := setJSON(txn, postKey+postID, p); err != nil {
					return err
				}
			}
		}

		if err := txn.Delete([]byte(uniqLabelKey + ownerID + ":" + l.CategoryID + ":" + l.Name)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(idxLabelsByCategory + l.CategoryID + ":" + labelID)); err != nil {
			return err
		}
		return txn.Delete([]byte(labelKey + labelID))
	})
	if err != nil {
		return fmt.Errorf("local: deleting label: %w", err)
	}
	return nil
}
