// Package local implements the category and post repositories on Badger,
// an embedded key-value store. It backs guest mode: the same services and
// handlers run against this store with a fixed owner identity and no
// network database at all.
//
// Layout: entities live under "category:", "label:", "post:" value keys;
// "uniq:" keys enforce the per-owner name constraints the sqlite backend
// gets from its unique indexes; "idx:" keys make per-owner and per-category
// scans cheap. Every mutation runs inside one Badger transaction, so the
// seeding and cascade invariants are atomic here too.
package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
)

const (
	categoryKey = "category:" // category:<id> → Category JSON
	labelKey    = "label:"    // label:<id> → Label JSON
	postKey     = "post:"     // post:<id> → Post JSON

	uniqCategoryKey = "uniq:category:" // uniq:category:<owner>:<name> → category id
	uniqLabelKey    = "uniq:label:"    // uniq:label:<owner>:<categoryID>:<name> → label id

	idxCategoriesByOwner = "idx:categories:owner:" // ...:<owner>:<categoryID>
	idxLabelsByCategory  = "idx:labels:category:"  // ...:<categoryID>:<labelID>
	idxPostsByOwner      = "idx:posts:owner:"      // ...:<owner>:<postID>
	idxPostsByCategory   = "idx:posts:category:"   // ...:<categoryID>:<postID>
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) the store in dir. An empty dir opens an
// in-memory store, used by tests.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
		opts.SyncWrites = true // guest data survives crashes
	}
	opts.Logger = nil // Badger's own logging is too chatty for an app log

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("local: opening badger db: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// setJSON marshals v and writes it under key within txn.
func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("local: marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

// getJSON reads key into v. Returns badger.ErrKeyNotFound untouched so
// callers can translate it.
func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(data []byte) error {
		return json.Unmarshal(data, v)
	})
}

func isMissing(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}

// apperrOnly reports whether err is already a domain error. Domain errors
// propagate to the caller as-is; everything else gets a "local:" wrap.
func apperrOnly(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr)
}

// keysWithPrefix collects the trailing segment of every key under prefix.
func keysWithPrefix(txn *badger.Txn, prefix string) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Rewind(); it.Valid(); it.Next() {
		key := string(it.Item().Key())
		ids = append(ids, key[len(prefix):])
	}
	return ids
}
