package local

import (
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository/repotest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := Open("", logger) // in-memory
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

type localBackend struct {
	store  *Store
	owners int
}

func (b *localBackend) Categories() repository.CategoryRepository { return b.store }
func (b *localBackend) Posts() repository.PostRepository          { return b.store }

// NewOwner just mints an ID; the key-value store has no user table to
// satisfy, which is exactly the guest-mode situation.
func (b *localBackend) NewOwner(t *testing.T) string {
	t.Helper()
	b.owners++
	return fmt.Sprintf("owner-%d", b.owners)
}

// TestConformance runs the same repository invariant suite the sqlite
// backend runs. Guest mode must not weaken any ownership or uniqueness
// guarantee.
func TestConformance(t *testing.T) {
	repotest.RunSuite(t, func(t *testing.T) repotest.Backend {
		return &localBackend{store: newTestStore(t)}
	})
}
