package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/auth"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
)

// fakeUserRepo is an in-memory UserRepository with the same error contract
// as the real stores.
type fakeUserRepo struct {
	users  map[string]*model.User // by ID
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return apperror.Duplicate("username", "username")
		}
	}
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, ok := r.users[userID]
	if !ok {
		return apperror.NotFound("user")
	}
	u.PasswordHash = passwordHash
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-bytes")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	repo := newFakeUserRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(repo, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), logger), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// The stored hash must not be the plaintext.
	stored, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if stored.PasswordHash == "hunter22" {
		t.Fatal("password stored in plaintext")
	}

	result, err := svc.Login(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned empty token")
	}
	if result.User.Username != "alice" {
		t.Errorf("Login() user = %q, want %q", result.User.Username, "alice")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "pw-one"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	err := svc.Register(ctx, "alice", "pw-two")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate Register() error = %v, want ErrConflict", err)
	}
}

// Wrong password and unknown username must be indistinguishable to the
// caller; neither reveals whether the account exists.
func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "correct-password"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, wrongPW := svc.Login(ctx, "alice", "wrong-password")
	_, noUser := svc.Login(ctx, "nobody", "whatever")

	if !errors.Is(wrongPW, apperror.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", wrongPW)
	}
	if !errors.Is(noUser, apperror.ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", noUser)
	}
	if wrongPW.Error() != noUser.Error() {
		t.Errorf("error messages differ: %q vs %q", wrongPW, noUser)
	}
}

func TestChangePassword(t *testing.T) {
	svc, repo := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "old-password"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	user, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "old-password"); !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("login with old password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "alice", "new-password"); err != nil {
		t.Errorf("login with new password error = %v", err)
	}
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	svc, repo := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "real-password"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	user, _ := repo.GetUserByUsername(ctx, "alice")

	err := svc.ChangePassword(ctx, user.ID, "not-the-password", "new-password")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("ChangePassword() error = %v, want ErrInvalidCredentials", err)
	}

	// Old password still works.
	if _, err := svc.Login(ctx, "alice", "real-password"); err != nil {
		t.Errorf("login after failed change error = %v", err)
	}
}
