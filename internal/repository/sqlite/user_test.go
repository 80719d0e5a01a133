package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/model"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Username: "alice", PasswordHash: "$2a$10$fakefakefake"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == "" {
		t.Error("CreateUser() should assign an ID")
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateUser(context.Background(), &model.User{Username: "alice", PasswordHash: "h1"}); err != nil {
		t.Fatalf("first CreateUser() error = %v", err)
	}

	err := db.CreateUser(context.Background(), &model.User{Username: "alice", PasswordHash: "h2"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate username error = %v, want ErrConflict", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	db := newTestDB(t)

	created := &model.User{Username: "alice", PasswordHash: "h1"}
	if err := db.CreateUser(context.Background(), created); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	found, err := db.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.PasswordHash != "h1" {
		t.Errorf("PasswordHash not round-tripped")
	}

	if _, err := db.GetUserByUsername(context.Background(), "nobody"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown username error = %v, want ErrNotFound", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Username: "alice", PasswordHash: "old-hash"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if err := db.UpdatePassword(context.Background(), user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	fresh, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if fresh.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want %q", fresh.PasswordHash, "new-hash")
	}

	if err := db.UpdatePassword(context.Background(), "missing", "h"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown user error = %v, want ErrNotFound", err)
	}
}
