package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/idturva/subscription-portal/internal/model"
	"github.com/idturva/subscription-portal/internal/utils"
)

func TestUserCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewUserRepo(db)

	id, err := repo.Create(ctx, "Maija@Example.FI", "hunter2secret", model.RoleUser, "Maija", "Meikäläinen", 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	u, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Email != "maija@example.fi" {
		t.Errorf("email = %q, want lowercased", u.Email)
	}
	if !utils.VerifyPassword(u.PasswordHash, "hunter2secret") {
		t.Error("stored hash does not verify against the original password")
	}

	// Same address in different case is still a duplicate.
	if _, err := repo.Create(ctx, "MAIJA@example.fi", "otherpassword", model.RoleUser, "", "", 4); err != ErrEmailExists {
		t.Errorf("duplicate Create: err = %v, want ErrEmailExists", err)
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)

	userID, err := users.Create(ctx, "token@example.fi", "hunter2secret", model.RoleUser, "", "", 4)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	raw, err := utils.RandomHex(48)
	if err != nil {
		t.Fatalf("RandomHex: %v", err)
	}
	hash := utils.HashRefreshRaw(raw)
	if err := tokens.StoreRefresh(ctx, userID, hash, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("StoreRefresh: %v", err)
	}

	got, err := tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if got != userID {
		t.Errorf("ValidateRefresh user = %d, want %d", got, userID)
	}

	if err := tokens.RevokeByHash(ctx, hash); err != nil {
		t.Fatalf("RevokeByHash: %v", err)
	}
	if _, err := tokens.ValidateRefresh(ctx, hash); err != sql.ErrNoRows {
		t.Errorf("revoked token validates: err = %v, want sql.ErrNoRows", err)
	}
}

func TestDeleteUserTx(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)

	userID, err := users.Create(ctx, "gone@example.fi", "hunter2secret", model.RoleUser, "", "", 4)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	if err := tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw("raw-token"), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("StoreRefresh: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := tokens.DeleteForUserTx(ctx, tx, userID); err != nil {
		t.Fatalf("DeleteForUserTx: %v", err)
	}
	if err := users.DeleteTx(ctx, tx, userID); err != nil {
		t.Fatalf("DeleteTx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := users.GetByID(ctx, userID); err != sql.ErrNoRows {
		t.Errorf("GetByID after delete: err = %v, want sql.ErrNoRows", err)
	}

	// Deleting the same user again reports not found.
	tx2, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	defer tx2.Rollback()
	if err := users.DeleteTx(ctx, tx2, userID); err != ErrNotFound {
		t.Errorf("second DeleteTx: err = %v, want ErrNotFound", err)
	}
}
