package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/idturva/subscription-portal/internal/model"
	"github.com/idturva/subscription-portal/internal/utils"
)

func testOrder(t *testing.T, userID *uint64, items ...model.OrderItem) *model.Order {
	t.Helper()
	token, err := utils.NewConfirmationToken()
	if err != nil {
		t.Fatalf("NewConfirmationToken: %v", err)
	}
	if len(items) == 0 {
		items = []model.OrderItem{{
			PackageTitle: "Kattava suoja",
			PackagePrice: decimal.RequireFromString("19.99"),
			Quantity:     2,
		}}
	}
	return &model.Order{
		OrderNumber:       utils.NewOrderNumber(),
		UserID:            userID,
		CustomerFirstName: "Maija",
		CustomerLastName:  "Meikäläinen",
		CustomerEmail:     "maija@example.fi",
		ConfirmationToken: token,
		Items:             items,
	}
}

func createTestUser(t *testing.T, db *sql.DB, email string) uint64 {
	t.Helper()
	id, err := NewUserRepo(db).Create(context.Background(), email, "hunter2secret", model.RoleUser, "Test", "User", 4)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return id
}

func countRows(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}

func TestCreateOrderRecomputesTotal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	o := testOrder(t, nil)
	// A tampered client total must never survive into storage.
	o.TotalAmount = decimal.RequireFromString("0.01")

	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.ID == 0 {
		t.Error("Order ID should not be 0")
	}
	want := decimal.RequireFromString("39.98")
	if !o.TotalAmount.Equal(want) {
		t.Errorf("Recomputed total = %s, want %s", o.TotalAmount, want)
	}
	if o.Status != model.OrderStatusPending {
		t.Errorf("Status = %q, want %q", o.Status, model.OrderStatusPending)
	}

	var stored decimal.Decimal
	if err := db.QueryRow("SELECT total_amount FROM orders WHERE id=?", o.ID).Scan(&stored); err != nil {
		t.Fatalf("read back total: %v", err)
	}
	if !stored.Equal(want) {
		t.Errorf("Stored total = %s, want %s", stored, want)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM order_items WHERE order_id=?", o.ID); n != 1 {
		t.Errorf("order_items rows = %d, want 1", n)
	}
	if o.Items[0].ID == 0 || o.Items[0].OrderID != o.ID {
		t.Errorf("item not linked: id=%d order_id=%d", o.Items[0].ID, o.Items[0].OrderID)
	}
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepo(db)

	o := testOrder(t, nil)
	o.Items = nil
	if err := repo.Create(context.Background(), o); err != ErrConflict {
		t.Fatalf("Create with no items: err = %v, want ErrConflict", err)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM orders"); n != 0 {
		t.Errorf("orders rows = %d, want 0", n)
	}
}

func TestConfirmUnknownTokenMutatesNothing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	o := testOrder(t, nil)
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := repo.ConfirmByToken(ctx, "deadbeef", "192.0.2.1", "test-agent")
	if err != ErrNotFound {
		t.Fatalf("ConfirmByToken(unknown): err = %v, want ErrNotFound", err)
	}

	var status string
	if err := db.QueryRow("SELECT status FROM orders WHERE id=?", o.ID).Scan(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != model.OrderStatusPending {
		t.Errorf("status = %q, existing order must stay pending", status)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM order_confirmations"); n != 0 {
		t.Errorf("order_confirmations rows = %d, want 0", n)
	}
}

func TestConfirmByTokenExactlyOnce(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	o := testOrder(t, nil)
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	confirmed, err := repo.ConfirmByToken(ctx, o.ConfirmationToken, "192.0.2.1", "test-agent")
	if err != nil {
		t.Fatalf("first ConfirmByToken: %v", err)
	}
	if confirmed.Status != model.OrderStatusConfirmed {
		t.Errorf("status = %q, want confirmed", confirmed.Status)
	}
	if confirmed.ConfirmedAt == nil {
		t.Error("ConfirmedAt should be set after confirmation")
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM order_confirmations WHERE order_id=?", o.ID); n != 1 {
		t.Fatalf("audit rows after first confirm = %d, want 1", n)
	}

	var firstConfirmedAt sql.NullTime
	if err := db.QueryRow("SELECT confirmed_at FROM orders WHERE id=?", o.ID).Scan(&firstConfirmedAt); err != nil {
		t.Fatalf("read confirmed_at: %v", err)
	}

	// The link is single-use: replaying it must change nothing.
	if _, err := repo.ConfirmByToken(ctx, o.ConfirmationToken, "192.0.2.2", "other-agent"); err != ErrAlreadyConfirmed {
		t.Fatalf("second ConfirmByToken: err = %v, want ErrAlreadyConfirmed", err)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM order_confirmations WHERE order_id=?", o.ID); n != 1 {
		t.Errorf("audit rows after replay = %d, want 1", n)
	}
	var secondConfirmedAt sql.NullTime
	if err := db.QueryRow("SELECT confirmed_at FROM orders WHERE id=?", o.ID).Scan(&secondConfirmedAt); err != nil {
		t.Fatalf("read confirmed_at: %v", err)
	}
	if !firstConfirmedAt.Time.Equal(secondConfirmedAt.Time) {
		t.Errorf("confirmed_at changed on replay: %v != %v", firstConfirmedAt.Time, secondConfirmedAt.Time)
	}
}

func TestConfirmCancelledOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	o := testOrder(t, nil)
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Cancel(ctx, o.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := repo.ConfirmByToken(ctx, o.ConfirmationToken, "192.0.2.1", "test-agent"); err != ErrOrderCancelled {
		t.Fatalf("ConfirmByToken(cancelled): err = %v, want ErrOrderCancelled", err)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM order_confirmations WHERE order_id=?", o.ID); n != 0 {
		t.Errorf("audit rows = %d, want 0", n)
	}
}

func TestCancelOnlyPendingOrders(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	o := testOrder(t, nil)
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.ConfirmByToken(ctx, o.ConfirmationToken, "192.0.2.1", "test-agent"); err != nil {
		t.Fatalf("ConfirmByToken: %v", err)
	}

	if err := repo.Cancel(ctx, o.ID); err != ErrConflict {
		t.Errorf("Cancel(confirmed): err = %v, want ErrConflict", err)
	}
	if err := repo.Cancel(ctx, 999999); err != ErrNotFound {
		t.Errorf("Cancel(unknown): err = %v, want ErrNotFound", err)
	}
}

func TestGetByIDOwnership(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	owner := createTestUser(t, db, "owner@example.fi")
	other := createTestUser(t, db, "other@example.fi")

	o := testOrder(t, &owner)
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	guest := testOrder(t, nil)
	if err := repo.Create(ctx, guest); err != nil {
		t.Fatalf("Create guest order: %v", err)
	}

	got, err := repo.GetByID(ctx, o.ID, &owner)
	if err != nil {
		t.Fatalf("GetByID as owner: %v", err)
	}
	if len(got.Items) != 1 {
		t.Errorf("items loaded = %d, want 1", len(got.Items))
	}

	if _, err := repo.GetByID(ctx, o.ID, &other); err != ErrForbidden {
		t.Errorf("GetByID as stranger: err = %v, want ErrForbidden", err)
	}
	// Guest orders are visible only through the admin path (nil requester).
	if _, err := repo.GetByID(ctx, guest.ID, &other); err != ErrForbidden {
		t.Errorf("GetByID guest order as user: err = %v, want ErrForbidden", err)
	}
	if _, err := repo.GetByID(ctx, guest.ID, nil); err != nil {
		t.Errorf("GetByID guest order as admin: %v", err)
	}
	if _, err := repo.GetByID(ctx, 999999, nil); err != ErrNotFound {
		t.Errorf("GetByID unknown: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteByUserRemovesOrderData(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	userID := createTestUser(t, db, "leaving@example.fi")

	first := testOrder(t, &userID)
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.ConfirmByToken(ctx, first.ConfirmationToken, "192.0.2.1", "test-agent"); err != nil {
		t.Fatalf("ConfirmByToken: %v", err)
	}
	second := testOrder(t, &userID)
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create second: %v", err)
	}
	guest := testOrder(t, nil)
	if err := repo.Create(ctx, guest); err != nil {
		t.Fatalf("Create guest: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	removed, err := repo.DeleteByUserTx(ctx, tx, userID)
	if err != nil {
		t.Fatalf("DeleteByUserTx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	if n := countRows(t, db, "SELECT COUNT(*) FROM orders WHERE user_id=?", userID); n != 0 {
		t.Errorf("orders left = %d, want 0", n)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM order_items"); n != 1 {
		t.Errorf("order_items left = %d, want 1 (guest order)", n)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM order_confirmations"); n != 0 {
		t.Errorf("order_confirmations left = %d, want 0", n)
	}
	// Untouched guest order survives the cascade.
	if _, err := repo.GetByID(ctx, guest.ID, nil); err != nil {
		t.Errorf("guest order gone after cascade: %v", err)
	}
}

func TestListAllFiltersByStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	a := testOrder(t, nil)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	b := testOrder(t, nil)
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.ConfirmByToken(ctx, b.ConfirmationToken, "192.0.2.1", "test-agent"); err != nil {
		t.Fatalf("ConfirmByToken: %v", err)
	}

	pending, err := repo.ListAll(ctx, model.OrderStatusPending)
	if err != nil {
		t.Fatalf("ListAll(pending): %v", err)
	}
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Errorf("pending list wrong: %+v", pending)
	}

	all, err := repo.ListAll(ctx, "")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all orders = %d, want 2", len(all))
	}
	for _, o := range all {
		if len(o.Items) != 1 {
			t.Errorf("order %d items = %d, want 1", o.ID, len(o.Items))
		}
	}
}
