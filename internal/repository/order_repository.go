package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/idturva/subscription-portal/internal/model"
)

// OrderRepo provides CRUD operations for orders, their line items and the
// confirmation audit log. Orders group one or more snapshotted package line
// items under a single checkout submission. All timestamp fields are stored
// in UTC.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span multiple repositories (user deletion cascade).
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderColumns = `id, order_number, user_id, customer_first_name, customer_last_name,
customer_email, customer_phone, billing_street, billing_postal_code, billing_city,
total_amount, status, confirmation_token, confirmed_at, created_at, updated_at`

// Create inserts an order together with its line items in one transaction.
// The total is recomputed here from the items; whatever the caller put in
// TotalAmount is overwritten so the stored invariant
// total = Σ(price × quantity) always holds. The generated ID, total and
// timestamps are populated on the provided order.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	if len(o.Items) == 0 {
		return ErrConflict
	}
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.PackagePrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	o.TotalAmount = total
	o.Status = model.OrderStatusPending

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (order_number, user_id, customer_first_name, customer_last_name,
		 customer_email, customer_phone, billing_street, billing_postal_code, billing_city,
		 total_amount, status, confirmation_token)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.OrderNumber, o.UserID, o.CustomerFirstName, o.CustomerLastName,
		o.CustomerEmail, o.CustomerPhone, o.BillingStreet, o.BillingPostalCode, o.BillingCity,
		o.TotalAmount, o.Status, o.ConfirmationToken)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	if err := r.createItemsBulkTx(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}

	// Query back timestamps and defaults.
	err = tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM orders WHERE id=?", o.ID).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// createItemsBulkTx inserts all line items in a single statement and
// populates their IDs and order reference.
func (r *OrderRepo) createItemsBulkTx(ctx context.Context, tx *sql.Tx, orderID uint64, items []model.OrderItem) error {
	var b strings.Builder
	b.WriteString("INSERT INTO order_items (order_id, package_title, package_price, quantity) VALUES ")
	args := make([]interface{}, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?,?,?,?)")
		args = append(args, orderID, it.PackageTitle, it.PackagePrice, it.Quantity)
	}
	res, err := tx.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return err
	}
	first, err := res.LastInsertId()
	if err != nil {
		return err
	}
	// MySQL returns the first id of a multi-row insert; ids are contiguous
	// for a single statement with innodb_autoinc_lock_mode <= 1.
	for i := range items {
		items[i].ID = uint64(first) + uint64(i)
		items[i].OrderID = orderID
	}
	return nil
}

// ConfirmByToken transitions the order matching token from pending to
// confirmed and appends exactly one audit row with the caller's address.
// The status filter on the UPDATE makes the transition race-safe: of two
// concurrent attempts only one affects a row, the other reports the order
// as already confirmed.
//
// Errors: ErrNotFound (unknown token), ErrAlreadyConfirmed, ErrOrderCancelled.
func (r *OrderRepo) ConfirmByToken(ctx context.Context, token, ipAddress, userAgent string) (*model.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status=?, confirmed_at=? WHERE confirmation_token=? AND status=?",
		model.OrderStatusConfirmed, now, token, model.OrderStatusPending)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// No pending order matched: distinguish unknown token from a
		// terminal-state order. Read within the same transaction.
		var status string
		err := tx.QueryRowContext(ctx,
			"SELECT status FROM orders WHERE confirmation_token=? LIMIT 1", token).Scan(&status)
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		switch status {
		case model.OrderStatusConfirmed:
			return nil, ErrAlreadyConfirmed
		case model.OrderStatusCancelled:
			return nil, ErrOrderCancelled
		}
		return nil, ErrConflict
	}

	var o model.Order
	if err := scanOrder(tx.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE confirmation_token=? LIMIT 1", token), &o); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO order_confirmations (order_id, confirmed_at, ip_address, user_agent) VALUES (?,?,?,?)",
		o.ID, now, ipAddress, userAgent); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &o, nil
}

// Cancel transitions a pending order to cancelled. Confirmed orders cannot
// be cancelled through this path.
func (r *OrderRepo) Cancel(ctx context.Context, orderID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=? AND status=?",
		model.OrderStatusCancelled, orderID, model.OrderStatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var status string
		err := r.db.QueryRowContext(ctx,
			"SELECT status FROM orders WHERE id=? LIMIT 1", orderID).Scan(&status)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// GetByID fetches a single order with its items. When requesterID is
// non-nil the order must belong to that user; admins pass nil to fetch any
// order. Guest orders (user_id NULL) are reachable only by admins.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64, requesterID *uint64) (*model.Order, error) {
	var o model.Order
	err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id=? LIMIT 1", orderID), &o)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if requesterID != nil {
		if o.UserID == nil || *o.UserID != *requesterID {
			return nil, ErrForbidden
		}
	}
	items, err := r.itemsForOrders(ctx, []uint64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return &o, nil
}

// ListByUser returns the user's orders with items, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(ctx, rows)
}

// ListAll returns every order, optionally filtered by status, with items.
// Admin-only callers.
func (r *OrderRepo) ListAll(ctx context.Context, status string) ([]model.Order, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+orderColumns+" FROM orders WHERE status=? ORDER BY created_at DESC", status)
	} else {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
	}
	if err != nil {
		return nil, err
	}
	return r.collectOrders(ctx, rows)
}

// ListConfirmations returns the audit rows for an order, oldest first.
func (r *OrderRepo) ListConfirmations(ctx context.Context, orderID uint64) ([]model.OrderConfirmation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, confirmed_at, ip_address, user_agent, created_at FROM order_confirmations WHERE order_id=? ORDER BY created_at ASC",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.OrderConfirmation
	for rows.Next() {
		var c model.OrderConfirmation
		if err := rows.Scan(&c.ID, &c.OrderID, &c.ConfirmedAt, &c.IPAddress, &c.UserAgent, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteByUserTx removes all of a user's orders together with their items
// and confirmation rows, inside an existing transaction. Children go first
// to satisfy foreign key constraints. Returns the number of orders removed.
func (r *OrderRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		"DELETE oc FROM order_confirmations oc JOIN orders o ON o.id = oc.order_id WHERE o.user_id=?",
		userID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE oi FROM order_items oi JOIN orders o ON o.id = oi.order_id WHERE o.user_id=?",
		userID); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE user_id=?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanOrder reads one orders row into o. The caller supplies the row from a
// query selecting orderColumns.
func scanOrder(row *sql.Row, o *model.Order) error {
	var (
		userID      sql.NullInt64
		confirmedAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &userID, &o.CustomerFirstName, &o.CustomerLastName,
		&o.CustomerEmail, &o.CustomerPhone, &o.BillingStreet, &o.BillingPostalCode, &o.BillingCity,
		&o.TotalAmount, &o.Status, &o.ConfirmationToken, &confirmedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		o.UserID = &uid
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		o.ConfirmedAt = &t
	}
	return nil
}

// collectOrders drains rows into orders and attaches their items with one
// additional IN query.
func (r *OrderRepo) collectOrders(ctx context.Context, rows *sql.Rows) ([]model.Order, error) {
	defer rows.Close()
	var orders []model.Order
	var ids []uint64
	for rows.Next() {
		var (
			o           model.Order
			userID      sql.NullInt64
			confirmedAt sql.NullTime
		)
		err := rows.Scan(&o.ID, &o.OrderNumber, &userID, &o.CustomerFirstName, &o.CustomerLastName,
			&o.CustomerEmail, &o.CustomerPhone, &o.BillingStreet, &o.BillingPostalCode, &o.BillingCity,
			&o.TotalAmount, &o.Status, &o.ConfirmationToken, &confirmedAt, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if userID.Valid {
			uid := uint64(userID.Int64)
			o.UserID = &uid
		}
		if confirmedAt.Valid {
			t := confirmedAt.Time
			o.ConfirmedAt = &t
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	items, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// itemsForOrders loads line items for the given order ids grouped by order.
func (r *OrderRepo) itemsForOrders(ctx context.Context, ids []uint64) (map[uint64][]model.OrderItem, error) {
	var b strings.Builder
	b.WriteString("SELECT id, order_id, package_title, package_price, quantity, created_at FROM order_items WHERE order_id IN (")
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
		args = append(args, id)
	}
	b.WriteString(") ORDER BY id ASC")

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]model.OrderItem, len(ids))
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.PackageTitle, &it.PackagePrice, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}
