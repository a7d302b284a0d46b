package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-cart-checkout.git/internal/stock"
)

// Payment outcomes reported by the gateway.
const (
	OutcomeSucceeded         = "succeeded"
	OutcomeFailed            = "failed"
	OutcomeCanceledByGateway = "canceled_by_gateway"
)

type Repo struct{ DB *pgxpool.Pool }

// begin opens a transaction with a bounded lock wait so contended checkouts
// fail with stock.ErrBusy instead of hanging.
func (r *Repo) begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '3s'`); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	return tx, nil
}

// CreateFromCart drains a cart mapping into a pending order in one
// transaction: reserve stock per line, capture the reserved price on the
// item, store the total. Any line failure rolls the whole thing back.
// Lines are walked in ascending product id so overlapping checkouts take row
// locks in the same order.
func (r *Repo) CreateFromCart(ctx context.Context, userID string, items map[string]int) (*Order, error) {
	ids := make([]string, 0, len(items))
	for pid := range items {
		ids = append(ids, pid)
	}
	sort.Strings(ids)

	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := &Order{ID: uuid.NewString(), UserID: userID, Status: StatusPending}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, user_id, status, total_cents)
		VALUES ($1, $2, $3, 0)
		RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.Status).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	for _, pid := range ids {
		qty := items[pid]
		price, err := stock.Reserve(ctx, tx, pid, qty)
		if err != nil {
			return nil, err
		}
		it := Item{OrderID: o.ID, ProductID: pid, Qty: qty, PriceCents: price}
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price_cents)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			it.OrderID, it.ProductID, it.Qty, it.PriceCents).Scan(&it.ID)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
		o.TotalCents += price * qty
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET total_cents=$2 WHERE id=$1`, o.ID, o.TotalCents); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// Get is owner-scoped: an order that exists but belongs to someone else looks
// exactly like one that does not exist.
func (r *Repo) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders WHERE id=$1 AND user_id=$2`, orderID, userID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns the user's orders, newest first, optionally filtered by a
// status substring.
func (r *Repo) List(ctx context.Context, userID, statusFilter string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders
		WHERE user_id=$1 AND ($2 = '' OR status LIKE '%' || $2 || '%')
		ORDER BY created_at DESC`, userID, statusFilter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.loadItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repo) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, qty, price_cents
		FROM order_items WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.PriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Advance moves an order along the transition table. Cancellation is not
// reachable here; it has stock side effects and its own owner-scoped path.
func (r *Repo) Advance(ctx context.Context, orderID string, next Status) (from Status, err error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if next == StatusCanceled || !CanTransition(from, next) {
		return "", &InvalidTransitionError{From: from, To: next, Allowed: allowedHere(from)}
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, next); err != nil {
		return "", err
	}
	return from, tx.Commit(ctx)
}

// allowedHere is AllowedTransitions minus canceled, which Advance never does.
func allowedHere(from Status) []Status {
	var out []Status
	for _, s := range AllowedTransitions(from) {
		if s != StatusCanceled {
			out = append(out, s)
		}
	}
	return out
}

// Cancel restores every item's stock and flips the order to canceled inside
// one transaction. Only pending orders qualify; a second cancel fails on the
// state check, which is what keeps stock from being restored twice.
func (r *Repo) Cancel(ctx context.Context, userID, orderID string) ([]ItemQty, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 AND user_id=$2 FOR UPDATE`, orderID, userID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if cur != StatusPending {
		return nil, ErrInvalidState
	}

	rows, err := tx.Query(ctx, `SELECT product_id, qty FROM order_items WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	var items []ItemQty
	for rows.Next() {
		var it ItemQty
		if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, it := range items {
		if err := stock.Release(ctx, tx, it.ProductID, it.Qty); err != nil {
			return nil, err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, StatusCanceled); err != nil {
		return nil, err
	}
	return items, tx.Commit(ctx)
}

// ApplyPaymentEvent is idempotent by construction: it is a function of
// (current status, outcome). succeeded moves pending to paid; every other
// combination, including duplicates and late events, changes nothing and
// returns changed=false. Unknown orders fail with ErrNotFound so the caller
// can isolate a bad webhook without touching the others.
func (r *Repo) ApplyPaymentEvent(ctx context.Context, orderID, outcome string) (status Status, changed bool, err error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return "", false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, ErrNotFound
	}
	if err != nil {
		return "", false, err
	}

	if outcome == OutcomeSucceeded && status == StatusPending {
		if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, StatusPaid); err != nil {
			return "", false, err
		}
		status, changed = StatusPaid, true
	}
	return status, changed, tx.Commit(ctx)
}
