// Package stock is the single mutation point for product stock. Reserve and
// Release run inside the caller's transaction so that checkout and
// cancellation stay all-or-nothing; the row lock taken by FOR UPDATE
// serializes every read-check-write on the same product id.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("product not found")

	// ErrBusy is surfaced when a row lock cannot be acquired within the
	// transaction's lock_timeout. Retryable; callers report it generically.
	ErrBusy = errors.New("stock is busy, try again")
)

type InsufficientError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("not enough stock for product %s, only %d left", e.Name, e.Available)
}

// Reserve locks the product row, checks availability and decrements stock by
// qty. Returns the unit price observed under the lock, which is the price the
// order item must capture.
func Reserve(ctx context.Context, tx pgx.Tx, productID string, qty int) (priceCents int, err error) {
	var name string
	var available int
	err = tx.QueryRow(ctx, `SELECT name, price_cents, stock FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&name, &priceCents, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, mapLockErr(err)
	}
	if available < qty {
		return 0, &InsufficientError{ProductID: productID, Name: name, Requested: qty, Available: available}
	}
	if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1`, productID, qty); err != nil {
		return 0, err
	}
	return priceCents, nil
}

// Release restores qty units under the same lock discipline. It never fails
// on quantity (stock is unbounded above) and is used only by cancellation.
func Release(ctx context.Context, tx pgx.Tx, productID string, qty int) error {
	var cur int
	err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return mapLockErr(err)
	}
	_, err = tx.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`, productID, qty)
	return err
}

// 55P03 = lock_not_available (lock_timeout exceeded).
func mapLockErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return ErrBusy
	}
	return err
}
