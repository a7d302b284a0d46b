package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// Create records a pending payment attempt. Creating the same intent twice
// returns the existing row instead of a duplicate.
func (r *Repo) Create(ctx context.Context, orderID, intentID string, amountCents int) (*Payment, error) {
	p := Payment{OrderID: orderID, IntentID: intentID, AmountCents: amountCents, Currency: "usd", Status: StatusPending}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO payments(order_id, intent_id, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (intent_id) DO NOTHING
		RETURNING id, created_at, updated_at`,
		p.OrderID, p.IntentID, p.AmountCents, p.Currency, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.GetByIntent(ctx, intentID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetByIntent(ctx context.Context, intentID string) (*Payment, error) {
	var p Payment
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, intent_id, amount_cents, currency, status, created_at, updated_at
		FROM payments WHERE intent_id=$1`, intentID).
		Scan(&p.ID, &p.OrderID, &p.IntentID, &p.AmountCents, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateStatusByIntent mirrors the gateway outcome onto the payment row.
// Unknown intents are a silent no-op, same as re-applying the same status.
func (r *Repo) UpdateStatusByIntent(ctx context.Context, intentID, status string) error {
	_, err := r.DB.Exec(ctx, `UPDATE payments SET status=$2, updated_at=now() WHERE intent_id=$1`, intentID, status)
	return err
}
