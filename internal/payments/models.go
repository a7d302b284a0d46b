package payments

import "time"

const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// Payment is one attempt against an order. IntentID is the gateway's
// external id and is unique, so a replayed intent can never create a second
// row.
type Payment struct {
	ID          int64     `json:"id"`
	OrderID     string    `json:"order_id"`
	IntentID    string    `json:"intent_id"`
	AmountCents int       `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
