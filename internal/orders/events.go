package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderCanceled      = "OrderCanceled"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventPaymentOutcome     = "PaymentOutcome"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type OrderCreatedPayload struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Items      []ItemPrice `json:"items"`
	TotalCents int         `json:"total_cents"`
}

type OrderCanceledPayload struct {
	OrderID string    `json:"order_id"`
	UserID  string    `json:"user_id"`
	Items   []ItemQty `json:"items"` // stock restored per item
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

// PaymentOutcomePayload is what the gateway bridge publishes on
// payment.events. Delivery is at-least-once and may be out of order.
type PaymentOutcomePayload struct {
	OrderID     string `json:"order_id"`
	IntentID    string `json:"intent_id"`
	AmountCents int    `json:"amount_cents"`
	Outcome     string `json:"outcome"` // succeeded | failed | canceled_by_gateway
}
