package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-cart-checkout.git/internal/checkout"
	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/orders"
)

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Repo             *orders.Repo
	Checkout         *checkout.Service
	ProducerCanceled Publisher
	ProducerStatus   Publisher
	AdminToken       string
	Service          string
}

type advanceReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Post("/orders/{id}/cancel", h.cancel)
	r.Post("/admin/orders/{id}/status", h.advance)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.Checkout.Checkout(ctx, uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Repo.List(ctx, uid, r.URL.Query().Get("status"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if out == nil {
		out = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.Get(ctx, uid, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.Repo.Cancel(ctx, uid, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}

	if h.ProducerCanceled != nil {
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderCanceled,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: orderID,
			Payload:       kafkax.MustMarshal(orders.OrderCanceledPayload{OrderID: orderID, UserID: uid, Items: items}),
		}
		h.ProducerCanceled.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCanceled)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "your order has been canceled"})
}

// advance is the admin path; canceled is unreachable here by design.
func (h *OrdersHandler) advance(w http.ResponseWriter, r *http.Request) {
	if h.AdminToken == "" || r.Header.Get("X-Admin-Token") != h.AdminToken {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}
	orderID := chi.URLParam(r, "id")

	var req advanceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	next, ok := orders.ParseStatus(req.Status)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	from, err := h.Repo.Advance(ctx, orderID, next)
	if err != nil {
		writeErr(w, err)
		return
	}

	if h.ProducerStatus != nil {
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderStatusChanged,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: orderID,
			Payload:       kafkax.MustMarshal(orders.OrderStatusChangedPayload{OrderID: orderID, From: from, To: next}),
		}
		h.ProducerStatus.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "from": from, "to": next})
}
