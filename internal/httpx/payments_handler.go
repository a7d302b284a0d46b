package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-cart-checkout.git/internal/orders"
	"github.com/ariefcatur/go-cart-checkout.git/internal/payments"
)

type PaymentsHandler struct {
	Orders   *orders.Repo
	Repo     *payments.Repo
	Payments *payments.Service
}

type createIntentReq struct {
	OrderID string `json:"order_id"`
}

type webhookReq struct {
	OrderID  string `json:"order_id"`
	IntentID string `json:"intent_id"`
	Outcome  string `json:"outcome"`
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/payments/intents", h.createIntent)
	r.Post("/payments/webhook", h.webhook)
}

// createIntent records a pending payment attempt for the order total. The
// gateway call itself lives outside this service.
func (h *PaymentsHandler) createIntent(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req createIntentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, uid, req.OrderID)
	if err != nil {
		writeErr(w, err)
		return
	}

	p, err := h.Repo.Create(ctx, o.ID, "pi_"+uuid.NewString(), o.TotalCents)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// webhook trusts its caller; signature verification happens at the gateway
// layer in front of this endpoint. Duplicate deliveries come back 200.
func (h *PaymentsHandler) webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" || req.Outcome == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, changed, err := h.Payments.Apply(ctx, orders.PaymentOutcomePayload{
		OrderID:  req.OrderID,
		IntentID: req.IntentID,
		Outcome:  req.Outcome,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": req.OrderID, "status": status, "changed": changed})
}
