package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
)

type CartHandler struct {
	Cart *cart.Cart
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"` // default 1 when omitted
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.get)
	r.Delete("/cart", h.clear)
	r.Post("/cart/items", h.add)
	r.Put("/cart/items/{productID}", h.update)
	r.Delete("/cart/items/{productID}", h.remove)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Cart.Add(ctx, uid, req.ProductID, qty); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "item added to your cart"})
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")
	var req updateItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Cart.Update(ctx, uid, productID, req.Quantity); err != nil {
		writeErr(w, err)
		return
	}
	if req.Quantity == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "quantity updated"})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Cart.Remove(ctx, uid, chi.URLParam(r, "productID")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed"})
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	view, err := h.Cart.Snapshot(ctx, uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Cart.Clear(ctx, uid); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
