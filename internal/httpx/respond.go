package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
	"github.com/ariefcatur/go-cart-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-cart-checkout.git/internal/checkout"
	"github.com/ariefcatur/go-cart-checkout.git/internal/orders"
	"github.com/ariefcatur/go-cart-checkout.git/internal/stock"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors onto status codes. Validation and stock errors
// keep their message so the user can correct input; anything unexpected is
// reported generically.
func writeErr(w http.ResponseWriter, err error) {
	var insufficient *stock.InsufficientError
	var transition *orders.InvalidTransitionError

	switch {
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, stock.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     insufficient.Error(),
			"product":   insufficient.ProductID,
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	case errors.As(err, &transition),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, orders.ErrInvalidState):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, stock.ErrBusy):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "busy, please retry"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// userID comes from the auth layer in front of this service.
func userID(r *http.Request) string { return r.Header.Get("X-User-ID") }

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user"})
		return "", false
	}
	return uid, true
}
