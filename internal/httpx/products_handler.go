package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-cart-checkout.git/internal/catalog"
)

type ProductsHandler struct {
	Repo *catalog.Repo
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.list)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.List(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}
