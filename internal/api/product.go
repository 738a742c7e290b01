package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/threadcart/backend/internal/domain/product"
)

type productResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Sizes map[string]int  `json:"sizes"`
}

// GetProduct returns a catalog entry with its per-size availability
// snapshot. Quantities here are advisory; checkout holds the truth.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Sizes: p.Sizes,
	})
}
