// Package api exposes the storefront checkout and order endpoints over HTTP.
//
// Authentication is a collaborator concern: the fronting session layer
// authenticates the user and forwards their identity in X-User-ID and
// X-User-Email headers. This package only lifts that identity into the
// request context.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/threadcart/backend/internal/domain/checkout"
	"github.com/threadcart/backend/internal/domain/order"
	"github.com/threadcart/backend/internal/domain/product"
)

// Handler implements the HTTP surface, delegating all business logic to the
// injected domain services.
type Handler struct {
	checkout *checkout.Service
	sessions *checkout.Sessions
	orders   *order.Service
	products product.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	checkoutSvc *checkout.Service,
	sessions *checkout.Sessions,
	orders *order.Service,
	products product.Repository,
) *Handler {
	return &Handler{
		checkout: checkoutSvc,
		sessions: sessions,
		orders:   orders,
		products: products,
	}
}

// Routes mounts all endpoints on a chi router. Catalog reads are public;
// everything touching carts, checkouts, or orders requires an identity.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/products/{id}", h.GetProduct)

	r.Group(func(r chi.Router) {
		r.Use(identity)

		r.Post("/checkout/session", h.CreateCheckoutSession)
		r.Post("/checkout", h.PlaceOrder)

		r.Get("/orders", h.ListMyOrders)
		r.Get("/orders/{id}", h.GetOrder)
		r.Post("/orders/{id}/cancel", h.CancelOrder)

		r.Get("/admin/orders", h.ListAllOrders)
		r.Patch("/admin/orders/{id}/status", h.UpdateOrderStatus)
	})

	return r
}

// user is the authenticated identity forwarded by the session layer.
type user struct {
	ID    string
	Email string
}

type userKey struct{}

// identity lifts the forwarded user identity into the context and rejects
// requests that carry none.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := user{
			ID:    r.Header.Get("X-User-ID"),
			Email: r.Header.Get("X-User-Email"),
		}
		if u.ID == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

func currentUser(ctx context.Context) user {
	u, _ := ctx.Value(userKey{}).(user)
	return u
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// serverError logs the underlying cause and answers with a generic 500. Raw
// storage errors never reach the client.
func serverError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
