package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/threadcart/backend/internal/domain/order"
)

type orderItemResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	PaymentID string              `json:"paymentId"`
	UserID    string              `json:"userId"`
	Items     []orderItemResponse `json:"items"`
	Address   order.Address       `json:"address"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

type paginationResponse struct {
	TotalOrders     int  `json:"totalOrders"`
	TotalPages      int  `json:"totalPages"`
	CurrentPage     int  `json:"currentPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type orderListResponse struct {
	Orders     []orderResponse    `json:"orders"`
	Pagination paginationResponse `json:"pagination"`
}

// GetOrder returns a single order. Users may only fetch their own orders.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	if o.UserID != currentUser(r.Context()).ID {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ListMyOrders returns a page of the caller's orders, newest first.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	orders, total, err := h.orders.ListByUser(r.Context(), currentUser(r.Context()).ID, page)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListResponse(orders, total, page))
}

// ListAllOrders returns a page of every order (admin surface).
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	orders, total, err := h.orders.List(r.Context(), page)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListResponse(orders, total, page))
}

// CancelOrder moves the caller's order to cancelled.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u := currentUser(r.Context())

	existing, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	if existing.UserID != u.ID {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	o, err := h.orders.Cancel(r.Context(), id, u.Email)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus applies a status transition (admin surface).
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	to := order.Status(req.Status)
	if !to.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status provided")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), to, currentUser(r.Context()).Email)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	var invalid *order.InvalidTransitionError
	if errors.As(err, &invalid) {
		writeError(w, http.StatusConflict, invalid.Error())
		return
	}
	serverError(w, r, err)
}

func parsePage(r *http.Request) order.Page {
	page := order.Page{Number: 1, Limit: 10}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page.Number = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		page.Limit = v
	}
	return page
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}
	return orderResponse{
		ID:        o.ID,
		PaymentID: o.PaymentID,
		UserID:    o.UserID,
		Items:     items,
		Address:   o.Address,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

func toOrderListResponse(orders []order.Order, total int, page order.Page) orderListResponse {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	totalPages := (total + page.Limit - 1) / page.Limit
	return orderListResponse{
		Orders: out,
		Pagination: paginationResponse{
			TotalOrders:     total,
			TotalPages:      totalPages,
			CurrentPage:     page.Number,
			HasNextPage:     page.Number < totalPages,
			HasPreviousPage: page.Number > 1,
		},
	}
}
