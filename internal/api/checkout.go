package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/threadcart/backend/internal/domain/checkout"
	"github.com/threadcart/backend/internal/domain/inventory"
	"github.com/threadcart/backend/internal/domain/order"
)

type checkoutItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type checkoutSessionRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Items  []checkoutItem  `json:"items"`
}

type checkoutSessionResponse struct {
	GatewayOrderID string          `json:"gatewayOrderId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Receipt        string          `json:"receipt"`
}

// CreateCheckoutSession runs the advisory stock check and opens a gateway
// order the client can pay against.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]checkout.SessionItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = checkout.SessionItem{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity}
	}

	gwOrder, err := h.sessions.Create(r.Context(), checkout.SessionRequest{
		Amount: req.Amount,
		Items:  items,
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutSessionResponse{
		GatewayOrderID: gwOrder.ID,
		Amount:         gwOrder.Amount,
		Currency:       gwOrder.Currency,
		Receipt:        gwOrder.Receipt,
	})
}

type placeOrderRequest struct {
	GatewayOrderID   string         `json:"gatewayOrderId"`
	GatewayPaymentID string         `json:"gatewayPaymentId"`
	GatewaySignature string         `json:"gatewaySignature"`
	Items            []checkoutItem `json:"cartItems"`
	DeliveryAddress  order.Address  `json:"deliveryAddress"`
	ClearCart        bool           `json:"clearCart"`
}

type placeOrderResponse struct {
	OrderID        string `json:"orderId"`
	GatewayOrderID string `json:"gatewayOrderId"`
}

// PlaceOrder verifies the payment proof and runs the checkout saga.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u := currentUser(r.Context())

	items := make([]checkout.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = checkout.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}

	result, err := h.checkout.PlaceOrder(r.Context(), checkout.Request{
		UserID:           u.ID,
		UserEmail:        u.Email,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		GatewaySignature: req.GatewaySignature,
		Items:            items,
		Address:          req.DeliveryAddress,
		ClearCart:        req.ClearCart,
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, placeOrderResponse{
		OrderID:        result.OrderID,
		GatewayOrderID: result.GatewayOrderID,
	})
}

type stockErrorResponse struct {
	Code              int    `json:"code"`
	Message           string `json:"message"`
	ProductID         string `json:"productId"`
	Size              string `json:"size"`
	AvailableStock    int    `json:"availableStock"`
	RequestedQuantity int    `json:"requestedQuantity"`
}

// writeCheckoutError maps the checkout error taxonomy onto HTTP responses.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrInvalidSignature):
		// Generic on purpose: which part of the check failed stays private.
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	case errors.Is(err, checkout.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, checkout.ErrAlreadyPlaced):
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	var invalidItem *checkout.InvalidItemError
	if errors.As(err, &invalidItem) {
		writeError(w, http.StatusUnprocessableEntity, invalidItem.Error())
		return
	}

	var notFound *inventory.ProductNotFoundError
	if errors.As(err, &notFound) {
		writeError(w, http.StatusUnprocessableEntity, notFound.Error())
		return
	}

	var noSize *inventory.SizeNotFoundError
	if errors.As(err, &noSize) {
		writeError(w, http.StatusUnprocessableEntity, noSize.Error())
		return
	}

	var shortage *inventory.InsufficientStockError
	if errors.As(err, &shortage) {
		writeJSON(w, http.StatusConflict, stockErrorResponse{
			Code:              http.StatusConflict,
			Message:           "insufficient stock",
			ProductID:         shortage.ProductID,
			Size:              shortage.Size,
			AvailableStock:    shortage.Available,
			RequestedQuantity: shortage.Requested,
		})
		return
	}

	var unavailable *checkout.StorageUnavailableError
	if errors.As(err, &unavailable) {
		// Compensation already ran: the client may retry the whole checkout.
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}

	serverError(w, r, err)
}
