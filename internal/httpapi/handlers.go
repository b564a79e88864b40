package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hakkisagdic/otokoc-demo/internal/inventory"
	"github.com/hakkisagdic/otokoc-demo/internal/invoke"
	"github.com/hakkisagdic/otokoc-demo/internal/order"
	"github.com/hakkisagdic/otokoc-demo/internal/payment"
)

type Handler struct {
	saga     *order.Saga
	orders   order.Repository
	ledger   *inventory.Ledger
	payments payment.Repository
	logger   *log.Logger
}

func NewHandler(saga *order.Saga, orders order.Repository, ledger *inventory.Ledger, payments payment.Repository, logger *log.Logger) *Handler {
	return &Handler{saga: saga, orders: orders, ledger: ledger, payments: payments, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req order.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.saga.CreateOrder(ctx, req)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found", nil)
			return
		}
		h.logger.Printf("get order %s: %v", orderID, err)
		writeError(w, http.StatusInternalServerError, "failed to load order", nil)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.orders.ListByUser(ctx, userID)
	if err != nil {
		h.logger.Printf("list orders for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load orders", nil)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var card payment.CardDetails
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	o, p, err := h.saga.ProcessPayment(ctx, orderID, card)
	if err != nil {
		var declined *payment.DeclinedError
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found", nil)
		case errors.As(err, &declined):
			writeError(w, http.StatusPaymentRequired, "payment declined", map[string]string{"reason": declined.Reason})
		default:
			h.writeOrderError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": o, "payment": p})
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Reason == "" {
		req.Reason = "cancelled by customer"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.saga.CancelOrder(ctx, orderID, req.Reason)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.saga.UpdateStatus(ctx, orderID, status, req.Note)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	rec, err := h.ledger.GetRecord(r.Context(), productID)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found", nil)
			return
		}
		h.logger.Printf("get inventory %s: %v", productID, err)
		writeError(w, http.StatusInternalServerError, "failed to load inventory", nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID    string `json:"productId"`
		Quantity     int    `json:"quantity"`
		Location     string `json:"location"`
		ReorderLevel int    `json:"reorderLevel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.ProductID == "" || req.Quantity < 0 || req.ReorderLevel < 0 {
		writeError(w, http.StatusBadRequest, "productId required, quantities must be non-negative", nil)
		return
	}

	rec, err := h.ledger.AdjustStock(r.Context(), req.ProductID, req.Quantity, req.Location, req.ReorderLevel)
	if err != nil {
		var inv *inventory.InvariantError
		if errors.As(err, &inv) {
			writeError(w, http.StatusConflict, "quantity below reserved stock", map[string]int{
				"quantity": inv.Quantity,
				"reserved": inv.Reserved,
			})
			return
		}
		h.logger.Printf("adjust stock %s: %v", req.ProductID, err)
		writeError(w, http.StatusInternalServerError, "failed to adjust stock", nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) ListPaymentsByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	payments, err := h.payments.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.logger.Printf("list payments for order %s: %v", orderID, err)
		writeError(w, http.StatusInternalServerError, "failed to load payments", nil)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// writeOrderError maps saga failures to status codes, keeping the violated
// constraint and quantities in the response body.
func (h *Handler) writeOrderError(w http.ResponseWriter, err error) {
	var (
		validation *order.ValidationError
		stock      *order.InsufficientStockError
		badState   *order.InvalidStateError
	)

	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found", nil)
	case errors.Is(err, order.ErrInvalidUser):
		writeError(w, http.StatusUnprocessableEntity, "user not found", nil)
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error(), nil)
	case errors.As(err, &stock):
		writeError(w, http.StatusConflict, "insufficient stock", map[string]any{
			"productId": stock.ProductID,
			"requested": stock.Requested,
			"available": stock.Available,
		})
	case errors.As(err, &badState):
		writeError(w, http.StatusConflict, badState.Error(), nil)
	case errors.Is(err, invoke.ErrUnavailable) || errors.Is(err, invoke.ErrTimeout):
		writeError(w, http.StatusBadGateway, "upstream service unavailable", nil)
	default:
		h.logger.Printf("order operation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
