package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
	"github.com/mcpops/portal/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderHandler exposes the order lifecycle.
type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		PartnerID   string          `json:"partnerId"`
		Amount      decimal.Decimal `json:"amount"`
		Type        string          `json:"type"`
		Description string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	partnerID, err := uuid.Parse(req.PartnerID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-partner-id", "Invalid partnerId")
		return
	}

	order, err := h.svc.Create(r.Context(), actorID, partnerID, domain.FromDecimal(req.Amount), req.Type, req.Description)
	if err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("create order failed", zap.Error(err), zap.String("mcp_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "order/create-failed", "Error creating order")
		return
	}

	RespondJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) ListForMCP(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orders, err := h.svc.ListForMCP(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list mcp orders failed", zap.Error(err), zap.String("mcp_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "order/list-failed", "Error fetching orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	RespondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListForPartner(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orders, err := h.svc.ListForPartner(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list partner orders failed", zap.Error(err), zap.String("partner_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "order/list-failed", "Error fetching orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	RespondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Invalid order ID")
		return
	}

	order, err := h.svc.GetByID(r.Context(), orderID, actorID)
	if err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("get order failed", zap.Error(err), zap.String("order_id", orderID.String()))
		RespondError(w, r, http.StatusInternalServerError, "order/read-failed", "Error fetching order")
		return
	}

	RespondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Invalid order ID")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), orderID, actorID, req.Status)
	if err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("update order status failed", zap.Error(err),
			zap.String("order_id", orderID.String()), zap.String("status", req.Status))
		RespondError(w, r, http.StatusInternalServerError, "order/status-update-failed", "Error updating order status")
		return
	}

	RespondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Invalid order ID")
		return
	}

	var req struct {
		PartnerID string `json:"partnerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	partnerID, err := uuid.Parse(req.PartnerID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-partner-id", "Invalid partnerId")
		return
	}

	order, err := h.svc.Assign(r.Context(), orderID, actorID, partnerID)
	if err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("assign order failed", zap.Error(err),
			zap.String("order_id", orderID.String()), zap.String("partner_id", partnerID.String()))
		RespondError(w, r, http.StatusInternalServerError, "order/assign-failed", "Error assigning order")
		return
	}

	RespondJSON(w, http.StatusOK, order)
}
