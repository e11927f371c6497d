package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
	"github.com/mcpops/portal/internal/service"
	"go.uber.org/zap"
)

// PartnerHandler exposes the partner roster to MCPs.
type PartnerHandler struct {
	svc *service.PartnerService
}

func NewPartnerHandler(svc *service.PartnerService) *PartnerHandler {
	return &PartnerHandler{svc: svc}
}

func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	partners, err := h.svc.List(r.Context())
	if err != nil {
		zap.L().Error("list partners failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "partner/list-failed", "Error fetching partners")
		return
	}
	if partners == nil {
		partners = []models.User{}
	}
	RespondJSON(w, http.StatusOK, partners)
}

func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, role, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	partnerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-partner-id", "Invalid partner ID")
		return
	}

	// MCPs can inspect any partner; partners only themselves.
	if role != domain.RoleMCP && actorID != partnerID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "Not authorized")
		return
	}

	partner, err := h.svc.Get(r.Context(), partnerID)
	if err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("get partner failed", zap.Error(err), zap.String("partner_id", partnerID.String()))
		RespondError(w, r, http.StatusInternalServerError, "partner/read-failed", "Error fetching partner details")
		return
	}

	RespondJSON(w, http.StatusOK, partner)
}

func (h *PartnerHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	partnerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-partner-id", "Invalid partner ID")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	partner, err := h.svc.UpdateStatus(r.Context(), partnerID, req.Status)
	if err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("update partner status failed", zap.Error(err), zap.String("partner_id", partnerID.String()))
		RespondError(w, r, http.StatusInternalServerError, "partner/status-update-failed", "Error updating partner status")
		return
	}

	RespondJSON(w, http.StatusOK, partner)
}

func (h *PartnerHandler) Location(w http.ResponseWriter, r *http.Request) {
	partnerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-partner-id", "Invalid partner ID")
		return
	}

	address, err := h.svc.Location(r.Context(), partnerID)
	if err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("get partner location failed", zap.Error(err), zap.String("partner_id", partnerID.String()))
		RespondError(w, r, http.StatusInternalServerError, "partner/location-failed", "Error fetching partner location")
		return
	}

	RespondJSON(w, http.StatusOK, address)
}
