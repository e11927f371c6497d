package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
	"github.com/mcpops/portal/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletHandler exposes the caller's wallet: balance, history, top-ups,
// withdrawals, and MCP transfers.
type WalletHandler struct {
	svc *service.WalletService
}

func NewWalletHandler(svc *service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

type walletResponse struct {
	Balance      decimal.Decimal      `json:"balance"`
	Transactions []models.WalletEntry `json:"transactions"`
}

func (h *WalletHandler) respondWallet(w http.ResponseWriter, r *http.Request, status int, userID uuid.UUID) {
	user, entries, err := h.svc.GetWallet(r.Context(), userID)
	if err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("get wallet failed", zap.Error(err), zap.String("user_id", userID.String()))
		RespondError(w, r, http.StatusInternalServerError, "wallet/read-failed", "Failed to fetch wallet")
		return
	}
	if entries == nil {
		entries = []models.WalletEntry{}
	}
	RespondJSON(w, status, walletResponse{Balance: user.Balance(), Transactions: entries})
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	h.respondWallet(w, r, http.StatusOK, actorID)
}

func (h *WalletHandler) AddFunds(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	if err := h.svc.AddFunds(r.Context(), actorID, domain.FromDecimal(req.Amount), req.Description); err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("add funds failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "wallet/credit-failed", "Failed to add funds")
		return
	}

	h.respondWallet(w, r, http.StatusOK, actorID)
}

func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	if err := h.svc.Withdraw(r.Context(), actorID, domain.FromDecimal(req.Amount), req.Description); err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("withdraw failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "wallet/debit-failed", "Failed to withdraw funds")
		return
	}

	h.respondWallet(w, r, http.StatusOK, actorID)
}

func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		PartnerID   string          `json:"partnerId"`
		Amount      decimal.Decimal `json:"amount"`
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

	if err := h.svc.Transfer(r.Context(), actorID, partnerID, domain.FromDecimal(req.Amount), req.Description); err != nil {
		if s, pType, msg, ok := mapServiceError(err); ok {
			RespondError(w, r, s, pType, msg)
			return
		}
		zap.L().Error("transfer failed", zap.Error(err),
			zap.String("user_id", actorID.String()), zap.String("partner_id", partnerID.String()))
		RespondError(w, r, http.StatusInternalServerError, "wallet/transfer-failed", "Transfer failed")
		return
	}

	h.respondWallet(w, r, http.StatusOK, actorID)
}
