package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcpops/portal/internal/api/middleware"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
	"github.com/mcpops/portal/internal/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler covers registration, login, and profile access.
type AuthHandler struct {
	store    service.QueryStore
	tokenTTL time.Duration
}

func NewAuthHandler(store service.QueryStore, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthHandler{store: store, tokenTTL: tokenTTL}
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string         `json:"name"`
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Phone    string         `json:"phone"`
		Address  models.Address `json:"address"`
		Role     string         `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		RespondError(w, r, http.StatusBadRequest, "request/validation", "name and email are required")
		return
	}
	if len(req.Password) < 6 {
		RespondError(w, r, http.StatusBadRequest, "request/validation", "password must be at least 6 characters")
		return
	}
	if !domain.ValidRole(req.Role) {
		RespondError(w, r, http.StatusBadRequest, "request/validation", "role must be mcp or partner")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("hash password failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/register-failed", "Failed to register")
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		Address:      req.Address,
		Role:         req.Role,
		Status:       domain.AccountStatusActive,
	}
	if err := h.store.Queries().CreateUser(r.Context(), user); err != nil {
		if status, pType, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("create user failed", zap.Error(err), zap.String("email", req.Email))
		RespondError(w, r, http.StatusInternalServerError, "auth/register-failed", "Failed to register")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		zap.L().Error("sign token failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/token-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	user, err := h.store.Queries().GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			RespondError(w, r, http.StatusUnauthorized, "auth/invalid-credentials", "Invalid email or password")
			return
		}
		zap.L().Error("login lookup failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/login-failed", "Failed to log in")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-credentials", "Invalid email or password")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		zap.L().Error("sign token failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/token-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	user, err := h.store.Queries().GetUser(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			RespondError(w, r, http.StatusNotFound, "resource/not-found", "Account not found")
			return
		}
		zap.L().Error("load profile failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "auth/profile-failed", "Failed to load profile")
		return
	}

	RespondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Name    string         `json:"name"`
		Phone   string         `json:"phone"`
		Address models.Address `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if req.Name == "" {
		RespondError(w, r, http.StatusBadRequest, "request/validation", "name is required")
		return
	}

	rows, err := h.store.Queries().UpdateUserProfile(r.Context(), actorID, req.Name, req.Phone, req.Address)
	if err != nil {
		zap.L().Error("update profile failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "auth/profile-failed", "Failed to update profile")
		return
	}
	if rows == 0 {
		RespondError(w, r, http.StatusNotFound, "resource/not-found", "Account not found")
		return
	}

	user, err := h.store.Queries().GetUser(r.Context(), actorID)
	if err != nil {
		zap.L().Error("reload profile failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "auth/profile-failed", "Failed to load profile")
		return
	}
	RespondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"iss":     middleware.JWTIssuer(),
		"aud":     middleware.JWTAudience(),
		"sub":     user.ID.String(),
		"iat":     now.Unix(),
		"nbf":     now.Add(-30 * time.Second).Unix(),
		"exp":     now.Add(h.tokenTTL).Unix(),
	})
	return token.SignedString(middleware.JWTSecret())
}
