package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mcpops/portal/internal/api/middleware"
	"github.com/mcpops/portal/internal/api/problem"
	"github.com/mcpops/portal/internal/models"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestActor(r *http.Request) (uuid.UUID, string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, "", errors.New("missing user in auth context")
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, "", errors.New("invalid user_id in auth context")
	}

	return actorID, middleware.UserRoleFromContext(r.Context()), nil
}

// mapServiceError translates service sentinels into HTTP problem responses.
func mapServiceError(err error) (status int, problemType, message string, ok bool) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "request/validation", err.Error(), true
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusBadRequest, "wallet/insufficient-funds", "Insufficient balance", true
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "auth/insufficient-permissions", "Not authorized", true
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "resource/not-found", err.Error(), true
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict, "order/invalid-transition", err.Error(), true
	default:
		return 0, "", "", false
	}
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}
