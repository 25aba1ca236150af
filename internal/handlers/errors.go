package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/middleware"
	"github.com/gin-gonic/gin"
)

// errorResponse is the JSON envelope for every rejected request.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	SessionID string `json:"sessionID,omitempty"`
	Status    string `json:"status,omitempty"`
}

// respondError maps an error kind to its HTTP status and writes the envelope.
// Expected kinds log at Warn; anything else is an Error and its detail is not exposed.
func respondError(c *gin.Context, logger *slog.Logger, err error, logMsg string) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status, resp.Code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, apperrors.ErrNotFound):
		status, resp.Code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		status, resp.Code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, apperrors.ErrInvalidState):
		status, resp.Code = http.StatusUnprocessableEntity, "INVALID_STATE"
	case errors.Is(err, apperrors.ErrForbidden):
		status, resp.Code = http.StatusForbidden, "FORBIDDEN"
	default:
		resp.Code = "INTERNAL_ERROR"
		resp.Error = "internal server error"
	}

	var stateErr *apperrors.SessionStateError
	if errors.As(err, &stateErr) {
		resp.SessionID = stateErr.SessionID
		resp.Status = stateErr.Status
	}

	if status >= http.StatusInternalServerError {
		logger.Error(logMsg, slog.String("error", err.Error()))
	} else {
		logger.Warn(logMsg, slog.String("error", err.Error()), slog.Int("status", status))
	}
	c.JSON(status, resp)
}

// bindError reports a request that failed gin binding.
func bindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request: " + err.Error(), Code: "VALIDATION_ERROR"})
}

// requireUserID fetches the authenticated caller or aborts with 401.
func requireUserID(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
