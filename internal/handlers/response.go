package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/dto"
	"github.com/SscSPs/user_auth_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respond writes the success envelope.
func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, dto.NewAPIResponse(status, data, message))
}

// writeError is the single place where errors become the error envelope.
// Internal details are logged, never returned.
func writeError(c *gin.Context, err error) {
	status := apperrors.StatusFor(err)
	message, details := errorMessage(status, err)

	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", slog.Int("status", status), slog.String("error", err.Error()))
	} else {
		logger.Warn("Request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(status, message, details...))
}

func errorMessage(status int, err error) (string, []string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" && status < http.StatusInternalServerError {
		return appErr.Message, appErr.Details
	}
	switch {
	case status >= http.StatusInternalServerError:
		return "Internal server error", nil
	case errors.Is(err, apperrors.ErrExpiredToken):
		return "Token has expired", nil
	case errors.Is(err, apperrors.ErrTokenReuseDetected):
		return "Refresh token is expired or used", nil
	case errors.Is(err, apperrors.ErrInvalidToken), errors.Is(err, apperrors.ErrUnauthorized):
		return "Unauthorized request", nil
	case errors.Is(err, apperrors.ErrNotFound):
		return "User does not exist", nil
	case errors.Is(err, apperrors.ErrDuplicate):
		return "Resource already exists", nil
	case errors.Is(err, apperrors.ErrMediaUpload):
		return "File upload failed", nil
	default:
		return "Invalid request", nil
	}
}
