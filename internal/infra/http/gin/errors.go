package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/app/apperr"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotAuthenticated:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error", "kind"}. Store failures hide their cause.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	msg := apperr.MessageOf(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "route", c.FullPath(), "error", err)
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": string(kind)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "kind": string(apperr.KindValidation)})
}

func unavailable(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": what + " unavailable"})
}
