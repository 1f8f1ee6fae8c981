package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"sejour/internal/domain/shared/fault"
)

// respondError maps the domain failure taxonomy onto HTTP statuses:
// not-found 404, rule violations 400, authorization 403, everything
// else 500 with the detail kept out of the response body.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case fault.KindInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case fault.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		if logger != nil {
			logger.Error("request failed", "error", err, "path", c.FullPath())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
