package handlers

import (
	"log/slog"
	"net/http"

	"omiit/models"

	"github.com/gin-gonic/gin"
)

// respond writes the uniform envelope: statusCode plus the given fields.
func respond(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["statusCode"] = status
	c.JSON(status, body)
}

// respondError maps err onto the envelope. Internal causes are logged, never sent.
func respondError(c *gin.Context, err error) {
	status, message := models.StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	respond(c, status, gin.H{"message": message})
}
