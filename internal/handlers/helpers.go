package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/errs"
)

// respondServiceError — one place mapping the error taxonomy to HTTP codes.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrConfiguration):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrTransientExternal):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream service failed"})
	default:
		// Protocol errors and anything unexpected: log upstream, stay generic here.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func ctxUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
