package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/services"
)

type WebhookHandler struct {
	Sync *services.OracleSyncService
}

func NewWebhookHandler(sync *services.OracleSyncService) *WebhookHandler {
	return &WebhookHandler{Sync: sync}
}

// PluggyWebhook — POST /api/webhooks/pluggy. Unknown event types come back
// 200: the dispatcher logs and no-ops on those.
func (h *WebhookHandler) PluggyWebhook(c *gin.Context) {
	var event models.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}
	if event.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook event: missing type"})
		return
	}

	if err := h.Sync.HandleWebhook(c.Request.Context(), event); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
