package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/services"
)

type WhatsAppHandler struct {
	Service *services.WhatsAppService
}

func NewWhatsAppHandler(service *services.WhatsAppService) *WhatsAppHandler {
	return &WhatsAppHandler{Service: service}
}

// HandleMessage — POST /whatsapp. Internal failures degrade to a generic
// Portuguese reply; the channel never sees stack traces or identifiers.
func (h *WhatsAppHandler) HandleMessage(c *gin.Context) {
	var req struct {
		SessionID   string `json:"sessionId" binding:"required"`
		PhoneNumber string `json:"phoneNumber" binding:"required"`
		Text        string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.Service.HandleMessage(req.SessionID, req.PhoneNumber, req.Text)
	if err != nil {
		log.Printf("[whatsapp][handler] session=%s err=%v", req.SessionID, err)
		c.JSON(http.StatusOK, services.Reply{SessionEnd: true, Message: "Erro no sistema"})
		return
	}

	c.JSON(http.StatusOK, reply)
}
