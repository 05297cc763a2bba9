package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/services"
)

type TokenHandler struct {
	Deploy *services.DeployService
	Sync   *services.OracleSyncService
}

func NewTokenHandler(deploy *services.DeployService, sync *services.OracleSyncService) *TokenHandler {
	return &TokenHandler{Deploy: deploy, Sync: sync}
}

// DeployToken — POST /api/deploy-token.
func (h *TokenHandler) DeployToken(c *gin.Context) {
	var params models.DeployParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.Deploy.DeployToken(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"proxy":          result.ProxyAddress,
		"implementation": result.ImplementationAddress,
		"txHash":         result.TxHash,
		"gasUsed":        result.GasUsed,
	})
}

// ConnectBank — POST /api/connect-bank/:tokenAddress.
func (h *TokenHandler) ConnectBank(c *gin.Context) {
	tokenAddress := c.Param("tokenAddress")

	conn, err := h.Sync.InitiateConnection(tokenAddress)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"connectUrl": conn.ConnectURL,
		"expiresAt":  conn.ExpiresAt,
	})
}
