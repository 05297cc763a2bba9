package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/services"
)

type HealthHandler struct {
	DB         *sql.DB
	Aggregator services.BankAggregator
	Sender     services.TextSender
	Relayer    *services.RelayerClient
	DeployMode string
}

func NewHealthHandler(
	db *sql.DB,
	aggregator services.BankAggregator,
	sender services.TextSender,
	relayer *services.RelayerClient,
	deployMode string,
) *HealthHandler {
	return &HealthHandler{
		DB:         db,
		Aggregator: aggregator,
		Sender:     sender,
		Relayer:    relayer,
		DeployMode: deployMode,
	}
}

// Health — GET /health: which collaborators are configured/reachable.
func (h *HealthHandler) Health(c *gin.Context) {
	dbOK := h.DB != nil && h.DB.Ping() == nil

	status := "healthy"
	if !dbOK {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"services": gin.H{
			"database": dbOK,
			"pluggy":   h.Aggregator != nil && h.Aggregator.Configured(),
			"whatsapp": h.Sender != nil && h.Sender.Configured(),
			"oracle":   h.Relayer.OracleConfigured(),
			"deployer": h.DeployMode,
		},
	})
}
