package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/handlers"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	tokenHandler *handlers.TokenHandler,
	webhookHandler *handlers.WebhookHandler,
	whatsappHandler *handlers.WhatsAppHandler,
	authHandler *handlers.AuthHandler,
	walletHandler *handlers.WalletHandler,
	healthHandler *handlers.HealthHandler,
	jwtSecret []byte,
) *gin.Engine {

	// ---- public
	r.GET("/health", healthHandler.Health)
	r.POST("/whatsapp", whatsappHandler.HandleMessage)

	api := r.Group("/api")
	{
		api.POST("/deploy-token", tokenHandler.DeployToken)
		api.POST("/connect-bank/:tokenAddress", tokenHandler.ConnectBank)
		api.POST("/webhooks/pluggy", webhookHandler.PluggyWebhook)
		api.POST("/auth/verify", authHandler.Verify)
	}

	// ---- protected (JWT issued by /api/auth/verify)
	wallets := r.Group("/api/wallets", middleware.AuthMiddleware(jwtSecret))
	{
		wallets.GET("/me", walletHandler.Me)
	}

	return r
}
