package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/repositories"
)

type WalletHandler struct {
	Wallets repositories.WalletRepository
}

func NewWalletHandler(wallets repositories.WalletRepository) *WalletHandler {
	return &WalletHandler{Wallets: wallets}
}

// Me — GET /api/wallets/me (JWT protected).
func (h *WalletHandler) Me(c *gin.Context) {
	userID, ok := ctxUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	wallet, err := h.Wallets.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if wallet == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
		return
	}

	c.JSON(http.StatusOK, wallet)
}
