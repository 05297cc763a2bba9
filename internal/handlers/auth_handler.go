package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// Verify — POST /api/auth/verify. Any verification failure is a flat 401;
// callers learn nothing about which check failed.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phoneNumber" binding:"required"`
		Token       string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wallet, err := h.Auth.VerifyToken(req.PhoneNumber, req.Token)
	if err != nil {
		log.Printf("[auth][verify] phone=%s err=%v", req.PhoneNumber, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		return
	}

	accessToken, err := h.Auth.IssueAccessToken(wallet.UserID)
	if err != nil {
		log.Printf("[auth][verify] issue access token: %v", err)
	}

	resp := gin.H{
		"success": true,
		"userId":  wallet.UserID,
		"address": wallet.Address,
	}
	if accessToken != "" {
		resp["token"] = accessToken
	}
	c.JSON(http.StatusOK, resp)
}
