package handler

import (
	"net/http"

	"github.com/blues/ifs/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type WalletHandler struct {
	walletLogic *logic.WalletLogic
}

func NewWalletHandler(db *gorm.DB) *WalletHandler {
	return &WalletHandler{
		walletLogic: logic.NewWalletLogic(db),
	}
}

// IssueNonce 签发登录随机数
func (h *WalletHandler) IssueNonce(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nonce, err := h.walletLogic.IssueNonce(req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":      nonce.Nonce,
		"expires_at": nonce.ExpiresAt,
	})
}

// ConsumeNonce 消费登录随机数
func (h *WalletHandler) ConsumeNonce(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Nonce         string `json:"nonce" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.walletLogic.ConsumeNonce(req.WalletAddress, req.Nonce); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "验证成功"})
}
