package handler

import (
	"net/http"

	"github.com/blues/ifs/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NftHandler struct {
	nftLogic *logic.NftLogic
}

func NewNftHandler(db *gorm.DB) *NftHandler {
	return &NftHandler{
		nftLogic: logic.NewNftLogic(db),
	}
}

// GetCertificate 获取凭证详情
func (h *NftHandler) GetCertificate(c *gin.Context) {
	certificate, err := h.nftLogic.GetCertificate(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificate": certificate})
}

// GetOwnerCertificates 获取投资人持有的凭证
func (h *NftHandler) GetOwnerCertificates(c *gin.Context) {
	certificates, err := h.nftLogic.GetOwnerCertificates(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificates": certificates})
}

// RecordTransfer 记录凭证转让
func (h *NftHandler) RecordTransfer(c *gin.Context) {
	var req struct {
		FromAddress string `json:"from_address" binding:"required"`
		ToAddress   string `json:"to_address" binding:"required"`
		TxHash      string `json:"tx_hash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.nftLogic.RecordTransfer(c.Param("id"), req.FromAddress, req.ToAddress, req.TxHash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "转让记录成功"})
}
