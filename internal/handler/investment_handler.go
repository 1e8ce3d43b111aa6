package handler

import (
	"net/http"

	"github.com/blues/ifs/internal/logic"
	"github.com/blues/ifs/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type InvestmentHandler struct {
	investmentLogic *logic.InvestmentLogic
}

func NewInvestmentHandler(db *gorm.DB) *InvestmentHandler {
	return &InvestmentHandler{
		investmentLogic: logic.NewInvestmentLogic(db),
	}
}

// CreateInvestment 创建投资
func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	var investment model.Investment
	if err := c.ShouldBindJSON(&investment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.investmentLogic.CreateInvestment(&investment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "投资创建成功，等待支付确认",
		"investment": investment,
	})
}

// GetInvestment 获取投资详情
func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	investment, err := h.investmentLogic.GetInvestment(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"investment": investment})
}

// ConfirmInvestment 支付确认
func (h *InvestmentHandler) ConfirmInvestment(c *gin.Context) {
	if err := h.investmentLogic.ConfirmInvestment(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "投资确认成功，上链任务已入队"})
}

// FailInvestment 支付失败
func (h *InvestmentHandler) FailInvestment(c *gin.Context) {
	if err := h.investmentLogic.FailInvestment(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "投资已标记为失败"})
}

// GetInvestorInvestments 获取投资人的投资列表
func (h *InvestmentHandler) GetInvestorInvestments(c *gin.Context) {
	investments, err := h.investmentLogic.GetInvestorInvestments(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"investments": investments})
}
