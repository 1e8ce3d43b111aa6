package handler

import (
	"net/http"

	"github.com/blues/ifs/internal/logic"
	"github.com/blues/ifs/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CampaignHandler struct {
	campaignLogic   *logic.CampaignLogic
	investmentLogic *logic.InvestmentLogic
	escrowLogic     *logic.EscrowLogic
}

func NewCampaignHandler(db *gorm.DB) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic:   logic.NewCampaignLogic(db),
		investmentLogic: logic.NewInvestmentLogic(db),
		escrowLogic:     logic.NewEscrowLogic(db),
	}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var campaign model.Campaign
	if err := c.ShouldBindJSON(&campaign); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.campaignLogic.CreateCampaign(&campaign); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "活动创建成功",
		"campaign": campaign,
	})
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	campaigns, err := h.campaignLogic.GetCampaigns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// GetCampaign 获取活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaignLogic.GetCampaign(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

// SubmitCampaign 提交审核
func (h *CampaignHandler) SubmitCampaign(c *gin.Context) {
	if err := h.campaignLogic.SubmitForReview(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "活动已提交审核"})
}

// ApproveCampaign 批准活动
func (h *CampaignHandler) ApproveCampaign(c *gin.Context) {
	var req struct {
		ApprovedBy string `json:"approved_by" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.campaignLogic.ApproveCampaign(c.Param("id"), req.ApprovedBy); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "活动批准成功，部署任务已入队"})
}

// CancelCampaign 取消活动
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	if err := h.campaignLogic.CancelCampaign(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "活动已取消"})
}

// GetCampaignInvestments 获取活动的投资列表
func (h *CampaignHandler) GetCampaignInvestments(c *gin.Context) {
	investments, err := h.investmentLogic.GetCampaignInvestments(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"investments": investments})
}

// GetCampaignEscrow 获取活动的托管记录
func (h *CampaignHandler) GetCampaignEscrow(c *gin.Context) {
	escrow, err := h.escrowLogic.GetEscrowByCampaign(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"escrow": escrow})
}
