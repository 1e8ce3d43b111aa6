package handler

import (
	"net/http"

	"github.com/blues/ifs/internal/logic"
	"github.com/blues/ifs/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CompanyHandler struct {
	companyLogic *logic.CompanyLogic
}

func NewCompanyHandler(db *gorm.DB) *CompanyHandler {
	return &CompanyHandler{
		companyLogic: logic.NewCompanyLogic(db),
	}
}

// CreateCompany 创建公司
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var company model.Company
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.companyLogic.CreateCompany(&company); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "公司创建成功",
		"company": company,
	})
}

// GetCompanies 获取公司列表
func (h *CompanyHandler) GetCompanies(c *gin.Context) {
	companies, err := h.companyLogic.GetCompanies()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// GetCompany 获取公司详情
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	company, err := h.companyLogic.GetCompany(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company})
}

// VerifyCompany 审核通过公司资质
func (h *CompanyHandler) VerifyCompany(c *gin.Context) {
	if err := h.companyLogic.VerifyCompany(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "公司审核通过"})
}

// BindWallet 绑定钱包地址
func (h *CompanyHandler) BindWallet(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		VcHash        string `json:"vc_hash"`
		IpfsHash      string `json:"ipfs_hash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.companyLogic.BindWallet(c.Param("id"), req.WalletAddress, req.VcHash, req.IpfsHash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "钱包绑定成功，注册任务已入队"})
}
