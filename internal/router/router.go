package router

import (
	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/handler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "issuer-funding-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 公司相关路由
		companyHandler := handler.NewCompanyHandler(db)
		companies := v1.Group("/companies")
		{
			companies.POST("", companyHandler.CreateCompany)
			companies.GET("", companyHandler.GetCompanies)
			companies.GET("/:id", companyHandler.GetCompany)
			companies.POST("/:id/verify", companyHandler.VerifyCompany)
			companies.POST("/:id/wallet", companyHandler.BindWallet)
		}

		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(db)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.POST("/:id/submit", campaignHandler.SubmitCampaign)
			campaigns.POST("/:id/approve", campaignHandler.ApproveCampaign)
			campaigns.DELETE("/:id", campaignHandler.CancelCampaign)
			campaigns.GET("/:id/investments", campaignHandler.GetCampaignInvestments)
			campaigns.GET("/:id/escrow", campaignHandler.GetCampaignEscrow)
		}

		// 投资相关路由
		investmentHandler := handler.NewInvestmentHandler(db)
		investments := v1.Group("/investments")
		{
			investments.POST("", investmentHandler.CreateInvestment)
			investments.GET("/:id", investmentHandler.GetInvestment)
			investments.POST("/:id/confirm", investmentHandler.ConfirmInvestment)
			investments.POST("/:id/fail", investmentHandler.FailInvestment)
		}
		v1.GET("/investors/:address/investments", investmentHandler.GetInvestorInvestments)

		// NFT凭证相关路由
		nftHandler := handler.NewNftHandler(db)
		certificates := v1.Group("/certificates")
		{
			certificates.GET("/:id", nftHandler.GetCertificate)
			certificates.POST("/:id/transfer", nftHandler.RecordTransfer)
		}
		v1.GET("/investors/:address/certificates", nftHandler.GetOwnerCertificates)

		// 任务失败队列（运维）
		taskHandler := handler.NewTaskHandler(db)
		tasks := v1.Group("/tasks")
		{
			tasks.GET("/failures", taskHandler.GetFailures)
			tasks.POST("/failures/:id/retry", taskHandler.RetriggerFailure)
		}

		// 钱包登录随机数
		walletHandler := handler.NewWalletHandler(db)
		wallet := v1.Group("/wallet")
		{
			wallet.POST("/nonce", walletHandler.IssueNonce)
			wallet.POST("/verify", walletHandler.ConsumeNonce)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
