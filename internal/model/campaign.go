package model

import (
	"time"
)

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusDraft      CampaignStatus = "draft"      // 草稿
	CampaignStatusPending    CampaignStatus = "pending"    // 待审核
	CampaignStatusApproved   CampaignStatus = "approved"   // 已批准（待上链）
	CampaignStatusActive     CampaignStatus = "active"     // 进行中
	CampaignStatusSuccessful CampaignStatus = "successful" // 成功
	CampaignStatusFailed     CampaignStatus = "failed"     // 失败
	CampaignStatusCancelled  CampaignStatus = "cancelled"  // 已取消
)

// campaignTransitions 活动状态机的合法转移
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusDraft:    {CampaignStatusPending},
	CampaignStatusPending:  {CampaignStatusApproved, CampaignStatusCancelled},
	CampaignStatusApproved: {CampaignStatusActive, CampaignStatusCancelled},
	CampaignStatusActive:   {CampaignStatusSuccessful, CampaignStatusFailed, CampaignStatusCancelled},
}

// IsTerminal 是否为终止状态
func (s CampaignStatus) IsTerminal() bool {
	switch s {
	case CampaignStatusSuccessful, CampaignStatusFailed, CampaignStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 判断状态转移是否合法
func (s CampaignStatus) CanTransitionTo(to CampaignStatus) bool {
	for _, next := range campaignTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Campaign 募资活动模型
// 双账本存储: PostgreSQL + 区块链 CampaignFactory/CampaignImplementation 合约
type Campaign struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompanyId string   `json:"company_id" gorm:"size:36;index;not null"`
	Company   *Company `json:"company,omitempty" gorm:"foreignKey:CompanyId"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`

	// 募资信息（单位: ETB）
	FundingGoal      int64   `json:"funding_goal" gorm:"not null" binding:"required,min=1000"`
	CurrentFunding   int64   `json:"current_funding" gorm:"default:0"`
	MinInvestment    int64   `json:"min_investment" gorm:"default:100"`
	MaxInvestment    int64   `json:"max_investment" gorm:"default:0"`
	Duration         int     `json:"duration" binding:"min=30,max=180"` // 天
	SuccessThreshold float64 `json:"success_threshold" gorm:"default:75"`

	// 状态
	Status    CampaignStatus `json:"status" gorm:"default:'draft';index"`
	StartDate *time.Time     `json:"start_date"`
	EndDate   *time.Time     `json:"end_date"`

	// 审核信息
	Approved   bool       `json:"approved" gorm:"default:false"`
	ApprovedAt *time.Time `json:"approved_at"`
	ApprovedBy string     `json:"approved_by" gorm:"size:36"`

	// 区块链信息
	SmartContractAddress string     `json:"smart_contract_address" gorm:"size:42;index"`
	DeploymentTxHash     string     `json:"deployment_tx_hash" gorm:"size:66"`
	DeployedOnBlockchain bool       `json:"deployed_on_blockchain" gorm:"default:false"`
	BlockchainDeployedAt *time.Time `json:"blockchain_deployed_at"`
	IpfsDocumentHash     string     `json:"ipfs_document_hash" gorm:"size:100"`

	// 资金释放
	FundsReleased      bool       `json:"funds_released" gorm:"default:false"`
	FundsReleasedAt    *time.Time `json:"funds_released_at"`
	FundsReleaseTxHash string     `json:"funds_release_tx_hash" gorm:"size:66"`

	// 统计
	InvestorCount     int64 `json:"investor_count" gorm:"default:0"`
	TotalSharesIssued int64 `json:"total_shares_issued" gorm:"default:0"`
}

// TableName 自定义表名
func (Campaign) TableName() string {
	return "campaigns"
}

// ProgressPercentage 募资完成百分比
func (c *Campaign) ProgressPercentage() float64 {
	if c.FundingGoal <= 0 {
		return 0
	}
	return float64(c.CurrentFunding) / float64(c.FundingGoal) * 100
}

// IsSuccessful 是否达到成功阈值
func (c *Campaign) IsSuccessful() bool {
	return c.ProgressPercentage() >= c.SuccessThreshold
}

// CertificateEligible 凭证铸造条件: 已成功落点，或仍在进行中但已达成功阈值
func (c *Campaign) CertificateEligible() bool {
	return c.Status == CampaignStatusSuccessful ||
		(c.Status == CampaignStatusActive && c.IsSuccessful())
}

// CanDeployToBlockchain 是否满足上链部署条件
func (c *Campaign) CanDeployToBlockchain() bool {
	return c.Status == CampaignStatusApproved &&
		!c.DeployedOnBlockchain &&
		c.Company != nil &&
		c.Company.RegisteredOnBlockchain
}
