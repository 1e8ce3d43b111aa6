package model

import (
	"time"
)

// InvestmentStatus 投资状态
type InvestmentStatus string

const (
	InvestmentStatusPending   InvestmentStatus = "pending"   // 待确认
	InvestmentStatusConfirmed InvestmentStatus = "confirmed" // 已确认
	InvestmentStatusFailed    InvestmentStatus = "failed"    // 失败
	InvestmentStatusRefunded  InvestmentStatus = "refunded"  // 已退款
)

// Investment 投资记录模型
// 双账本存储: PostgreSQL + 活动合约 recordInvestment
type Investment struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId string    `json:"campaign_id" gorm:"size:36;index;not null"`
	Campaign   *Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignId"`

	// 投资人信息
	InvestorAddress string `json:"investor_address" gorm:"size:42;index;not null"`
	InvestorName    string `json:"investor_name"`

	// 投资信息（单位: ETB）
	Amount        int64            `json:"amount" gorm:"not null" binding:"required,min=1"`
	PaymentMethod string           `json:"payment_method" gorm:"default:'telebirr'"`
	Status        InvestmentStatus `json:"status" gorm:"default:'pending';index"`
	ConfirmedAt   *time.Time       `json:"confirmed_at"`
	RefundedAt    *time.Time       `json:"refunded_at"`

	// 区块链信息
	BlockchainTxHash     string     `json:"blockchain_tx_hash" gorm:"size:66"`
	BlockchainRecordedAt *time.Time `json:"blockchain_recorded_at"`

	// NFT凭证
	NftMinted  bool   `json:"nft_minted" gorm:"default:false"`
	NftTokenId string `json:"nft_token_id" gorm:"size:100"`
}

// TableName 自定义表名
func (Investment) TableName() string {
	return "investments"
}

// RecordedOnBlockchain 是否已上链记录
func (i *Investment) RecordedOnBlockchain() bool {
	return i.BlockchainTxHash != ""
}

// Shares 对应股份数
func (i *Investment) Shares() int64 {
	return SharesForAmount(i.Amount)
}
