package model

import (
	"time"
)

// Company 发行方公司模型
// 双账本存储: PostgreSQL + 区块链 IssuerRegistry 合约
type Company struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Name             string `json:"name" gorm:"not null" binding:"required"`
	TinNumber        string `json:"tin_number" gorm:"uniqueIndex;size:50"`
	Sector           string `json:"sector"`
	RegistrationYear int    `json:"registration_year"`
	Verified         bool   `json:"verified" gorm:"default:false"`

	// 钱包与凭证
	WalletAddress    string `json:"wallet_address" gorm:"size:42;index"`
	VcHash           string `json:"vc_hash" gorm:"size:255"`
	IpfsDocumentHash string `json:"ipfs_document_hash" gorm:"size:100"`

	// 区块链信息
	RegisteredOnBlockchain bool       `json:"registered_on_blockchain" gorm:"default:false"`
	BlockchainTxHash       string     `json:"blockchain_tx_hash" gorm:"size:66"`
	BlockchainRegisteredAt *time.Time `json:"blockchain_registered_at"`

	// 排他锁: 同一发行方同时只能有一个进行中的活动
	HasActiveCampaign bool   `json:"has_active_campaign" gorm:"default:false"`
	ActiveCampaignId  string `json:"active_campaign_id" gorm:"size:36"`
	LastCampaignYear  int    `json:"last_campaign_year"`
}

// TableName 自定义表名
func (Company) TableName() string {
	return "companies"
}

// NeedsRegistration 是否需要上链注册
func (c *Company) NeedsRegistration() bool {
	return c.WalletAddress != "" && !c.RegisteredOnBlockchain
}
