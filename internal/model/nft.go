package model

import (
	"time"
)

// NFTShareCertificate NFT股权凭证，与成功投资一一对应
// 双账本存储: PostgreSQL + NFTShareCertificate 合约
type NFTShareCertificate struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvestmentId string      `json:"investment_id" gorm:"size:36;uniqueIndex;not null"`
	Investment   *Investment `json:"investment,omitempty" gorm:"foreignKey:InvestmentId"`
	CampaignId   string      `json:"campaign_id" gorm:"size:36;index;not null"`

	OwnerAddress string `json:"owner_address" gorm:"size:42;index;not null"`

	TokenId         string `json:"token_id" gorm:"size:100;uniqueIndex"`
	ContractAddress string `json:"contract_address" gorm:"size:42"`

	InvestmentAmount int64  `json:"investment_amount" gorm:"not null"`
	Shares           int64  `json:"shares" gorm:"default:0"`
	VotingPower      int64  `json:"voting_power" gorm:"default:0"`
	TokenURI         string `json:"token_uri" gorm:"size:500"`

	MintTxHash string     `json:"mint_tx_hash" gorm:"size:66"`
	MintedAt   *time.Time `json:"minted_at"`

	Transferred   bool  `json:"transferred" gorm:"default:false"`
	TransferCount int64 `json:"transfer_count" gorm:"default:0"`
}

// TableName 自定义表名
func (NFTShareCertificate) TableName() string {
	return "nft_share_certificates"
}

// NFTTransferHistory NFT转让历史记录
type NFTTransferHistory struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`

	NftId string `json:"nft_id" gorm:"size:36;index;not null"`

	FromAddress    string `json:"from_address" gorm:"size:42"`
	ToAddress      string `json:"to_address" gorm:"size:42"`
	TransferTxHash string `json:"transfer_tx_hash" gorm:"size:66"`
}

// TableName 自定义表名
func (NFTTransferHistory) TableName() string {
	return "nft_transfer_history"
}
