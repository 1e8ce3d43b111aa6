package model

import (
	"time"
)

// EscrowStatus 托管状态
type EscrowStatus string

const (
	EscrowStatusEscrowed EscrowStatus = "escrowed" // 托管中
	EscrowStatusReleased EscrowStatus = "released" // 已释放
	EscrowStatusRefunded EscrowStatus = "refunded" // 已退款
)

// IsTerminal 是否为终止状态
func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded
}

// FundEscrow 资金托管记录，与活动一一对应
type FundEscrow struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId string    `json:"campaign_id" gorm:"size:36;uniqueIndex;not null"`
	Campaign   *Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignId"`

	TotalEscrowed int64        `json:"total_escrowed" gorm:"default:0"`
	Status        EscrowStatus `json:"status" gorm:"default:'escrowed';index"`

	// 释放信息
	FundsReleased     bool       `json:"funds_released" gorm:"default:false"`
	FundsReleasedAt   *time.Time `json:"funds_released_at"`
	ReleaseTxHash     string     `json:"release_tx_hash" gorm:"size:66"`
	ReleasedToAddress string     `json:"released_to_address" gorm:"size:42"`

	// 退款信息
	RefundInitiated bool       `json:"refund_initiated" gorm:"default:false"`
	RefundCompleted bool       `json:"refund_completed" gorm:"default:false"`
	RefundTxHash    string     `json:"refund_tx_hash" gorm:"size:66"`
	RefundedAt      *time.Time `json:"refunded_at"`
}

// TableName 自定义表名
func (FundEscrow) TableName() string {
	return "fund_escrows"
}

// CanReleaseFunds 是否可释放资金给发行方
// 与 CanRefund 互斥: 两者都要求托管中，且分别要求活动成功/失败
func (e *FundEscrow) CanReleaseFunds() bool {
	return e.Status == EscrowStatusEscrowed &&
		!e.FundsReleased &&
		e.Campaign != nil &&
		e.Campaign.IsSuccessful() &&
		e.Campaign.Status == CampaignStatusSuccessful
}

// CanRefund 是否应退款给投资人
func (e *FundEscrow) CanRefund() bool {
	return e.Status == EscrowStatusEscrowed &&
		!e.FundsReleased &&
		e.Campaign != nil &&
		(e.Campaign.Status == CampaignStatusFailed || e.Campaign.Status == CampaignStatusCancelled)
}

// RefundTransaction 单个投资人的退款记录，只追加不修改
// 每个 (托管, 投资人) 组合只允许一条记录
type RefundTransaction struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`

	EscrowId        string `json:"escrow_id" gorm:"size:36;index:idx_refund_escrow_investor,unique;not null"`
	InvestorAddress string `json:"investor_address" gorm:"size:42;index:idx_refund_escrow_investor,unique;not null"`

	Amount     int64     `json:"amount" gorm:"not null"`
	TxHash     string    `json:"tx_hash" gorm:"size:66;not null"`
	RefundedAt time.Time `json:"refunded_at"`
}

// TableName 自定义表名
func (RefundTransaction) TableName() string {
	return "refund_transactions"
}
