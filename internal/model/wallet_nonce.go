package model

import (
	"time"
)

// WalletNonce 钱包登录随机数，防止签名重放
type WalletNonce struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`

	WalletAddress string     `json:"wallet_address" gorm:"size:42;index:idx_wallet_nonce"`
	Nonce         string     `json:"nonce" gorm:"size:64;uniqueIndex;index:idx_wallet_nonce"`
	ExpiresAt     time.Time  `json:"expires_at" gorm:"index"`
	Used          bool       `json:"used" gorm:"default:false"`
	UsedAt        *time.Time `json:"used_at"`
}

// TableName 自定义表名
func (WalletNonce) TableName() string {
	return "wallet_nonces"
}

// IsExpired 是否已过期
func (n *WalletNonce) IsExpired() bool {
	return time.Now().After(n.ExpiresAt)
}

// IsValid 是否有效（未使用且未过期）
func (n *WalletNonce) IsValid() bool {
	return !n.Used && !n.IsExpired()
}
