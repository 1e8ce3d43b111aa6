package logic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/ifs/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 登录随机数有效期
const nonceTTL = 10 * time.Minute

// WalletLogic 钱包登录随机数业务逻辑，防止签名重放
type WalletLogic struct {
	db *gorm.DB
}

// NewWalletLogic 创建钱包业务逻辑
func NewWalletLogic(db *gorm.DB) *WalletLogic {
	return &WalletLogic{db: db}
}

// IssueNonce 为钱包地址签发一次性随机数
func (l *WalletLogic) IssueNonce(walletAddress string) (*model.WalletNonce, error) {
	if walletAddress == "" {
		return nil, errors.New("钱包地址不能为空")
	}

	nonce := &model.WalletNonce{
		Id:            model.NewId(),
		WalletAddress: strings.ToLower(walletAddress),
		Nonce:         uuid.NewString(),
		ExpiresAt:     time.Now().Add(nonceTTL),
	}
	if err := l.db.Create(nonce).Error; err != nil {
		return nil, fmt.Errorf("签发随机数失败: %w", err)
	}
	return nonce, nil
}

// ConsumeNonce 校验并消费随机数，重复使用或过期都拒绝
func (l *WalletLogic) ConsumeNonce(walletAddress, value string) error {
	var nonce model.WalletNonce
	err := l.db.First(&nonce, "wallet_address = ? AND nonce = ?",
		strings.ToLower(walletAddress), value).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("随机数不存在")
		}
		return err
	}
	if !nonce.IsValid() {
		return errors.New("随机数已使用或已过期")
	}

	now := time.Now()
	// used=false 条件保证并发消费只有一个成功
	result := l.db.Model(&model.WalletNonce{}).
		Where("id = ? AND used = ?", nonce.Id, false).
		Updates(map[string]interface{}{"used": true, "used_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("随机数已使用或已过期")
	}
	return nil
}

// PurgeExpired 清理过期随机数
func (l *WalletLogic) PurgeExpired() error {
	return l.db.Where("expires_at < ?", time.Now()).Delete(&model.WalletNonce{}).Error
}
