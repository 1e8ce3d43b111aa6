package logic

import (
	"errors"
	"fmt"

	"github.com/blues/ifs/internal/model"
	"gorm.io/gorm"
)

// EscrowLogic 资金托管业务逻辑
type EscrowLogic struct {
	db *gorm.DB
}

// NewEscrowLogic 创建托管业务逻辑
func NewEscrowLogic(db *gorm.DB) *EscrowLogic {
	return &EscrowLogic{db: db}
}

// GetEscrowByCampaign 获取活动的托管记录
func (l *EscrowLogic) GetEscrowByCampaign(campaignId string) (*model.FundEscrow, error) {
	var escrow model.FundEscrow
	if err := l.db.Preload("Campaign").First(&escrow, "campaign_id = ?", campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("托管记录不存在")
		}
		return nil, fmt.Errorf("获取托管记录失败: %w", err)
	}
	return &escrow, nil
}

// GetRefunds 获取托管的退款流水
func (l *EscrowLogic) GetRefunds(escrowId string) ([]model.RefundTransaction, error) {
	var refunds []model.RefundTransaction
	if err := l.db.Where("escrow_id = ?", escrowId).
		Order("created_at asc").Find(&refunds).Error; err != nil {
		return nil, fmt.Errorf("获取退款流水失败: %w", err)
	}
	return refunds, nil
}
