package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/ifs/internal/model"
	"gorm.io/gorm"
)

// InvestmentLogic 投资业务逻辑
type InvestmentLogic struct {
	db *gorm.DB
}

// NewInvestmentLogic 创建投资业务逻辑
func NewInvestmentLogic(db *gorm.DB) *InvestmentLogic {
	return &InvestmentLogic{db: db}
}

// CreateInvestment 创建投资（待支付确认）
func (l *InvestmentLogic) CreateInvestment(investment *model.Investment) error {
	if investment.InvestorAddress == "" {
		return errors.New("投资人钱包地址不能为空")
	}
	if investment.Amount <= 0 {
		return errors.New("投资金额必须大于0")
	}

	var campaign model.Campaign
	if err := l.db.First(&campaign, "id = ?", investment.CampaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("活动不存在")
		}
		return err
	}
	if campaign.Status != model.CampaignStatusActive {
		return errors.New("活动不在进行中，无法投资")
	}
	if investment.Amount < campaign.MinInvestment {
		return fmt.Errorf("投资金额不能低于 %d ETB", campaign.MinInvestment)
	}
	if campaign.MaxInvestment > 0 && investment.Amount > campaign.MaxInvestment {
		return fmt.Errorf("投资金额不能超过 %d ETB", campaign.MaxInvestment)
	}

	investment.Id = model.NewId()
	investment.Status = model.InvestmentStatusPending
	if investment.PaymentMethod == "" {
		investment.PaymentMethod = "telebirr"
	}

	if err := l.db.Create(investment).Error; err != nil {
		return fmt.Errorf("创建投资失败: %w", err)
	}
	return nil
}

// ConfirmInvestment 支付确认: pending -> confirmed
// 确认与上链记录事件同事务写入
func (l *InvestmentLogic) ConfirmInvestment(id string) error {
	investment, err := l.GetInvestment(id)
	if err != nil {
		return err
	}
	if investment.Status == model.InvestmentStatusConfirmed {
		return nil
	}
	if investment.Status != model.InvestmentStatusPending {
		return fmt.Errorf("投资状态 %s 不能确认", investment.Status)
	}

	now := time.Now()
	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Investment{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":       model.InvestmentStatusConfirmed,
			"confirmed_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Create(model.NewOutboxEvent(model.EventInvestmentConfirmed, id)).Error
	})
}

// FailInvestment 支付失败: pending -> failed
func (l *InvestmentLogic) FailInvestment(id string) error {
	investment, err := l.GetInvestment(id)
	if err != nil {
		return err
	}
	if investment.Status != model.InvestmentStatusPending {
		return fmt.Errorf("投资状态 %s 不能标记失败", investment.Status)
	}
	return l.db.Model(&model.Investment{}).Where("id = ?", id).
		Update("status", model.InvestmentStatusFailed).Error
}

// GetInvestment 获取投资详情
func (l *InvestmentLogic) GetInvestment(id string) (*model.Investment, error) {
	var investment model.Investment
	if err := l.db.Preload("Campaign").First(&investment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("投资记录不存在")
		}
		return nil, fmt.Errorf("获取投资详情失败: %w", err)
	}
	return &investment, nil
}

// GetCampaignInvestments 获取活动的投资列表
func (l *InvestmentLogic) GetCampaignInvestments(campaignId string) ([]model.Investment, error) {
	var investments []model.Investment
	if err := l.db.Where("campaign_id = ?", campaignId).
		Order("created_at desc").Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("获取投资列表失败: %w", err)
	}
	return investments, nil
}

// GetInvestorInvestments 获取投资人的投资列表
func (l *InvestmentLogic) GetInvestorInvestments(investorAddress string) ([]model.Investment, error) {
	var investments []model.Investment
	if err := l.db.Where("investor_address = ?", investorAddress).
		Order("created_at desc").Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("获取投资列表失败: %w", err)
	}
	return investments, nil
}
