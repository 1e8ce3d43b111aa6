package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/model"
	"gorm.io/gorm"
)

// CampaignLogic 募资活动业务逻辑
// 状态转移只允许状态机定义的边，出站事件与状态变更同事务写入。
type CampaignLogic struct {
	db *gorm.DB
}

// NewCampaignLogic 创建活动业务逻辑
func NewCampaignLogic(db *gorm.DB) *CampaignLogic {
	return &CampaignLogic{db: db}
}

// CreateCampaign 创建活动（草稿）
func (c *CampaignLogic) CreateCampaign(campaign *model.Campaign) error {
	if err := c.validateCampaign(campaign); err != nil {
		return err
	}

	var company model.Company
	if err := c.db.First(&company, "id = ?", campaign.CompanyId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("公司不存在")
		}
		return err
	}

	campaign.Id = model.NewId()
	campaign.Status = model.CampaignStatusDraft
	campaign.CurrentFunding = 0
	if campaign.SuccessThreshold <= 0 {
		campaign.SuccessThreshold = 75
	}

	if err := c.db.Create(campaign).Error; err != nil {
		return fmt.Errorf("创建活动失败: %w", err)
	}
	return nil
}

func (c *CampaignLogic) validateCampaign(campaign *model.Campaign) error {
	if campaign.Title == "" {
		return errors.New("活动标题不能为空")
	}
	if campaign.FundingGoal < 1000 {
		return errors.New("募资目标不能低于1000 ETB")
	}
	if campaign.Duration < 30 || campaign.Duration > 180 {
		return errors.New("活动周期必须在30到180天之间")
	}
	if campaign.MaxInvestment > 0 && campaign.MaxInvestment < campaign.MinInvestment {
		return errors.New("最大投资额不能小于最小投资额")
	}
	return nil
}

// SubmitForReview 提交审核: draft -> pending
func (c *CampaignLogic) SubmitForReview(id string) error {
	return c.transition(id, model.CampaignStatusPending, nil)
}

// ApproveCampaign 批准活动: pending -> approved
// 发行方必须已通过资质审核且没有进行中的活动（排他锁）。
// 同一事务内创建托管记录并写入部署事件。
func (c *CampaignLogic) ApproveCampaign(id, approvedBy string) error {
	campaign, err := c.GetCampaign(id)
	if err != nil {
		return err
	}
	if !campaign.Status.CanTransitionTo(model.CampaignStatusApproved) {
		return fmt.Errorf("活动状态 %s 不能批准", campaign.Status)
	}
	if campaign.Company == nil {
		return errors.New("公司不存在")
	}
	if !campaign.Company.Verified {
		return errors.New("公司资质未通过审核")
	}
	if campaign.Company.HasActiveCampaign {
		return errors.New("公司已有进行中的活动")
	}

	now := time.Now()
	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Campaign{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":      model.CampaignStatusApproved,
			"approved":    true,
			"approved_at": now,
			"approved_by": approvedBy,
		}).Error; err != nil {
			return err
		}

		escrow := &model.FundEscrow{
			Id:         model.NewId(),
			CampaignId: id,
			Status:     model.EscrowStatusEscrowed,
		}
		if err := tx.Create(escrow).Error; err != nil {
			return err
		}

		return tx.Create(model.NewOutboxEvent(model.EventCampaignApproved, id)).Error
	})
}

// CancelCampaign 取消活动，已有托管资金时触发退款
func (c *CampaignLogic) CancelCampaign(id string) error {
	campaign, err := c.GetCampaign(id)
	if err != nil {
		return err
	}
	if !campaign.Status.CanTransitionTo(model.CampaignStatusCancelled) {
		return fmt.Errorf("活动状态 %s 不能取消", campaign.Status)
	}
	return c.finish(campaign, model.CampaignStatusCancelled, model.EventCampaignCancelled)
}

// FinishExpiredCampaigns 结算所有到期活动
// 达到成功阈值转 successful 并触发释放/铸造，否则转 failed 并触发退款。
func (c *CampaignLogic) FinishExpiredCampaigns() error {
	var expired []model.Campaign
	if err := c.db.Preload("Company").
		Where("status = ? AND end_date IS NOT NULL AND end_date <= ?", model.CampaignStatusActive, time.Now()).
		Find(&expired).Error; err != nil {
		return fmt.Errorf("获取到期活动失败: %w", err)
	}

	for i := range expired {
		campaign := &expired[i]
		var err error
		if campaign.IsSuccessful() {
			err = c.finish(campaign, model.CampaignStatusSuccessful, model.EventCampaignSuccessful)
		} else {
			err = c.finish(campaign, model.CampaignStatusFailed, model.EventCampaignFailed)
		}
		if err != nil {
			logger.Error("Failed to finish campaign %s: %v", campaign.Id, err)
			continue
		}
		logger.Info("Campaign %s finished as %s (%.1f%% of goal)",
			campaign.Id, campaign.Status, campaign.ProgressPercentage())
	}
	return nil
}

// finish 活动落点: 终态转移、解除发行方排他锁、写出站事件，一个事务完成
func (c *CampaignLogic) finish(campaign *model.Campaign, to model.CampaignStatus, eventType model.OutboxEventType) error {
	if !campaign.Status.CanTransitionTo(to) {
		return fmt.Errorf("活动状态 %s 不能转为 %s", campaign.Status, to)
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Campaign{}).Where("id = ?", campaign.Id).
			Update("status", to).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Company{}).
			Where("id = ? AND active_campaign_id = ?", campaign.CompanyId, campaign.Id).
			Updates(map[string]interface{}{
				"has_active_campaign": false,
				"active_campaign_id":  "",
			}).Error; err != nil {
			return err
		}

		// 托管还未创建时（pending取消）没有可退的资金，不发事件
		var escrowCount int64
		if err := tx.Model(&model.FundEscrow{}).Where("campaign_id = ?", campaign.Id).
			Count(&escrowCount).Error; err != nil {
			return err
		}
		if escrowCount == 0 {
			return nil
		}
		return tx.Create(model.NewOutboxEvent(eventType, campaign.Id)).Error
	})
	if err != nil {
		return err
	}
	campaign.Status = to
	return nil
}

// transition 简单状态转移
func (c *CampaignLogic) transition(id string, to model.CampaignStatus, updates map[string]interface{}) error {
	campaign, err := c.GetCampaign(id)
	if err != nil {
		return err
	}
	if !campaign.Status.CanTransitionTo(to) {
		return fmt.Errorf("活动状态 %s 不能转为 %s", campaign.Status, to)
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	return c.db.Model(&model.Campaign{}).Where("id = ?", id).Updates(updates).Error
}

// GetCampaign 获取活动详情
func (c *CampaignLogic) GetCampaign(id string) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := c.db.Preload("Company").First(&campaign, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("活动不存在")
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}
	return &campaign, nil
}

// GetCampaigns 获取活动列表
func (c *CampaignLogic) GetCampaigns() ([]model.Campaign, error) {
	var campaigns []model.Campaign
	if err := c.db.Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("获取活动列表失败: %w", err)
	}
	return campaigns, nil
}
