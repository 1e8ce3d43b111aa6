package logic

import (
	"errors"
	"fmt"

	"github.com/blues/ifs/internal/mirror"
	"github.com/blues/ifs/internal/model"
	"gorm.io/gorm"
)

// TaskLogic 镜像任务失败队列的运维操作
// 人工修复根因后可重新触发，重触发走出站事件原路，不绕过幂等检查。
type TaskLogic struct {
	db *gorm.DB
}

// NewTaskLogic 创建任务运维逻辑
func NewTaskLogic(db *gorm.DB) *TaskLogic {
	return &TaskLogic{db: db}
}

// GetFailures 获取失败任务列表
func (l *TaskLogic) GetFailures() ([]model.TaskFailure, error) {
	var failures []model.TaskFailure
	if err := l.db.Order("created_at desc").Limit(200).Find(&failures).Error; err != nil {
		return nil, fmt.Errorf("获取失败任务列表失败: %w", err)
	}
	return failures, nil
}

// Retrigger 重新触发一个失败任务
// 写回对应的出站事件并删除失败记录，同一事务完成。
func (l *TaskLogic) Retrigger(failureId int64) (*model.OutboxEvent, error) {
	var failure model.TaskFailure
	if err := l.db.First(&failure, "id = ?", failureId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("失败记录不存在")
		}
		return nil, err
	}

	event, err := l.eventFor(&failure)
	if err != nil {
		return nil, err
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		return tx.Delete(&model.TaskFailure{}, "id = ?", failure.Id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("重新触发任务失败: %w", err)
	}
	return event, nil
}

// eventFor 把失败记录映射回触发它的出站事件
func (l *TaskLogic) eventFor(failure *model.TaskFailure) (*model.OutboxEvent, error) {
	switch failure.TaskName {
	case mirror.TaskIssuerRegister:
		return model.NewOutboxEvent(model.EventCompanyCreated, failure.EntityId), nil
	case mirror.TaskCampaignDeploy:
		return model.NewOutboxEvent(model.EventCampaignApproved, failure.EntityId), nil
	case mirror.TaskInvestmentRecord:
		return model.NewOutboxEvent(model.EventInvestmentConfirmed, failure.EntityId), nil
	case mirror.TaskNftMint:
		return model.NewOutboxEvent(model.EventInvestmentRecorded, failure.EntityId), nil
	case mirror.TaskEscrowRelease, mirror.TaskEscrowRefund:
		// 托管任务以活动为触发粒度
		var escrow model.FundEscrow
		if err := l.db.Preload("Campaign").First(&escrow, "id = ?", failure.EntityId).Error; err != nil {
			return nil, fmt.Errorf("托管记录 %s 不存在: %w", failure.EntityId, err)
		}
		if failure.TaskName == mirror.TaskEscrowRelease {
			return model.NewOutboxEvent(model.EventCampaignSuccessful, escrow.CampaignId), nil
		}
		if escrow.Campaign != nil && escrow.Campaign.Status == model.CampaignStatusCancelled {
			return model.NewOutboxEvent(model.EventCampaignCancelled, escrow.CampaignId), nil
		}
		return model.NewOutboxEvent(model.EventCampaignFailed, escrow.CampaignId), nil
	default:
		return nil, fmt.Errorf("未知任务类型 %s", failure.TaskName)
	}
}
