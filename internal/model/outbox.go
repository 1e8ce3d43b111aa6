package model

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventType 出站事件类型
type OutboxEventType string

const (
	EventCompanyCreated      OutboxEventType = "company.created"      // 公司创建（含钱包地址）
	EventCampaignApproved    OutboxEventType = "campaign.approved"    // 活动批准待上链
	EventInvestmentConfirmed OutboxEventType = "investment.confirmed" // 投资确认待上链
	EventInvestmentRecorded  OutboxEventType = "investment.recorded"  // 投资已上链记录
	EventCampaignSuccessful  OutboxEventType = "campaign.successful"  // 活动成功
	EventCampaignFailed      OutboxEventType = "campaign.failed"      // 活动失败
	EventCampaignCancelled   OutboxEventType = "campaign.cancelled"   // 活动取消
)

// OutboxStatus 出站事件状态
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"    // 待分发
	OutboxStatusDispatched OutboxStatus = "dispatched" // 已分发
)

// OutboxEvent 出站事件
// 与触发它的本地事务在同一事务内写入，分发器轮询后入队镜像任务。
// 至少一次投递，任务本身的幂等检查吸收重复。
type OutboxEvent struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`

	EventType OutboxEventType `json:"event_type" gorm:"size:50;not null;index"`
	EntityId  string          `json:"entity_id" gorm:"size:36;not null"`

	Status       OutboxStatus `json:"status" gorm:"size:20;default:'pending';index"`
	DispatchedAt *time.Time   `json:"dispatched_at"`
}

// TableName 自定义表名
func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// NewOutboxEvent 创建出站事件
func NewOutboxEvent(eventType OutboxEventType, entityId string) *OutboxEvent {
	return &OutboxEvent{
		EventType: eventType,
		EntityId:  entityId,
		Status:    OutboxStatusPending,
	}
}

// NewId 生成实体主键
func NewId() string {
	return uuid.NewString()
}
