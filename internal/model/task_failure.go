package model

import (
	"time"
)

// FailureCategory 任务失败类别
type FailureCategory string

const (
	FailurePermanent     FailureCategory = "permanent"      // 前置条件不满足等，不重试
	FailureTransient     FailureCategory = "transient"      // 瞬时失败，重试次数耗尽
	FailureDataIntegrity FailureCategory = "data_integrity" // 链上成功但事件缺失，需人工对账
)

// TaskFailure 镜像任务的终态失败记录
// 运维队列: 重试耗尽或永久失败的任务一律落表，绝不静默丢弃。
type TaskFailure struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`

	TaskName  string          `json:"task_name" gorm:"size:50;not null;index"`
	EntityId  string          `json:"entity_id" gorm:"size:36;not null;index"`
	Category  FailureCategory `json:"category" gorm:"size:20;not null"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error" gorm:"type:text"`
}

// TableName 自定义表名
func (TaskFailure) TableName() string {
	return "task_failures"
}
