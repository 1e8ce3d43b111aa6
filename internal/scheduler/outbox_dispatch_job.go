package scheduler

import (
	"context"
	"time"

	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/outbox"
	"github.com/go-co-op/gocron/v2"
)

// OutboxDispatchJob 出站事件分发任务
type OutboxDispatchJob struct {
	config     *config.Config
	dispatcher *outbox.Dispatcher
}

// NewOutboxDispatchJob 创建出站事件分发任务
func NewOutboxDispatchJob(cfg *config.Config, dispatcher *outbox.Dispatcher) *OutboxDispatchJob {
	return &OutboxDispatchJob{config: cfg, dispatcher: dispatcher}
}

// GetName 获取任务名称
func (j *OutboxDispatchJob) GetName() string {
	return "outbox_dispatcher"
}

// GetSchedule 获取调度配置
func (j *OutboxDispatchJob) GetSchedule() gocron.JobDefinition {
	interval := j.config.Task.DispatchInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return gocron.DurationJob(interval)
}

// Execute 执行任务
func (j *OutboxDispatchJob) Execute() {
	if err := j.dispatcher.Dispatch(context.Background()); err != nil {
		logger.Error("Outbox dispatch failed: %v", err)
	}
}
