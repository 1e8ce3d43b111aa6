package mirror

import (
	"context"
	"time"

	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/contract"
	"github.com/blues/ifs/internal/ledger"
	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/model"
	"gorm.io/gorm"
)

// Task 镜像任务: 把一条本地记录异步镜像到链上合约。
// 实现必须幂等，入队重复或重试都靠任务自身的幂等检查吸收。
type Task interface {
	Name() string
	EntityId() string
	// Run 执行一次镜像写入。recovered 非空表示上次超时的交易
	// 其实已经落块，任务应直接基于该回执回写而不再重新提交。
	Run(ctx context.Context, recovered *ledger.Receipt) Result
}

// Deps 镜像任务的共享依赖
type Deps struct {
	DB        *gorm.DB
	Submitter ledger.Submitter
	Gateway   *contract.Gateway
}

// Runner 任务运行器: 有界重试 + 超时交易恢复 + 终态失败落表
type Runner struct {
	db         *gorm.DB
	submitter  ledger.Submitter
	maxRetries int
	retryDelay time.Duration
}

// NewRunner 创建任务运行器
func NewRunner(db *gorm.DB, submitter ledger.Submitter, cfg config.TaskConfig) *Runner {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 60 * time.Second
	}
	return &Runner{
		db:         db,
		submitter:  submitter,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Execute 执行任务直至成功或重试耗尽
func (r *Runner) Execute(ctx context.Context, task Task) Result {
	var recovered *ledger.Receipt
	var last Result

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		last = task.Run(ctx, recovered)
		recovered = nil

		if last.Ok() {
			if attempt > 1 {
				logger.Info("Task %s succeeded for %s on attempt %d", task.Name(), task.EntityId(), attempt)
			}
			return last
		}
		if !last.Retryable() {
			r.recordFailure(task, last, attempt)
			return last
		}

		if ledger.IsReverted(last.Err()) {
			logger.Warn("Task %s attempt %d/%d reverted on chain for %s, retrying: %v",
				task.Name(), attempt, r.maxRetries, task.EntityId(), last.Err())
		} else {
			logger.Warn("Task %s attempt %d/%d failed for %s: %v",
				task.Name(), attempt, r.maxRetries, task.EntityId(), last.Err())
		}

		if attempt == r.maxRetries {
			break
		}

		// 超时的交易可能已经落块，重试前先查原交易回执，
		// 避免对同一业务动作重复花钱提交。
		if te, ok := ledger.AsTimeout(last.Err()); ok {
			if receipt, err := r.submitter.Receipt(ctx, te.TxHash); err == nil {
				logger.Info("Timed out transaction %s landed in block %d, recovering",
					te.TxHash.Hex(), receipt.BlockNumber)
				recovered = receipt
			}
		}

		select {
		case <-ctx.Done():
			r.recordFailure(task, Transient(ctx.Err()), attempt)
			return Transient(ctx.Err())
		case <-time.After(r.retryDelay):
		}
	}

	r.recordFailure(task, last, r.maxRetries)
	return last
}

// recordFailure 终态失败落运维队列，绝不静默丢弃
func (r *Runner) recordFailure(task Task, res Result, attempts int) {
	failure := &model.TaskFailure{
		TaskName: task.Name(),
		EntityId: task.EntityId(),
		Category: res.Category(),
		Attempts: attempts,
	}
	if res.Err() != nil {
		failure.LastError = res.Err().Error()
	}
	if err := r.db.Create(failure).Error; err != nil {
		logger.Error("Failed to persist task failure for %s/%s: %v", task.Name(), task.EntityId(), err)
	}
	logger.Error("Task %s failed for %s after %d attempt(s) (%s): %v",
		task.Name(), task.EntityId(), attempts, res.Category(), res.Err())
}
