package scheduler

import (
	"time"

	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// NoncePurgeJob 过期登录随机数清理任务
type NoncePurgeJob struct {
	walletLogic *logic.WalletLogic
}

// NewNoncePurgeJob 创建随机数清理任务
func NewNoncePurgeJob(db *gorm.DB) *NoncePurgeJob {
	return &NoncePurgeJob{walletLogic: logic.NewWalletLogic(db)}
}

// GetName 获取任务名称
func (j *NoncePurgeJob) GetName() string {
	return "wallet_nonce_purger"
}

// GetSchedule 获取调度配置
func (j *NoncePurgeJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Hour)
}

// Execute 执行任务
func (j *NoncePurgeJob) Execute() {
	if err := j.walletLogic.PurgeExpired(); err != nil {
		logger.Error("Wallet nonce purge failed: %v", err)
	}
}
