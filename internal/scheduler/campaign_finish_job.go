package scheduler

import (
	"time"

	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// CampaignFinishJob 活动到期结算任务
// 到期活动按成功阈值转入 successful 或 failed，并触发释放/退款链路
type CampaignFinishJob struct {
	config        *config.Config
	campaignLogic *logic.CampaignLogic
}

// NewCampaignFinishJob 创建到期结算任务
func NewCampaignFinishJob(db *gorm.DB, cfg *config.Config) *CampaignFinishJob {
	return &CampaignFinishJob{
		config:        cfg,
		campaignLogic: logic.NewCampaignLogic(db),
	}
}

// GetName 获取任务名称
func (j *CampaignFinishJob) GetName() string {
	return "campaign_finisher"
}

// GetSchedule 获取调度配置
func (j *CampaignFinishJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignFinishJob) Execute() {
	if err := j.campaignLogic.FinishExpiredCampaigns(); err != nil {
		logger.Error("Campaign finish job failed: %v", err)
	}
}
