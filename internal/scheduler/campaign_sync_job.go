package scheduler

import (
	"context"
	"math/big"
	"time"

	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/contract"
	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"

	"github.com/blues/ifs/internal/mirror"
)

// CampaignSyncJob 活动链上对账任务
// 定期拉取活动合约的 totalRaised，与本地聚合比对，偏差只告警不覆盖。
type CampaignSyncJob struct {
	config *config.Config
	deps   mirror.Deps
}

// NewCampaignSyncJob 创建对账任务
func NewCampaignSyncJob(cfg *config.Config, deps mirror.Deps) *CampaignSyncJob {
	return &CampaignSyncJob{config: cfg, deps: deps}
}

// GetName 获取任务名称
func (j *CampaignSyncJob) GetName() string {
	return "campaign_chain_sync"
}

// GetSchedule 获取调度配置
func (j *CampaignSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignSyncJob) Execute() {
	ctx := context.Background()

	var campaigns []model.Campaign
	err := j.deps.DB.Where("status = ? AND deployed_on_blockchain = ?",
		model.CampaignStatusActive, true).Find(&campaigns).Error
	if err != nil {
		logger.Error("Failed to fetch campaigns for chain sync: %v", err)
		return
	}

	for _, campaign := range campaigns {
		raised, err := j.totalRaised(ctx, campaign.SmartContractAddress)
		if err != nil {
			logger.Warn("Chain sync failed for campaign %s: %v", campaign.Id, err)
			continue
		}

		localRaised := model.ToWei(campaign.CurrentFunding)
		if raised.Cmp(localRaised) != 0 {
			logger.Warn("Ledger drift on campaign %s: chain=%s local=%s",
				campaign.Id, raised.String(), localRaised.String())
		}
	}
}

// totalRaised 读取活动合约的累计募资额
func (j *CampaignSyncJob) totalRaised(ctx context.Context, contractAddress string) (*big.Int, error) {
	binding, err := j.deps.Gateway.BindingAt(contract.ContractCampaign, common.HexToAddress(contractAddress))
	if err != nil {
		return nil, err
	}
	data, err := binding.Pack("totalRaised")
	if err != nil {
		return nil, err
	}
	raw, err := j.deps.Submitter.Call(ctx, binding.Address(), data)
	if err != nil {
		return nil, err
	}
	values, err := binding.Unpack("totalRaised", raw)
	if err != nil {
		return nil, err
	}
	raised, ok := values[0].(*big.Int)
	if !ok {
		return big.NewInt(0), nil
	}
	return raised, nil
}
