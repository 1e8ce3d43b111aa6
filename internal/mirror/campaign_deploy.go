package mirror

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/blues/ifs/internal/contract"
	"github.com/blues/ifs/internal/ledger"
	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/model"
	"gorm.io/gorm"
)

// TaskCampaignDeploy 活动合约部署任务名
const TaskCampaignDeploy = "campaign_deploy"

const secondsPerDay = 86400

// CampaignDeployTask 通过 CampaignFactory 为批准的活动部署专属合约，
// 部署成功后活动进入 active 状态并开始计时。
type CampaignDeployTask struct {
	deps       Deps
	campaignId string
}

// NewCampaignDeployTask 创建活动部署任务
func NewCampaignDeployTask(deps Deps, campaignId string) *CampaignDeployTask {
	return &CampaignDeployTask{deps: deps, campaignId: campaignId}
}

func (t *CampaignDeployTask) Name() string {
	return TaskCampaignDeploy
}

func (t *CampaignDeployTask) EntityId() string {
	return t.campaignId
}

func (t *CampaignDeployTask) Run(ctx context.Context, recovered *ledger.Receipt) Result {
	var campaign model.Campaign
	if err := t.deps.DB.Preload("Company").First(&campaign, "id = ?", t.campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Permanent(fmt.Errorf("campaign %s not found", t.campaignId))
		}
		return Transient(err)
	}

	// 幂等: 已部署直接完成
	if campaign.DeployedOnBlockchain {
		return Done()
	}
	if campaign.Status != model.CampaignStatusApproved {
		return Permanent(fmt.Errorf("campaign %s is %s, only approved campaigns deploy", t.campaignId, campaign.Status))
	}
	if campaign.Company == nil {
		return Permanent(fmt.Errorf("campaign %s has no company", t.campaignId))
	}
	// 发行方注册可能还在途，注册回写会补发部署事件
	if !campaign.Company.RegisteredOnBlockchain {
		return Transient(fmt.Errorf("company %s not yet registered on chain", campaign.CompanyId))
	}

	factory, err := t.deps.Gateway.Binding(contract.ContractCampaignFactory)
	if err != nil {
		return Permanent(err)
	}

	receipt := recovered
	if receipt == nil {
		data, err := factory.Pack("createCampaign",
			campaign.Id,
			campaign.Company.Name,
			campaign.Description,
			model.ToWei(campaign.FundingGoal),
			big.NewInt(int64(campaign.Duration)*secondsPerDay),
			campaign.IpfsDocumentHash,
		)
		if err != nil {
			return Permanent(err)
		}
		receipt, err = t.deps.Submitter.Submit(ctx, ledger.Call{To: factory.Address(), Data: data})
		if err != nil {
			return FromSubmitError(err)
		}
	}

	// 新合约地址只能从 CampaignCreated 事件取，缺失说明链上状态与预期不符
	event, err := factory.FindCampaignCreated(receipt.Logs)
	if err != nil {
		return DataIntegrity(fmt.Errorf("tx %s confirmed but CampaignCreated missing: %w", receipt.TxHash.Hex(), err))
	}

	logger.Info("Campaign %s deployed at %s (tx: %s)", campaign.Id, event.CampaignAddress.Hex(), receipt.TxHash.Hex())
	return t.writeBack(&campaign, event, receipt)
}

// writeBack 部署回写: 活动转入 active、记录合约地址，
// 同时在发行方上落排他锁，全部在一个事务内完成。
func (t *CampaignDeployTask) writeBack(campaign *model.Campaign, event *contract.CampaignCreatedEvent, receipt *ledger.Receipt) Result {
	now := time.Now()
	endDate := now.AddDate(0, 0, campaign.Duration)

	err := t.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Campaign{}).Where("id = ?", campaign.Id).Updates(map[string]interface{}{
			"smart_contract_address": event.CampaignAddress.Hex(),
			"deployment_tx_hash":     receipt.TxHash.Hex(),
			"deployed_on_blockchain": true,
			"blockchain_deployed_at": now,
			"status":                 model.CampaignStatusActive,
			"start_date":             now,
			"end_date":               endDate,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Company{}).Where("id = ?", campaign.CompanyId).Updates(map[string]interface{}{
			"has_active_campaign": true,
			"active_campaign_id":  campaign.Id,
			"last_campaign_year":  now.Year(),
		}).Error; err != nil {
			return err
		}

		// 部署前确认的投资此时才能上链，补发记录事件
		var waiting []model.Investment
		if err := tx.Where("campaign_id = ? AND status = ? AND blockchain_tx_hash = ''",
			campaign.Id, model.InvestmentStatusConfirmed).Find(&waiting).Error; err != nil {
			return err
		}
		for _, investment := range waiting {
			if err := tx.Create(model.NewOutboxEvent(model.EventInvestmentConfirmed, investment.Id)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Transient(err)
	}
	return Done()
}
