package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blues/ifs/internal/contract"
	"github.com/blues/ifs/internal/ledger"
	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// TaskInvestmentRecord 投资上链记录任务名
const TaskInvestmentRecord = "investment_record"

// InvestmentRecordTask 把确认的投资写入活动合约，并回写募资聚合统计
type InvestmentRecordTask struct {
	deps         Deps
	investmentId string
}

// NewInvestmentRecordTask 创建投资记录任务
func NewInvestmentRecordTask(deps Deps, investmentId string) *InvestmentRecordTask {
	return &InvestmentRecordTask{deps: deps, investmentId: investmentId}
}

func (t *InvestmentRecordTask) Name() string {
	return TaskInvestmentRecord
}

func (t *InvestmentRecordTask) EntityId() string {
	return t.investmentId
}

func (t *InvestmentRecordTask) Run(ctx context.Context, recovered *ledger.Receipt) Result {
	var investment model.Investment
	if err := t.deps.DB.Preload("Campaign").First(&investment, "id = ?", t.investmentId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Permanent(fmt.Errorf("investment %s not found", t.investmentId))
		}
		return Transient(err)
	}

	// 幂等: 已上链直接完成
	if investment.RecordedOnBlockchain() {
		return Done()
	}
	if investment.Status != model.InvestmentStatusConfirmed {
		return Permanent(fmt.Errorf("investment %s is %s, only confirmed investments are mirrored", t.investmentId, investment.Status))
	}
	campaign := investment.Campaign
	if campaign == nil {
		return Permanent(fmt.Errorf("investment %s has no campaign", t.investmentId))
	}
	// 活动部署可能还在途，部署回写会补发记录事件
	if !campaign.DeployedOnBlockchain || campaign.SmartContractAddress == "" {
		return Transient(fmt.Errorf("campaign %s not yet deployed on chain", campaign.Id))
	}

	binding, err := t.deps.Gateway.BindingAt(contract.ContractCampaign, common.HexToAddress(campaign.SmartContractAddress))
	if err != nil {
		return Permanent(err)
	}

	receipt := recovered
	if receipt == nil {
		data, err := binding.Pack("recordInvestment",
			common.HexToAddress(investment.InvestorAddress),
			model.ToWei(investment.Amount),
			investment.PaymentMethod,
			investment.Id,
		)
		if err != nil {
			return Permanent(err)
		}
		receipt, err = t.deps.Submitter.Submit(ctx, ledger.Call{To: binding.Address(), Data: data})
		if err != nil {
			return FromSubmitError(err)
		}
	}

	// 链上记录金额与本地不一致说明合约侧有截断或篡改，记录告警但以本地为准
	if event, err := binding.FindInvestmentMade(receipt.Logs); err == nil {
		if event.Amount.Cmp(model.ToWei(investment.Amount)) != 0 {
			logger.Warn("Investment %s amount mismatch on chain: local %s wei, chain %s wei",
				investment.Id, model.ToWei(investment.Amount), event.Amount)
		}
	}

	logger.Info("Investment %s recorded on chain: %s", investment.Id, receipt.TxHash.Hex())
	return t.writeBack(&investment, campaign, receipt)
}

// writeBack 投资回写: 交易哈希、活动募资聚合、托管余额一个事务完成。
// 聚合用自增UPDATE而不是读改写，并发记录同一活动的投资互不覆盖。
// 交易哈希更新带空值条件，同一投资的并发回写只有一次能进聚合，
// 保证每笔投资对募资总额至多贡献一次。
func (t *InvestmentRecordTask) writeBack(investment *model.Investment, campaign *model.Campaign, receipt *ledger.Receipt) Result {
	now := time.Now()
	alreadyRecorded := false
	err := t.deps.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Investment{}).
			Where("id = ? AND blockchain_tx_hash = ''", investment.Id).
			Updates(map[string]interface{}{
				"blockchain_tx_hash":     receipt.TxHash.Hex(),
				"blockchain_recorded_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			alreadyRecorded = true
			return nil
		}

		// 自增UPDATE先行，同一活动的后续回写在此排队
		if err := tx.Model(&model.Campaign{}).Where("id = ?", campaign.Id).Updates(map[string]interface{}{
			"current_funding":     gorm.Expr("current_funding + ?", investment.Amount),
			"total_shares_issued": gorm.Expr("total_shares_issued + ?", investment.Shares()),
		}).Error; err != nil {
			return err
		}

		// 同一投资人的首笔投资才计入投资人数
		var prior int64
		if err := tx.Model(&model.Investment{}).
			Where("campaign_id = ? AND investor_address = ? AND blockchain_tx_hash <> '' AND id <> ?",
				campaign.Id, investment.InvestorAddress, investment.Id).
			Count(&prior).Error; err != nil {
			return err
		}
		if prior == 0 {
			if err := tx.Model(&model.Campaign{}).Where("id = ?", campaign.Id).
				Update("investor_count", gorm.Expr("investor_count + 1")).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&model.FundEscrow{}).Where("campaign_id = ?", campaign.Id).
			Update("total_escrowed", gorm.Expr("total_escrowed + ?", investment.Amount)).Error; err != nil {
			return err
		}

		// 本笔回写把募资推过成功阈值时立即结算，不等截止日任务。
		// status条件更新保证并发回写只有一次转移成功。
		var updated model.Campaign
		if err := tx.First(&updated, "id = ?", campaign.Id).Error; err != nil {
			return err
		}
		if updated.Status == model.CampaignStatusActive && updated.IsSuccessful() {
			crossed := tx.Model(&model.Campaign{}).
				Where("id = ? AND status = ?", campaign.Id, model.CampaignStatusActive).
				Update("status", model.CampaignStatusSuccessful)
			if crossed.Error != nil {
				return crossed.Error
			}
			if crossed.RowsAffected > 0 {
				if err := tx.Model(&model.Company{}).
					Where("id = ? AND active_campaign_id = ?", updated.CompanyId, campaign.Id).
					Updates(map[string]interface{}{
						"has_active_campaign": false,
						"active_campaign_id":  "",
					}).Error; err != nil {
					return err
				}
				if err := tx.Create(model.NewOutboxEvent(model.EventCampaignSuccessful, campaign.Id)).Error; err != nil {
					return err
				}
				logger.Info("Campaign %s reached funding goal: %d/%d (threshold %.0f%%)",
					campaign.Id, updated.CurrentFunding, updated.FundingGoal, updated.SuccessThreshold)
			}
		}

		// 触发NFT凭证铸造（活动成功前的投资由成功事件统一补发）
		return tx.Create(model.NewOutboxEvent(model.EventInvestmentRecorded, investment.Id)).Error
	})
	if err != nil {
		return Transient(err)
	}
	if alreadyRecorded {
		logger.Warn("Investment %s already written back, skipping aggregates", investment.Id)
	}
	return Done()
}
