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

// TaskEscrowRelease 托管资金释放任务名
const TaskEscrowRelease = "escrow_release"

// EscrowReleaseTask 活动成功后把托管资金释放给发行方。
// 与退款互斥: 托管一旦进入终止状态，另一条路径永远走不通。
type EscrowReleaseTask struct {
	deps     Deps
	escrowId string
}

// NewEscrowReleaseTask 创建资金释放任务
func NewEscrowReleaseTask(deps Deps, escrowId string) *EscrowReleaseTask {
	return &EscrowReleaseTask{deps: deps, escrowId: escrowId}
}

func (t *EscrowReleaseTask) Name() string {
	return TaskEscrowRelease
}

func (t *EscrowReleaseTask) EntityId() string {
	return t.escrowId
}

func (t *EscrowReleaseTask) Run(ctx context.Context, recovered *ledger.Receipt) Result {
	var escrow model.FundEscrow
	if err := t.deps.DB.Preload("Campaign.Company").First(&escrow, "id = ?", t.escrowId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Permanent(fmt.Errorf("escrow %s not found", t.escrowId))
		}
		return Transient(err)
	}

	// 幂等: 已释放直接完成
	if escrow.FundsReleased || escrow.Status == model.EscrowStatusReleased {
		return Done()
	}
	if !escrow.CanReleaseFunds() {
		return Permanent(fmt.Errorf("escrow %s not releasable (status: %s, campaign: %s)",
			t.escrowId, escrow.Status, campaignStatus(escrow.Campaign)))
	}
	campaign := escrow.Campaign
	if !campaign.DeployedOnBlockchain || campaign.SmartContractAddress == "" {
		return Permanent(fmt.Errorf("campaign %s has funds to release but no contract", campaign.Id))
	}

	binding, err := t.deps.Gateway.BindingAt(contract.ContractCampaign, common.HexToAddress(campaign.SmartContractAddress))
	if err != nil {
		return Permanent(err)
	}

	receipt := recovered
	if receipt == nil {
		data, err := binding.Pack("releaseFunds")
		if err != nil {
			return Permanent(err)
		}
		receipt, err = t.deps.Submitter.Submit(ctx, ledger.Call{To: binding.Address(), Data: data})
		if err != nil {
			return FromSubmitError(err)
		}
	}

	// 释放金额与平台费只用于日志，账面金额以本地托管记录为准
	if event, err := binding.FindFundsReleased(receipt.Logs); err == nil {
		logger.Info("Escrow %s released to issuer: %s (amount %s wei, platform fee %s wei)",
			escrow.Id, receipt.TxHash.Hex(), event.Amount, event.PlatformFee)
	} else {
		logger.Info("Escrow %s released to issuer: %s", escrow.Id, receipt.TxHash.Hex())
	}
	return t.writeBack(&escrow, campaign, receipt)
}

func (t *EscrowReleaseTask) writeBack(escrow *model.FundEscrow, campaign *model.Campaign, receipt *ledger.Receipt) Result {
	now := time.Now()
	releasedTo := ""
	if campaign.Company != nil {
		releasedTo = campaign.Company.WalletAddress
	}

	err := t.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.FundEscrow{}).Where("id = ?", escrow.Id).Updates(map[string]interface{}{
			"status":              model.EscrowStatusReleased,
			"funds_released":      true,
			"funds_released_at":   now,
			"release_tx_hash":     receipt.TxHash.Hex(),
			"released_to_address": releasedTo,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&model.Campaign{}).Where("id = ?", campaign.Id).Updates(map[string]interface{}{
			"funds_released":        true,
			"funds_released_at":     now,
			"funds_release_tx_hash": receipt.TxHash.Hex(),
		}).Error
	})
	if err != nil {
		return Transient(err)
	}
	return Done()
}

func campaignStatus(campaign *model.Campaign) model.CampaignStatus {
	if campaign == nil {
		return ""
	}
	return campaign.Status
}
