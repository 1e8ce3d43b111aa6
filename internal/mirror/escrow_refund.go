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

// TaskEscrowRefund 托管退款任务名
const TaskEscrowRefund = "escrow_refund"

// EscrowRefundTask 活动失败或取消后把托管资金退还给全部投资人。
// 链上 refund 是批量操作，本地按投资人落只追加的退款流水。
type EscrowRefundTask struct {
	deps     Deps
	escrowId string
}

// NewEscrowRefundTask 创建退款任务
func NewEscrowRefundTask(deps Deps, escrowId string) *EscrowRefundTask {
	return &EscrowRefundTask{deps: deps, escrowId: escrowId}
}

func (t *EscrowRefundTask) Name() string {
	return TaskEscrowRefund
}

func (t *EscrowRefundTask) EntityId() string {
	return t.escrowId
}

func (t *EscrowRefundTask) Run(ctx context.Context, recovered *ledger.Receipt) Result {
	var escrow model.FundEscrow
	if err := t.deps.DB.Preload("Campaign").First(&escrow, "id = ?", t.escrowId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Permanent(fmt.Errorf("escrow %s not found", t.escrowId))
		}
		return Transient(err)
	}

	// 幂等: 已退款直接完成
	if escrow.RefundCompleted || escrow.Status == model.EscrowStatusRefunded {
		return Done()
	}
	if !escrow.CanRefund() {
		return Permanent(fmt.Errorf("escrow %s not refundable (status: %s, campaign: %s)",
			t.escrowId, escrow.Status, campaignStatus(escrow.Campaign)))
	}
	campaign := escrow.Campaign

	// 没有任何上链投资时无合约侧资金可退，只结清本地托管
	if !campaign.DeployedOnBlockchain || campaign.SmartContractAddress == "" {
		logger.Info("Escrow %s has no chain funds, settling locally", escrow.Id)
		return t.writeBack(&escrow, campaign, nil)
	}

	binding, err := t.deps.Gateway.BindingAt(contract.ContractCampaign, common.HexToAddress(campaign.SmartContractAddress))
	if err != nil {
		return Permanent(err)
	}

	receipt := recovered
	if receipt == nil {
		data, err := binding.Pack("refund")
		if err != nil {
			return Permanent(err)
		}
		receipt, err = t.deps.Submitter.Submit(ctx, ledger.Call{To: binding.Address(), Data: data})
		if err != nil {
			return FromSubmitError(err)
		}
	}

	logger.Info("Escrow %s refunded to investors: %s", escrow.Id, receipt.TxHash.Hex())
	return t.writeBack(&escrow, campaign, receipt)
}

// writeBack 退款回写: 托管终止、投资转为 refunded、
// 每个投资人一条退款流水，唯一索引保证重复回写不翻倍。
func (t *EscrowRefundTask) writeBack(escrow *model.FundEscrow, campaign *model.Campaign, receipt *ledger.Receipt) Result {
	now := time.Now()
	txHash := ""
	if receipt != nil {
		txHash = receipt.TxHash.Hex()
	}

	err := t.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.FundEscrow{}).Where("id = ?", escrow.Id).Updates(map[string]interface{}{
			"status":           model.EscrowStatusRefunded,
			"refund_initiated": true,
			"refund_completed": true,
			"refund_tx_hash":   txHash,
			"refunded_at":      now,
		}).Error; err != nil {
			return err
		}

		var investments []model.Investment
		if err := tx.Where("campaign_id = ? AND status = ?",
			campaign.Id, model.InvestmentStatusConfirmed).Find(&investments).Error; err != nil {
			return err
		}
		for _, investment := range investments {
			record := model.RefundTransaction{
				Id:              model.NewId(),
				EscrowId:        escrow.Id,
				InvestorAddress: investment.InvestorAddress,
				Amount:          investment.Amount,
				TxHash:          txHash,
				RefundedAt:      now,
			}
			if err := tx.Where("escrow_id = ? AND investor_address = ?", escrow.Id, investment.InvestorAddress).
				FirstOrCreate(&record).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Investment{}).Where("id = ?", investment.Id).Updates(map[string]interface{}{
				"status":      model.InvestmentStatusRefunded,
				"refunded_at": now,
			}).Error; err != nil {
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
