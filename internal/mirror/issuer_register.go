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

// TaskIssuerRegister 发行方上链注册任务名
const TaskIssuerRegister = "issuer_register"

// IssuerRegisterTask 把已验证的发行方注册到 IssuerRegistry 合约
type IssuerRegisterTask struct {
	deps      Deps
	companyId string
}

// NewIssuerRegisterTask 创建发行方注册任务
func NewIssuerRegisterTask(deps Deps, companyId string) *IssuerRegisterTask {
	return &IssuerRegisterTask{deps: deps, companyId: companyId}
}

func (t *IssuerRegisterTask) Name() string {
	return TaskIssuerRegister
}

func (t *IssuerRegisterTask) EntityId() string {
	return t.companyId
}

// Run 幂等检查 -> 前置条件 -> 提交 -> 原子回写
func (t *IssuerRegisterTask) Run(ctx context.Context, recovered *ledger.Receipt) Result {
	var company model.Company
	if err := t.deps.DB.First(&company, "id = ?", t.companyId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Permanent(fmt.Errorf("company %s not found", t.companyId))
		}
		return Transient(err)
	}

	// 幂等: 已注册直接完成
	if company.RegisteredOnBlockchain {
		return Done()
	}
	if company.WalletAddress == "" {
		return Permanent(fmt.Errorf("company %s has no wallet address", t.companyId))
	}

	binding, err := t.deps.Gateway.Binding(contract.ContractIssuerRegistry)
	if err != nil {
		return Permanent(err)
	}
	wallet := common.HexToAddress(company.WalletAddress)

	receipt := recovered
	if receipt == nil {
		// 链侧可能已经注册过（本地回写丢失的情况），先查合约状态
		registered, err := t.isRegisteredOnChain(ctx, binding, wallet)
		if err != nil {
			return Transient(err)
		}
		if registered {
			logger.Warn("Issuer %s already registered on chain, backfilling local record", company.WalletAddress)
			return t.writeBack(&company, "")
		}

		data, err := binding.Pack("registerIssuer", wallet, company.VcHash, company.IpfsDocumentHash)
		if err != nil {
			return Permanent(err)
		}
		receipt, err = t.deps.Submitter.Submit(ctx, ledger.Call{To: binding.Address(), Data: data})
		if err != nil {
			return FromSubmitError(err)
		}
	}

	logger.Info("Issuer %s registered on chain: %s", company.Name, receipt.TxHash.Hex())
	return t.writeBack(&company, receipt.TxHash.Hex())
}

func (t *IssuerRegisterTask) isRegisteredOnChain(ctx context.Context, binding *contract.Binding, wallet common.Address) (bool, error) {
	data, err := binding.Pack("isRegisteredIssuer", wallet)
	if err != nil {
		return false, err
	}
	raw, err := t.deps.Submitter.Call(ctx, binding.Address(), data)
	if err != nil {
		return false, err
	}
	values, err := binding.Unpack("isRegisteredIssuer", raw)
	if err != nil {
		return false, err
	}
	registered, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isRegisteredIssuer result type %T", values[0])
	}
	return registered, nil
}

// writeBack 注册结果回写，并为已批准待部署的活动补发部署事件
func (t *IssuerRegisterTask) writeBack(company *model.Company, txHash string) Result {
	now := time.Now()
	err := t.deps.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"registered_on_blockchain": true,
			"blockchain_registered_at": now,
		}
		if txHash != "" {
			updates["blockchain_tx_hash"] = txHash
		}
		if err := tx.Model(&model.Company{}).Where("id = ?", company.Id).Updates(updates).Error; err != nil {
			return err
		}

		// 注册完成前批准的活动此前无法部署，这里补发事件让分发器重新入队
		var pending []model.Campaign
		if err := tx.Where("company_id = ? AND status = ? AND deployed_on_blockchain = ?",
			company.Id, model.CampaignStatusApproved, false).Find(&pending).Error; err != nil {
			return err
		}
		for _, campaign := range pending {
			if err := tx.Create(model.NewOutboxEvent(model.EventCampaignApproved, campaign.Id)).Error; err != nil {
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
