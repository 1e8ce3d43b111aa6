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
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// TaskNftMint NFT股权凭证铸造任务名
const TaskNftMint = "nft_mint"

// NftMintTask 为成功活动中已上链的投资铸造NFT股权凭证
type NftMintTask struct {
	deps         Deps
	investmentId string
}

// NewNftMintTask 创建凭证铸造任务
func NewNftMintTask(deps Deps, investmentId string) *NftMintTask {
	return &NftMintTask{deps: deps, investmentId: investmentId}
}

func (t *NftMintTask) Name() string {
	return TaskNftMint
}

func (t *NftMintTask) EntityId() string {
	return t.investmentId
}

func (t *NftMintTask) Run(ctx context.Context, recovered *ledger.Receipt) Result {
	var investment model.Investment
	if err := t.deps.DB.Preload("Campaign.Company").First(&investment, "id = ?", t.investmentId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Permanent(fmt.Errorf("investment %s not found", t.investmentId))
		}
		return Transient(err)
	}

	// 幂等: 已铸造直接完成
	if investment.NftMinted {
		return Done()
	}
	campaign := investment.Campaign
	if campaign == nil {
		return Permanent(fmt.Errorf("investment %s has no campaign", t.investmentId))
	}
	if !campaign.CertificateEligible() {
		return Permanent(fmt.Errorf("campaign %s is %s at %.1f%% of goal, certificate not mintable", campaign.Id, campaign.Status, campaign.ProgressPercentage()))
	}
	if investment.Status != model.InvestmentStatusConfirmed {
		return Permanent(fmt.Errorf("investment %s is %s, only confirmed investments mint", t.investmentId, investment.Status))
	}
	// 投资记录可能还在上链途中
	if !investment.RecordedOnBlockchain() {
		return Transient(fmt.Errorf("investment %s not yet recorded on chain", t.investmentId))
	}

	binding, err := t.deps.Gateway.Binding(contract.ContractNFTCertificate)
	if err != nil {
		return Permanent(err)
	}
	companyName := ""
	if campaign.Company != nil {
		companyName = campaign.Company.Name
	}
	tokenURI := fmt.Sprintf("ipfs://%s", campaign.IpfsDocumentHash)

	receipt := recovered
	if receipt == nil {
		data, err := binding.Pack("issueCertificate",
			common.HexToAddress(investment.InvestorAddress),
			campaign.Id,
			companyName,
			model.ToWei(investment.Amount),
			big.NewInt(investment.Shares()),
			tokenURI,
		)
		if err != nil {
			return Permanent(err)
		}
		receipt, err = t.deps.Submitter.Submit(ctx, ledger.Call{To: binding.Address(), Data: data})
		if err != nil {
			return FromSubmitError(err)
		}
	}

	// tokenId 只能从 CertificateIssued 事件取
	event, err := binding.FindCertificateIssued(receipt.Logs)
	if err != nil {
		return DataIntegrity(fmt.Errorf("tx %s confirmed but CertificateIssued missing: %w", receipt.TxHash.Hex(), err))
	}

	logger.Info("Certificate %s minted for investment %s (tx: %s)",
		event.TokenId.String(), investment.Id, receipt.TxHash.Hex())
	return t.writeBack(&investment, campaign, binding, event, receipt, tokenURI)
}

func (t *NftMintTask) writeBack(investment *model.Investment, campaign *model.Campaign, binding *contract.Binding, event *contract.CertificateIssuedEvent, receipt *ledger.Receipt, tokenURI string) Result {
	now := time.Now()
	certificate := model.NFTShareCertificate{
		Id:               model.NewId(),
		InvestmentId:     investment.Id,
		CampaignId:       campaign.Id,
		OwnerAddress:     investment.InvestorAddress,
		TokenId:          event.TokenId.String(),
		ContractAddress:  binding.Address().Hex(),
		InvestmentAmount: investment.Amount,
		Shares:           model.SharesForAmount(investment.Amount),
		VotingPower:      model.VotingPowerForAmount(investment.Amount),
		TokenURI:         tokenURI,
		MintTxHash:       receipt.TxHash.Hex(),
		MintedAt:         &now,
	}

	err := t.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("investment_id = ?", investment.Id).FirstOrCreate(&certificate).Error; err != nil {
			return err
		}
		return tx.Model(&model.Investment{}).Where("id = ?", investment.Id).Updates(map[string]interface{}{
			"nft_minted":   true,
			"nft_token_id": certificate.TokenId,
		}).Error
	})
	if err != nil {
		return Transient(err)
	}
	return Done()
}
