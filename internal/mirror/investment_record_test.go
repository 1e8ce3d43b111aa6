package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/blues/ifs/internal/ledger"
	"github.com/blues/ifs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestmentRecordMirrorsInvestment(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusActive, true)
	seedEscrow(t, db, campaign, 0)
	investment := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 2500, false)

	submitter := &fakeSubmitter{}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}

	result := NewInvestmentRecordTask(deps, investment.Id).Run(context.Background(), nil)
	require.True(t, result.Ok(), "unexpected failure: %v", result.Err())

	var updated model.Investment
	require.NoError(t, db.First(&updated, "id = ?", investment.Id).Error)
	assert.NotEmpty(t, updated.BlockchainTxHash)
	assert.NotNil(t, updated.BlockchainRecordedAt)

	var updatedCampaign model.Campaign
	require.NoError(t, db.First(&updatedCampaign, "id = ?", campaign.Id).Error)
	assert.Equal(t, int64(2500), updatedCampaign.CurrentFunding)
	assert.Equal(t, int64(2), updatedCampaign.TotalSharesIssued)
	assert.Equal(t, int64(1), updatedCampaign.InvestorCount)

	var escrow model.FundEscrow
	require.NoError(t, db.First(&escrow, "campaign_id = ?", campaign.Id).Error)
	assert.Equal(t, int64(2500), escrow.TotalEscrowed)

	events := outboxEvents(t, db, model.EventInvestmentRecorded)
	require.Len(t, events, 1)
	assert.Equal(t, investment.Id, events[0].EntityId)
}

func TestInvestmentRecordAggregatesAccumulate(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusActive, true)
	seedEscrow(t, db, campaign, 0)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}

	// 两个投资人、三笔投资，其中一人投两笔
	first := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 2000, false)
	second := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000022", 3000, false)
	third := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 1000, false)

	for _, investment := range []*model.Investment{first, second, third} {
		result := NewInvestmentRecordTask(deps, investment.Id).Run(context.Background(), nil)
		require.True(t, result.Ok(), "unexpected failure: %v", result.Err())
	}

	var updated model.Campaign
	require.NoError(t, db.First(&updated, "id = ?", campaign.Id).Error)
	assert.Equal(t, int64(6000), updated.CurrentFunding)
	assert.Equal(t, int64(6), updated.TotalSharesIssued)
	assert.Equal(t, int64(2), updated.InvestorCount, "repeat investor counted once")
}

func TestInvestmentRecordIdempotent(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusActive, true)
	seedEscrow(t, db, campaign, 0)
	investment := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 2500, true)

	submitter := &fakeSubmitter{}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}

	result := NewInvestmentRecordTask(deps, investment.Id).Run(context.Background(), nil)
	assert.True(t, result.Ok())
	assert.Equal(t, 0, submitter.submitCount())

	// 聚合不被重复累加
	var updated model.Campaign
	require.NoError(t, db.First(&updated, "id = ?", campaign.Id).Error)
	assert.Equal(t, int64(0), updated.CurrentFunding)
}

func TestInvestmentRecordUndeployedCampaignIsTransient(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusApproved, false)
	investment := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 2500, false)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}
	result := NewInvestmentRecordTask(deps, investment.Id).Run(context.Background(), nil)

	assert.False(t, result.Ok())
	assert.True(t, result.Retryable())
}

func TestInvestmentRecordPendingInvestmentIsPermanent(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusActive, true)
	investment := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 2500, false)
	require.NoError(t, db.Model(investment).Update("status", model.InvestmentStatusPending).Error)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}
	result := NewInvestmentRecordTask(deps, investment.Id).Run(context.Background(), nil)

	assert.False(t, result.Ok())
	assert.Equal(t, model.FailurePermanent, result.Category())
}

func TestInvestmentRecordTransientSubmitError(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusActive, true)
	seedEscrow(t, db, campaign, 0)
	investment := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 2500, false)

	submitter := &fakeSubmitter{
		submitFn: func(call ledger.Call) (*ledger.Receipt, error) {
			return nil, errors.New("nonce too low")
		},
	}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}

	result := NewInvestmentRecordTask(deps, investment.Id).Run(context.Background(), nil)
	assert.False(t, result.Ok())
	assert.True(t, result.Retryable())
}

func TestInvestmentRecordCrossingThresholdFinishesCampaign(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusActive, true)
	seedEscrow(t, db, campaign, 0)
	require.NoError(t, db.Model(company).Updates(map[string]interface{}{
		"has_active_campaign": true,
		"active_campaign_id":  campaign.Id,
	}).Error)

	first := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 40000, false)
	second := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000022", 38000, false)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}

	// 40000/100000 = 40%，未达75%阈值，活动保持进行中
	require.True(t, NewInvestmentRecordTask(deps, first.Id).Run(context.Background(), nil).Ok())

	var got model.Campaign
	require.NoError(t, db.First(&got, "id = ?", campaign.Id).Error)
	assert.Equal(t, model.CampaignStatusActive, got.Status)
	assert.Empty(t, outboxEvents(t, db, model.EventCampaignSuccessful))

	// 78000/100000 = 78%，越过阈值，回写事务内直接结算为成功
	require.True(t, NewInvestmentRecordTask(deps, second.Id).Run(context.Background(), nil).Ok())

	require.NoError(t, db.First(&got, "id = ?", campaign.Id).Error)
	assert.Equal(t, model.CampaignStatusSuccessful, got.Status)
	assert.Equal(t, int64(78000), got.CurrentFunding)

	events := outboxEvents(t, db, model.EventCampaignSuccessful)
	require.Len(t, events, 1, "成功转移只发生一次")
	assert.Equal(t, campaign.Id, events[0].EntityId)

	// 排他锁随结算一并释放
	var gotCompany model.Company
	require.NoError(t, db.First(&gotCompany, "id = ?", company.Id).Error)
	assert.False(t, gotCompany.HasActiveCampaign)
	assert.Empty(t, gotCompany.ActiveCampaignId)
}

func TestInvestmentRecordAfterThresholdKeepsCampaignSuccessful(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusActive, true)
	seedEscrow(t, db, campaign, 0)

	crossing := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 80000, false)
	late := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000022", 5000, false)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}
	require.True(t, NewInvestmentRecordTask(deps, crossing.Id).Run(context.Background(), nil).Ok())
	require.True(t, NewInvestmentRecordTask(deps, late.Id).Run(context.Background(), nil).Ok())

	var got model.Campaign
	require.NoError(t, db.First(&got, "id = ?", campaign.Id).Error)
	assert.Equal(t, model.CampaignStatusSuccessful, got.Status)
	assert.Equal(t, int64(85000), got.CurrentFunding)

	// 已成功后的追加记录不再发第二个成功事件
	assert.Len(t, outboxEvents(t, db, model.EventCampaignSuccessful), 1)
}

func TestInvestmentRecordDuplicateWriteBackSkipsAggregates(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusActive, true)
	seedEscrow(t, db, campaign, 0)
	investment := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 2500, false)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}
	task := NewInvestmentRecordTask(deps, investment.Id)
	require.True(t, task.Run(context.Background(), nil).Ok())

	// 并发的第二次执行在幂等检查后才排到回写: 条件更新命中0行，聚合不得重复累加
	receipt := &ledger.Receipt{TxHash: common.HexToHash("0xabcd"), Status: 1}
	result := task.writeBack(investment, campaign, receipt)
	require.True(t, result.Ok())

	var got model.Campaign
	require.NoError(t, db.First(&got, "id = ?", campaign.Id).Error)
	assert.Equal(t, int64(2500), got.CurrentFunding)
	assert.Equal(t, int64(1), got.InvestorCount)

	var escrow model.FundEscrow
	require.NoError(t, db.First(&escrow, "campaign_id = ?", campaign.Id).Error)
	assert.Equal(t, int64(2500), escrow.TotalEscrowed)

	assert.Len(t, outboxEvents(t, db, model.EventInvestmentRecorded), 1)
}
