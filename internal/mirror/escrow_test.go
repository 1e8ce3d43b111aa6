package mirror

import (
	"context"
	"testing"

	"github.com/blues/ifs/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func successfulCampaign(t *testing.T, db *gorm.DB) (*model.Company, *model.Campaign) {
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusSuccessful, true)
	require.NoError(t, db.Model(campaign).Update("current_funding", 80000).Error)
	campaign.CurrentFunding = 80000
	return company, campaign
}

func TestEscrowReleaseMirrorsRelease(t *testing.T) {
	db := newTestDB(t)
	company, campaign := successfulCampaign(t, db)
	escrow := seedEscrow(t, db, campaign, 80000)

	submitter := &fakeSubmitter{}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}

	result := NewEscrowReleaseTask(deps, escrow.Id).Run(context.Background(), nil)
	require.True(t, result.Ok(), "unexpected failure: %v", result.Err())

	var updated model.FundEscrow
	require.NoError(t, db.First(&updated, "id = ?", escrow.Id).Error)
	assert.Equal(t, model.EscrowStatusReleased, updated.Status)
	assert.True(t, updated.FundsReleased)
	assert.NotEmpty(t, updated.ReleaseTxHash)
	assert.Equal(t, company.WalletAddress, updated.ReleasedToAddress)

	var updatedCampaign model.Campaign
	require.NoError(t, db.First(&updatedCampaign, "id = ?", campaign.Id).Error)
	assert.True(t, updatedCampaign.FundsReleased)
}

func TestEscrowReleaseIdempotent(t *testing.T) {
	db := newTestDB(t)
	_, campaign := successfulCampaign(t, db)
	escrow := seedEscrow(t, db, campaign, 80000)
	require.NoError(t, db.Model(escrow).Updates(map[string]interface{}{
		"status": model.EscrowStatusReleased, "funds_released": true,
	}).Error)

	submitter := &fakeSubmitter{}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}

	result := NewEscrowReleaseTask(deps, escrow.Id).Run(context.Background(), nil)
	assert.True(t, result.Ok())
	assert.Equal(t, 0, submitter.submitCount())
}

func TestEscrowReleaseRefusedAfterRefund(t *testing.T) {
	db := newTestDB(t)
	_, campaign := successfulCampaign(t, db)
	escrow := seedEscrow(t, db, campaign, 80000)
	require.NoError(t, db.Model(escrow).Update("status", model.EscrowStatusRefunded).Error)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}
	result := NewEscrowReleaseTask(deps, escrow.Id).Run(context.Background(), nil)

	// 托管终止后另一条路径永久关闭
	assert.False(t, result.Ok())
	assert.Equal(t, model.FailurePermanent, result.Category())
}

func TestEscrowReleaseBelowThresholdIsPermanent(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusFailed, true)
	require.NoError(t, db.Model(campaign).Update("current_funding", 40000).Error)
	escrow := seedEscrow(t, db, campaign, 40000)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}
	result := NewEscrowReleaseTask(deps, escrow.Id).Run(context.Background(), nil)

	assert.False(t, result.Ok())
	assert.Equal(t, model.FailurePermanent, result.Category())
}

func TestEscrowRefundMirrorsRefund(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusFailed, true)
	require.NoError(t, db.Model(campaign).Update("current_funding", 40000).Error)
	escrow := seedEscrow(t, db, campaign, 40000)

	first := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 25000, true)
	second := seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000022", 15000, true)

	submitter := &fakeSubmitter{}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}

	result := NewEscrowRefundTask(deps, escrow.Id).Run(context.Background(), nil)
	require.True(t, result.Ok(), "unexpected failure: %v", result.Err())

	var updated model.FundEscrow
	require.NoError(t, db.First(&updated, "id = ?", escrow.Id).Error)
	assert.Equal(t, model.EscrowStatusRefunded, updated.Status)
	assert.True(t, updated.RefundCompleted)

	var refunds []model.RefundTransaction
	require.NoError(t, db.Where("escrow_id = ?", escrow.Id).Find(&refunds).Error)
	assert.Len(t, refunds, 2)

	for _, id := range []string{first.Id, second.Id} {
		var investment model.Investment
		require.NoError(t, db.First(&investment, "id = ?", id).Error)
		assert.Equal(t, model.InvestmentStatusRefunded, investment.Status)
		assert.NotNil(t, investment.RefundedAt)
	}
}

func TestEscrowRefundIdempotentPerInvestor(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusFailed, true)
	escrow := seedEscrow(t, db, campaign, 25000)
	seedInvestment(t, db, campaign, "0x4000000000000000000000000000000000000011", 25000, true)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}

	result := NewEscrowRefundTask(deps, escrow.Id).Run(context.Background(), nil)
	require.True(t, result.Ok())

	// 第二次执行被幂等检查短路，退款流水不翻倍
	result = NewEscrowRefundTask(deps, escrow.Id).Run(context.Background(), nil)
	require.True(t, result.Ok())

	var refunds []model.RefundTransaction
	require.NoError(t, db.Where("escrow_id = ?", escrow.Id).Find(&refunds).Error)
	assert.Len(t, refunds, 1)
}

func TestEscrowRefundRefusedWhenSuccessful(t *testing.T) {
	db := newTestDB(t)
	_, campaign := successfulCampaign(t, db)
	escrow := seedEscrow(t, db, campaign, 80000)

	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}
	result := NewEscrowRefundTask(deps, escrow.Id).Run(context.Background(), nil)

	assert.False(t, result.Ok())
	assert.Equal(t, model.FailurePermanent, result.Category())
}

func TestEscrowRefundWithoutContractSettlesLocally(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, true)
	campaign := seedCampaign(t, db, company, model.CampaignStatusCancelled, false)
	escrow := seedEscrow(t, db, campaign, 0)

	submitter := &fakeSubmitter{}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}

	result := NewEscrowRefundTask(deps, escrow.Id).Run(context.Background(), nil)
	require.True(t, result.Ok())
	assert.Equal(t, 0, submitter.submitCount())

	var updated model.FundEscrow
	require.NoError(t, db.First(&updated, "id = ?", escrow.Id).Error)
	assert.Equal(t, model.EscrowStatusRefunded, updated.Status)
}
