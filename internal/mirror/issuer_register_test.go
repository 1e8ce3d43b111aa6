package mirror

import (
	"context"
	"testing"

	"github.com/blues/ifs/internal/ledger"
	"github.com/blues/ifs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuerRegisterMirrorsCompany(t *testing.T) {
	db := newTestDB(t)
	submitter := &fakeSubmitter{}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}
	company := seedCompany(t, db, false)

	result := NewIssuerRegisterTask(deps, company.Id).Run(context.Background(), nil)
	require.True(t, result.Ok(), "unexpected failure: %v", result.Err())

	var updated model.Company
	require.NoError(t, db.First(&updated, "id = ?", company.Id).Error)
	assert.True(t, updated.RegisteredOnBlockchain)
	assert.NotEmpty(t, updated.BlockchainTxHash)
	assert.NotNil(t, updated.BlockchainRegisteredAt)
	assert.Equal(t, 1, submitter.submitCount())
}

func TestIssuerRegisterIdempotent(t *testing.T) {
	db := newTestDB(t)
	submitter := &fakeSubmitter{}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}
	company := seedCompany(t, db, true)

	result := NewIssuerRegisterTask(deps, company.Id).Run(context.Background(), nil)
	assert.True(t, result.Ok())
	assert.Equal(t, 0, submitter.submitCount())
}

func TestIssuerRegisterBackfillsWhenChainAlreadyRegistered(t *testing.T) {
	db := newTestDB(t)
	// 链上已注册但本地回写丢失: isRegisteredIssuer 返回 true
	submitter := &fakeSubmitter{
		callFn: func(to common.Address, data []byte) ([]byte, error) {
			result := make([]byte, 32)
			result[31] = 1
			return result, nil
		},
	}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}
	company := seedCompany(t, db, false)

	result := NewIssuerRegisterTask(deps, company.Id).Run(context.Background(), nil)
	require.True(t, result.Ok())

	var updated model.Company
	require.NoError(t, db.First(&updated, "id = ?", company.Id).Error)
	assert.True(t, updated.RegisteredOnBlockchain)
	assert.Equal(t, 0, submitter.submitCount(), "must not double-register")
}

func TestIssuerRegisterMissingWalletIsPermanent(t *testing.T) {
	db := newTestDB(t)
	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}
	company := seedCompany(t, db, false)
	require.NoError(t, db.Model(company).Update("wallet_address", "").Error)

	result := NewIssuerRegisterTask(deps, company.Id).Run(context.Background(), nil)
	assert.False(t, result.Ok())
	assert.False(t, result.Retryable())
	assert.Equal(t, model.FailurePermanent, result.Category())
}

func TestIssuerRegisterUnknownCompanyIsPermanent(t *testing.T) {
	db := newTestDB(t)
	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}

	result := NewIssuerRegisterTask(deps, "no-such-id").Run(context.Background(), nil)
	assert.False(t, result.Ok())
	assert.Equal(t, model.FailurePermanent, result.Category())
}

func TestIssuerRegisterRevertIsRetried(t *testing.T) {
	db := newTestDB(t)
	submitter := &fakeSubmitter{
		submitFn: func(call ledger.Call) (*ledger.Receipt, error) {
			return nil, &ledger.RevertError{TxHash: common.HexToHash("0xbad")}
		},
	}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}
	company := seedCompany(t, db, false)

	// 链上回滚可能来自链侧状态未就绪，按瞬时失败交给重试循环
	result := NewIssuerRegisterTask(deps, company.Id).Run(context.Background(), nil)
	assert.False(t, result.Ok())
	assert.True(t, result.Retryable())
	assert.Equal(t, model.FailureTransient, result.Category())

	// 重试耗尽后作为终态失败落运维队列
	runner := NewRunner(db, submitter, testTaskConfig())
	runner.Execute(context.Background(), NewIssuerRegisterTask(deps, company.Id))

	failures := taskFailures(t, db)
	require.Len(t, failures, 1)
	assert.Equal(t, model.FailureTransient, failures[0].Category)
	assert.Equal(t, 3, failures[0].Attempts)
}

func TestIssuerRegisterReenqueuesApprovedCampaigns(t *testing.T) {
	db := newTestDB(t)
	deps := Deps{DB: db, Submitter: &fakeSubmitter{}, Gateway: newTestGateway(t)}
	company := seedCompany(t, db, false)
	campaign := seedCampaign(t, db, company, model.CampaignStatusApproved, false)

	result := NewIssuerRegisterTask(deps, company.Id).Run(context.Background(), nil)
	require.True(t, result.Ok())

	events := outboxEvents(t, db, model.EventCampaignApproved)
	require.Len(t, events, 1)
	assert.Equal(t, campaign.Id, events[0].EntityId)
}

func TestIssuerRegisterUsesRecoveredReceipt(t *testing.T) {
	db := newTestDB(t)
	submitter := &fakeSubmitter{}
	deps := Deps{DB: db, Submitter: submitter, Gateway: newTestGateway(t)}
	company := seedCompany(t, db, false)

	recovered := &ledger.Receipt{TxHash: common.HexToHash("0x77"), Status: types.ReceiptStatusSuccessful}
	result := NewIssuerRegisterTask(deps, company.Id).Run(context.Background(), recovered)
	require.True(t, result.Ok())

	assert.Equal(t, 0, submitter.submitCount(), "recovered receipt must not trigger a fresh submit")
	var updated model.Company
	require.NoError(t, db.First(&updated, "id = ?", company.Id).Error)
	assert.Equal(t, recovered.TxHash.Hex(), updated.BlockchainTxHash)
}
