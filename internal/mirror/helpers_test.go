package mirror

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/contract"
	"github.com/blues/ifs/internal/database"
	"github.com/blues/ifs/internal/ledger"
	"github.com/blues/ifs/internal/model"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestGateway(t *testing.T) *contract.Gateway {
	t.Helper()
	gateway, err := contract.NewGateway(config.ChainConfig{
		Contracts: map[string]config.ContractConfig{
			contract.ContractIssuerRegistry:  {Address: "0x1000000000000000000000000000000000000001", Enabled: true},
			contract.ContractCampaignFactory: {Address: "0x1000000000000000000000000000000000000002", Enabled: true},
			contract.ContractNFTCertificate:  {Address: "0x1000000000000000000000000000000000000003", Enabled: true},
		},
	})
	require.NoError(t, err)
	return gateway
}

func testTaskConfig() config.TaskConfig {
	return config.TaskConfig{MaxRetries: 3, RetryDelay: time.Millisecond}
}

// fakeSubmitter 脚本化的链访问桩
type fakeSubmitter struct {
	mu        sync.Mutex
	submits   int
	submitFn  func(call ledger.Call) (*ledger.Receipt, error)
	callFn    func(to common.Address, data []byte) ([]byte, error)
	receiptFn func(txHash common.Hash) (*ledger.Receipt, error)
}

func (f *fakeSubmitter) Submit(ctx context.Context, call ledger.Call) (*ledger.Receipt, error) {
	f.mu.Lock()
	f.submits++
	fn := f.submitFn
	f.mu.Unlock()
	if fn == nil {
		return &ledger.Receipt{TxHash: common.HexToHash("0xabcd"), Status: types.ReceiptStatusSuccessful}, nil
	}
	return fn(call)
}

func (f *fakeSubmitter) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	f.mu.Lock()
	fn := f.callFn
	f.mu.Unlock()
	if fn == nil {
		// ABI编码的false
		return make([]byte, 32), nil
	}
	return fn(to, data)
}

func (f *fakeSubmitter) Receipt(ctx context.Context, txHash common.Hash) (*ledger.Receipt, error) {
	f.mu.Lock()
	fn := f.receiptFn
	f.mu.Unlock()
	if fn == nil {
		return nil, ledger.ErrReceiptNotFound
	}
	return fn(txHash)
}

func (f *fakeSubmitter) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

const testEventsABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "address", "name": "campaignAddress", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "creator", "type": "address"},
			{"indexed": false, "internalType": "string", "name": "campaignId", "type": "string"},
			{"indexed": false, "internalType": "string", "name": "companyName", "type": "string"},
			{"indexed": false, "internalType": "uint256", "name": "fundingGoal", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "CampaignCreated",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "uint256", "name": "tokenId", "type": "uint256"},
			{"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
			{"indexed": false, "internalType": "string", "name": "campaignId", "type": "string"},
			{"indexed": false, "internalType": "uint256", "name": "investmentAmount", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "shareCount", "type": "uint256"}
		],
		"name": "CertificateIssued",
		"type": "event"
	}
]`

func packTestEvent(t *testing.T, eventName string, indexed []common.Hash, nonIndexed ...interface{}) types.Log {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(testEventsABI))
	require.NoError(t, err)
	event, ok := parsed.Events[eventName]
	require.True(t, ok)

	data, err := event.Inputs.NonIndexed().Pack(nonIndexed...)
	require.NoError(t, err)
	return types.Log{Topics: append([]common.Hash{event.ID}, indexed...), Data: data}
}

func campaignCreatedLog(t *testing.T, campaignAddr, creator common.Address, campaignId string) types.Log {
	return packTestEvent(t, "CampaignCreated",
		[]common.Hash{common.BytesToHash(creator.Bytes())},
		campaignAddr, campaignId, "Acme PLC", big.NewInt(5000), big.NewInt(1700000000))
}

func certificateIssuedLog(t *testing.T, tokenId *big.Int, owner common.Address, campaignId string, amount, shares *big.Int) types.Log {
	return packTestEvent(t, "CertificateIssued",
		[]common.Hash{common.BytesToHash(owner.Bytes())},
		tokenId, campaignId, amount, shares)
}

func seedCompany(t *testing.T, db *gorm.DB, registered bool) *model.Company {
	t.Helper()
	company := &model.Company{
		Id:                     model.NewId(),
		Name:                   "Acme PLC",
		TinNumber:              model.NewId(),
		Verified:               true,
		WalletAddress:          "0x3000000000000000000000000000000000000007",
		VcHash:                 "vc-hash",
		IpfsDocumentHash:       "ipfs-hash",
		RegisteredOnBlockchain: registered,
	}
	require.NoError(t, db.Create(company).Error)
	return company
}

func seedCampaign(t *testing.T, db *gorm.DB, company *model.Company, status model.CampaignStatus, deployed bool) *model.Campaign {
	t.Helper()
	campaign := &model.Campaign{
		Id:               model.NewId(),
		CompanyId:        company.Id,
		Title:            "Factory expansion",
		FundingGoal:      100000,
		MinInvestment:    100,
		Duration:         60,
		SuccessThreshold: 75,
		Status:           status,
	}
	if deployed {
		campaign.DeployedOnBlockchain = true
		campaign.SmartContractAddress = "0x2000000000000000000000000000000000000042"
		campaign.DeploymentTxHash = "0xdeedbeef"
	}
	require.NoError(t, db.Create(campaign).Error)
	return campaign
}

func seedInvestment(t *testing.T, db *gorm.DB, campaign *model.Campaign, investor string, amount int64, recorded bool) *model.Investment {
	t.Helper()
	investment := &model.Investment{
		Id:              model.NewId(),
		CampaignId:      campaign.Id,
		InvestorAddress: investor,
		Amount:          amount,
		PaymentMethod:   "telebirr",
		Status:          model.InvestmentStatusConfirmed,
	}
	if recorded {
		investment.BlockchainTxHash = "0xfeed"
		now := time.Now()
		investment.BlockchainRecordedAt = &now
	}
	require.NoError(t, db.Create(investment).Error)
	return investment
}

func seedEscrow(t *testing.T, db *gorm.DB, campaign *model.Campaign, total int64) *model.FundEscrow {
	t.Helper()
	escrow := &model.FundEscrow{
		Id:            model.NewId(),
		CampaignId:    campaign.Id,
		TotalEscrowed: total,
		Status:        model.EscrowStatusEscrowed,
	}
	require.NoError(t, db.Create(escrow).Error)
	return escrow
}

func outboxEvents(t *testing.T, db *gorm.DB, eventType model.OutboxEventType) []model.OutboxEvent {
	t.Helper()
	var events []model.OutboxEvent
	require.NoError(t, db.Where("event_type = ?", eventType).Find(&events).Error)
	return events
}

func taskFailures(t *testing.T, db *gorm.DB) []model.TaskFailure {
	t.Helper()
	var failures []model.TaskFailure
	require.NoError(t, db.Find(&failures).Error)
	return failures
}
