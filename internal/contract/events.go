package contract

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrEventNotFound 回执日志中没有期望的确认事件。
// 每次镜像写入都应恰好发射一个确认事件，扫完全部日志仍无匹配属于硬失败。
var ErrEventNotFound = errors.New("expected event not found in receipt logs")

// IssuerRegisteredEvent IssuerRegistered 事件
type IssuerRegisteredEvent struct {
	Issuer    common.Address
	VcHash    string
	IpfsHash  string
	Timestamp *big.Int
}

// CampaignCreatedEvent CampaignCreated 事件
type CampaignCreatedEvent struct {
	CampaignAddress common.Address
	Creator         common.Address
	CampaignId      string
	CompanyName     string
	FundingGoal     *big.Int
	Deadline        *big.Int
}

// InvestmentMadeEvent InvestmentMade 事件
type InvestmentMadeEvent struct {
	Investor       common.Address
	Amount         *big.Int
	PaymentMethod  string
	TransactionRef string
}

// FundsReleasedEvent FundsReleased 事件
type FundsReleasedEvent struct {
	Amount      *big.Int
	PlatformFee *big.Int
}

// CertificateIssuedEvent CertificateIssued 事件
type CertificateIssuedEvent struct {
	TokenId          *big.Int
	Owner            common.Address
	CampaignId       string
	InvestmentAmount *big.Int
	ShareCount       *big.Int
}

// FindIssuerRegistered 在回执日志中查找 IssuerRegistered 事件
func (b *Binding) FindIssuerRegistered(logs []types.Log) (*IssuerRegisteredEvent, error) {
	for _, lg := range logs {
		var event IssuerRegisteredEvent
		matched, err := b.decodeEvent("IssuerRegistered", &event, lg)
		if err != nil {
			return nil, err
		}
		if matched {
			return &event, nil
		}
	}
	return nil, ErrEventNotFound
}

// FindCampaignCreated 在回执日志中查找 CampaignCreated 事件，取得新活动合约地址
func (b *Binding) FindCampaignCreated(logs []types.Log) (*CampaignCreatedEvent, error) {
	for _, lg := range logs {
		var event CampaignCreatedEvent
		matched, err := b.decodeEvent("CampaignCreated", &event, lg)
		if err != nil {
			return nil, err
		}
		if matched {
			return &event, nil
		}
	}
	return nil, ErrEventNotFound
}

// FindInvestmentMade 在回执日志中查找 InvestmentMade 事件
func (b *Binding) FindInvestmentMade(logs []types.Log) (*InvestmentMadeEvent, error) {
	for _, lg := range logs {
		var event InvestmentMadeEvent
		matched, err := b.decodeEvent("InvestmentMade", &event, lg)
		if err != nil {
			return nil, err
		}
		if matched {
			return &event, nil
		}
	}
	return nil, ErrEventNotFound
}

// FindFundsReleased 在回执日志中查找 FundsReleased 事件
func (b *Binding) FindFundsReleased(logs []types.Log) (*FundsReleasedEvent, error) {
	for _, lg := range logs {
		var event FundsReleasedEvent
		matched, err := b.decodeEvent("FundsReleased", &event, lg)
		if err != nil {
			return nil, err
		}
		if matched {
			return &event, nil
		}
	}
	return nil, ErrEventNotFound
}

// FindCertificateIssued 在回执日志中查找 CertificateIssued 事件，取得铸造的tokenId
func (b *Binding) FindCertificateIssued(logs []types.Log) (*CertificateIssuedEvent, error) {
	for _, lg := range logs {
		var event CertificateIssuedEvent
		matched, err := b.decodeEvent("CertificateIssued", &event, lg)
		if err != nil {
			return nil, err
		}
		if matched {
			return &event, nil
		}
	}
	return nil, ErrEventNotFound
}
