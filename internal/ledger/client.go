package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend 链节点后端，*ethclient.Client 满足该接口
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Call 一次合约调用
type Call struct {
	To       common.Address
	Data     []byte
	Value    *big.Int // 为nil时不附带转账
	GasLimit uint64   // 为0时使用配置默认值
}

// Receipt 交易回执
type Receipt struct {
	TxHash          common.Hash
	BlockNumber     uint64
	GasUsed         uint64
	Status          uint64
	ContractAddress common.Address
	Logs            []types.Log
}

// Submitter 镜像任务使用的链访问接口
type Submitter interface {
	Submit(ctx context.Context, call Call) (*Receipt, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Receipt(ctx context.Context, txHash common.Hash) (*Receipt, error)
}

// Client 链交易客户端
// 单一部署账户，nonce分配必须严格串行: nonce获取、签名、广播在同一临界区内完成，
// 回执等待在临界区外进行，避免慢确认阻塞其他任务的提交。
type Client struct {
	backend        Backend
	key            *ecdsa.PrivateKey
	sender         common.Address
	chainId        *big.Int
	gasLimit       uint64
	gasFloor       *big.Int
	receiptTimeout time.Duration
	pollInterval   time.Duration

	nonceMu     sync.Mutex
	nonceNext   uint64
	nonceSynced bool
}

// Dial 连接RPC节点并创建客户端
func Dial(cfg config.ChainConfig) (*Client, error) {
	backend, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain rpc: %w", err)
	}
	return New(backend, cfg)
}

// New 创建链交易客户端
func New(backend Backend, cfg config.ChainConfig) (*Client, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse deployer private key: %w", err)
	}

	receiptTimeout := cfg.ReceiptTimeout
	if receiptTimeout <= 0 {
		receiptTimeout = 120 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	client := &Client{
		backend:        backend,
		key:            key,
		sender:         crypto.PubkeyToAddress(key.PublicKey),
		chainId:        big.NewInt(cfg.ChainId),
		gasLimit:       cfg.GasLimit,
		gasFloor:       big.NewInt(cfg.GasPriceFloor),
		receiptTimeout: receiptTimeout,
		pollInterval:   pollInterval,
	}

	logger.Info("Initialized ledger client (chain id: %d, deployer: %s)",
		cfg.ChainId, client.sender.Hex())

	return client, nil
}

// Sender 部署账户地址
func (c *Client) Sender() common.Address {
	return c.sender
}

// Submit 构建、签名并广播交易，等待回执直至超时
func (c *Client) Submit(ctx context.Context, call Call) (*Receipt, error) {
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}
	// 取建议价和配置下限中的较大者
	if gasPrice.Cmp(c.gasFloor) < 0 {
		gasPrice = new(big.Int).Set(c.gasFloor)
	}

	gasLimit := call.GasLimit
	if gasLimit == 0 {
		gasLimit = c.gasLimit
	}
	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}

	signed, err := c.signAndBroadcast(ctx, call.To, value, gasLimit, gasPrice, call.Data)
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction sent: %s (nonce: %d)", signed.Hash().Hex(), signed.Nonce())

	return c.waitReceipt(ctx, signed.Hash())
}

// signAndBroadcast nonce分配临界区: 取号、签名、广播不可分割
func (c *Client) signAndBroadcast(ctx context.Context, to common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) (*types.Transaction, error) {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	if !c.nonceSynced {
		nonce, err := c.backend.PendingNonceAt(ctx, c.sender)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch account nonce: %w", err)
		}
		c.nonceNext = nonce
		c.nonceSynced = true
	}

	tx := types.NewTransaction(c.nonceNext, to, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.chainId), c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		// 广播失败后本地nonce视为脏数据，下次提交重新同步
		c.nonceSynced = false
		if IsNonceTransient(err) {
			logger.Warn("Nonce race broadcasting %s (nonce %d), will resync: %v",
				signed.Hash().Hex(), signed.Nonce(), err)
		}
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	c.nonceNext++
	return signed, nil
}

// waitReceipt 轮询回执直至确认或超时
func (c *Client) waitReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	deadline := time.NewTimer(c.receiptTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return c.classifyReceipt(receipt)
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			logger.Warn("Receipt poll failed for %s: %v", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, &TimeoutError{TxHash: txHash}
		case <-deadline.C:
			logger.Error("Transaction timeout: %s", txHash.Hex())
			return nil, &TimeoutError{TxHash: txHash}
		case <-ticker.C:
		}
	}
}

// classifyReceipt 根据状态位分类回执
func (c *Client) classifyReceipt(receipt *types.Receipt) (*Receipt, error) {
	result := &Receipt{
		TxHash:          receipt.TxHash,
		GasUsed:         receipt.GasUsed,
		Status:          receipt.Status,
		ContractAddress: receipt.ContractAddress,
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	for _, lg := range receipt.Logs {
		result.Logs = append(result.Logs, *lg)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		logger.Error("Transaction reverted: %s", receipt.TxHash.Hex())
		return result, &RevertError{TxHash: receipt.TxHash}
	}

	logger.Info("Transaction confirmed: %s in block %d", receipt.TxHash.Hex(), result.BlockNumber)
	return result, nil
}

// Call 只读合约调用，不发交易也不重试
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.backend.CallContract(ctx, ethereum.CallMsg{
		From: c.sender,
		To:   &to,
		Data: data,
	}, nil)
}

// Receipt 按交易哈希查询回执，幂等，可用于对账而不重复提交
func (c *Client) Receipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to fetch receipt: %w", err)
	}
	return c.classifyReceipt(receipt)
}
