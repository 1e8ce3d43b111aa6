package contract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Binding 合约绑定: 逻辑名称 + 地址 + ABI
type Binding struct {
	name    string
	address common.Address
	abi     abi.ABI
}

// Name 合约名称
func (b *Binding) Name() string {
	return b.name
}

// Address 合约地址
func (b *Binding) Address() common.Address {
	return b.address
}

// Pack 编码方法调用数据
func (b *Binding) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s.%s: %w", b.name, method, err)
	}
	return data, nil
}

// Unpack 解码只读调用的返回值
func (b *Binding) Unpack(method string, data []byte) ([]interface{}, error) {
	values, err := b.abi.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s.%s result: %w", b.name, method, err)
	}
	return values, nil
}

// decodeEvent 按名称解码单条日志
// 日志签名不匹配时返回 (false, nil)；签名匹配但数据损坏时返回解码错误，
// 以便与"事件不存在"区分开。
func (b *Binding) decodeEvent(eventName string, out interface{}, lg types.Log) (bool, error) {
	event, ok := b.abi.Events[eventName]
	if !ok {
		return false, fmt.Errorf("event %s not defined in %s abi", eventName, b.name)
	}
	if len(lg.Topics) == 0 || lg.Topics[0] != event.ID {
		return false, nil
	}

	if len(lg.Data) > 0 {
		if err := b.abi.UnpackIntoInterface(out, eventName, lg.Data); err != nil {
			return true, fmt.Errorf("malformed %s log in tx %s: %w", eventName, lg.TxHash.Hex(), err)
		}
	}

	indexed := make(abi.Arguments, 0, len(event.Inputs))
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopics(out, indexed, lg.Topics[1:]); err != nil {
			return true, fmt.Errorf("malformed %s topics in tx %s: %w", eventName, lg.TxHash.Hex(), err)
		}
	}

	return true, nil
}

// Gateway 合约网关: 逻辑名称到绑定的查找与分发层
type Gateway struct {
	mu       sync.RWMutex
	bindings map[string]*Binding
}

// NewGateway 解析内嵌ABI并按配置绑定地址
func NewGateway(cfg config.ChainConfig) (*Gateway, error) {
	gateway := &Gateway{bindings: make(map[string]*Binding)}

	for name, rawABI := range contractABIs {
		parsed, err := abi.JSON(strings.NewReader(rawABI))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s abi: %w", name, err)
		}

		binding := &Binding{name: name, abi: parsed}

		if contractCfg, ok := cfg.Contracts[name]; ok {
			if !contractCfg.Enabled {
				logger.Info("Skipping disabled contract: %s", name)
				continue
			}
			binding.address = common.HexToAddress(contractCfg.Address)
			logger.Info("Bound contract %s at %s", name, binding.address.Hex())
		}

		gateway.bindings[name] = binding
	}

	return gateway, nil
}

// Binding 获取单例合约绑定（registry、factory等固定部署地址）
func (g *Gateway) Binding(name string) (*Binding, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	binding, exists := g.bindings[name]
	if !exists {
		return nil, fmt.Errorf("contract %s not found", name)
	}
	if binding.address == (common.Address{}) {
		return nil, fmt.Errorf("contract %s has no configured address", name)
	}
	return binding, nil
}

// BindingAt 获取按实例部署的合约绑定（每个活动一个合约地址）
func (g *Gateway) BindingAt(name string, address common.Address) (*Binding, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	binding, exists := g.bindings[name]
	if !exists {
		return nil, fmt.Errorf("contract %s not found", name)
	}
	return &Binding{name: name, address: address, abi: binding.abi}, nil
}

// Names 已注册的合约名称
func (g *Gateway) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.bindings))
	for name := range g.bindings {
		names = append(names, name)
	}
	return names
}
