package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrReceiptNotFound 回执尚不存在
var ErrReceiptNotFound = errors.New("transaction receipt not found")

// TimeoutError 超时未观察到回执。交易可能仍会上链，
// 重试前必须先用 TxHash 查询原交易是否最终落块。
type TimeoutError struct {
	TxHash common.Hash
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transaction timeout: %s", e.TxHash.Hex())
}

// RevertError 链上执行失败（回执状态位为0）
type RevertError struct {
	TxHash common.Hash
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction reverted: %s", e.TxHash.Hex())
}

// AsTimeout 提取超时错误
func AsTimeout(err error) (*TimeoutError, bool) {
	var te *TimeoutError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsReverted 是否为链上回滚
func IsReverted(err error) bool {
	var re *RevertError
	return errors.As(err, &re)
}

// IsNonceTransient nonce或gas价格竞争导致的瞬时广播失败
func IsNonceTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "underpriced") ||
		strings.Contains(msg, "already known")
}
