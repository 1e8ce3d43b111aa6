package mirror

import (
	"github.com/blues/ifs/internal/model"
)

type resultKind int

const (
	kindDone resultKind = iota
	kindTransient
	kindPermanent
	kindDataIntegrity
)

// Result 任务单次执行的显式结果，取代用异常驱动重试的做法。
// Transient 可重试，Permanent 和 DataIntegrity 直接进运维队列。
type Result struct {
	kind resultKind
	err  error
}

// Done 镜像写入完成（含幂等短路）
func Done() Result {
	return Result{kind: kindDone}
}

// Transient 瞬时失败，可重试
func Transient(err error) Result {
	return Result{kind: kindTransient, err: err}
}

// Permanent 永久失败（前置条件不满足、实体不存在等），不重试
func Permanent(err error) Result {
	return Result{kind: kindPermanent, err: err}
}

// DataIntegrity 交易成功但回执中缺少期望事件，需人工对账
func DataIntegrity(err error) Result {
	return Result{kind: kindDataIntegrity, err: err}
}

// FromSubmitError 按提交错误类型分类结果。
// 链上回滚也按瞬时失败重试: 部分回滚源于链侧状态未就绪，
// 重试耗尽后照常落运维队列。超时、nonce竞争、网络错误同样瞬时。
func FromSubmitError(err error) Result {
	return Transient(err)
}

// Ok 是否执行成功
func (r Result) Ok() bool {
	return r.kind == kindDone
}

// Retryable 是否可重试
func (r Result) Retryable() bool {
	return r.kind == kindTransient
}

// Err 失败原因
func (r Result) Err() error {
	return r.err
}

// Category 失败类别，用于落运维队列
func (r Result) Category() model.FailureCategory {
	switch r.kind {
	case kindTransient:
		return model.FailureTransient
	case kindDataIntegrity:
		return model.FailureDataIntegrity
	default:
		return model.FailurePermanent
	}
}
